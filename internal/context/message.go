package context

// Message is one request or response payload. The storage engine treats
// it as opaque data; Misc carries arbitrary attachments set by the
// dialog engine.
type Message struct {
	Text string         `json:"text"`
	Misc map[string]any `json:"misc,omitempty"`
}
