// Package context defines the conversational state persisted by the
// storage engine: one Context per conversation id, with per-turn label,
// request and response maps plus free-form misc data.
package context

import (
	"bytes"
	"encoding/json"

	"github.com/google/uuid"
)

// Label identifies the dialog node active at one turn.
type Label struct {
	Flow string `json:"flow"`
	Node string `json:"node"`
}

// Context is the persisted state of a single conversation. Labels,
// Requests and Responses are keyed by turn index and only ever grow;
// Misc and FrameworkData are replaced wholesale on every write.
type Context struct {
	ID            uuid.UUID       `json:"id"`
	Labels        map[int]Label   `json:"labels"`
	Requests      map[int]Message `json:"requests"`
	Responses     map[int]Message `json:"responses"`
	Misc          map[string]any  `json:"misc"`
	FrameworkData map[string]any  `json:"framework_data"`
}

// New returns a fresh Context with a generated id and empty fields.
func New() *Context {
	return &Context{
		ID:            uuid.New(),
		Labels:        map[int]Label{},
		Requests:      map[int]Message{},
		Responses:     map[int]Message{},
		Misc:          map[string]any{},
		FrameworkData: map[string]any{},
	}
}

// LastIndex returns the highest turn index present in any append field,
// or -1 for a context with no turns.
func (c *Context) LastIndex() int {
	last := -1
	for i := range c.Labels {
		if i > last {
			last = i
		}
	}
	for i := range c.Requests {
		if i > last {
			last = i
		}
	}
	for i := range c.Responses {
		if i > last {
			last = i
		}
	}
	return last
}

// AddLabel appends a label at the next turn index.
func (c *Context) AddLabel(flow, node string) {
	c.Labels[len(c.Labels)] = Label{Flow: flow, Node: node}
}

// AddRequest appends a request message at the next turn index.
func (c *Context) AddRequest(m Message) {
	c.Requests[len(c.Requests)] = m
}

// AddResponse appends a response message at the next turn index.
func (c *Context) AddResponse(m Message) {
	c.Responses[len(c.Responses)] = m
}

// Clone returns a deep copy made through JSON round-tripping, so the
// copy carries the same value types a storage read would produce.
func (c *Context) Clone() (*Context, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	out := New()
	if err := json.Unmarshal(data, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Equal reports whether two contexts hold the same persisted state.
// Comparison goes through JSON so that numeric values survive a
// storage round trip (ints read back as float64 still compare equal).
func (c *Context) Equal(other *Context) bool {
	if c == nil || other == nil {
		return c == other
	}
	a, err := json.Marshal(c)
	if err != nil {
		return false
	}
	b, err := json.Marshal(other)
	if err != nil {
		return false
	}
	return bytes.Equal(a, b)
}
