package context

import "testing"

func TestLastIndex_Empty(t *testing.T) {
	c := New()
	if got := c.LastIndex(); got != -1 {
		t.Errorf("LastIndex() = %d, want -1", got)
	}
}

func TestAddTurn_Indexing(t *testing.T) {
	c := New()
	c.AddLabel("greeting", "start")
	c.AddRequest(Message{Text: "hi"})
	c.AddResponse(Message{Text: "hello"})
	c.AddLabel("greeting", "ask")
	c.AddRequest(Message{Text: "how are you"})

	if got := c.LastIndex(); got != 1 {
		t.Errorf("LastIndex() = %d, want 1", got)
	}
	if c.Labels[0].Node != "start" || c.Labels[1].Node != "ask" {
		t.Errorf("labels appended out of order: %+v", c.Labels)
	}
	if c.Requests[1].Text != "how are you" {
		t.Errorf("request 1 = %q", c.Requests[1].Text)
	}
	// Responses lag behind requests mid-turn; LastIndex still tracks
	// the furthest field.
	if len(c.Responses) != 1 {
		t.Errorf("responses len = %d, want 1", len(c.Responses))
	}
}

func TestClone_Independent(t *testing.T) {
	c := New()
	c.AddLabel("flow", "node")
	c.Misc["k"] = "v"

	clone, err := c.Clone()
	if err != nil {
		t.Fatal(err)
	}
	if !clone.Equal(c) {
		t.Fatal("clone not equal to original")
	}

	clone.AddLabel("flow", "next")
	clone.Misc["k"] = "changed"
	if len(c.Labels) != 1 {
		t.Errorf("mutating clone changed original labels: %+v", c.Labels)
	}
	if c.Misc["k"] != "v" {
		t.Errorf("mutating clone changed original misc: %+v", c.Misc)
	}
}

func TestEqual_NumericRoundTrip(t *testing.T) {
	a := New()
	a.Misc["count"] = 3

	b, err := a.Clone()
	if err != nil {
		t.Fatal(err)
	}
	// Clone goes through JSON, so the int came back as float64.
	if _, ok := b.Misc["count"].(float64); !ok {
		t.Fatalf("expected float64 after round trip, got %T", b.Misc["count"])
	}
	if !a.Equal(b) {
		t.Error("contexts differing only in numeric representation should be equal")
	}
}

func TestEqual_Differs(t *testing.T) {
	a := New()
	a.AddLabel("f", "n")
	b, err := a.Clone()
	if err != nil {
		t.Fatal(err)
	}
	b.AddLabel("f", "m")
	if a.Equal(b) {
		t.Error("contexts with different turn counts reported equal")
	}
}
