package scheme

import (
	"testing"

	ctxpkg "github.com/stupiduntilnot/contextstore/internal/context"
)

func testContext(t *testing.T, turns int) *ctxpkg.Context {
	t.Helper()
	c := ctxpkg.New()
	for i := 0; i < turns; i++ {
		c.AddLabel("flow", "node")
		c.AddRequest(ctxpkg.Message{Text: "req"})
		c.AddResponse(ctxpkg.Message{Text: "resp"})
	}
	c.Misc["k"] = "v"
	c.FrameworkData["pending"] = "0"
	return c
}

func TestFieldTable(t *testing.T) {
	appendFields := AppendFields()
	valueFields := ValueFields()

	wantAppend := map[string]bool{FieldLabels: true, FieldRequests: true, FieldResponses: true}
	wantValue := map[string]bool{FieldMisc: true, FieldFrameworkData: true}

	if len(appendFields) != len(wantAppend) {
		t.Fatalf("append fields = %v", appendFields)
	}
	for _, f := range appendFields {
		if !wantAppend[f] {
			t.Errorf("unexpected append field %q", f)
		}
	}
	if len(valueFields) != len(wantValue) {
		t.Fatalf("value fields = %v", valueFields)
	}
	for _, f := range valueFields {
		if !wantValue[f] {
			t.Errorf("unexpected value field %q", f)
		}
	}
}

func TestDiff_BoundFiltersAppendFields(t *testing.T) {
	c := testContext(t, 5)

	tests := []struct {
		name        string
		bound       int
		wantEntries int
	}{
		{"cold store writes everything", -1, 5},
		{"partial bound writes the tail", 2, 2},
		{"up-to-date bound writes nothing", 4, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws, err := Diff(tt.bound, c)
			if err != nil {
				t.Fatal(err)
			}
			for _, field := range AppendFields() {
				if got := len(ws.Appends[field]); got != tt.wantEntries {
					t.Errorf("%s entries = %d, want %d", field, got, tt.wantEntries)
				}
				for i := range ws.Appends[field] {
					if i <= tt.bound {
						t.Errorf("%s contains entry %d at or below bound %d", field, i, tt.bound)
					}
				}
			}
		})
	}
}

func TestDiff_ValueFieldsAlwaysFull(t *testing.T) {
	c := testContext(t, 3)
	for _, bound := range []int{-1, 0, 2} {
		ws, err := Diff(bound, c)
		if err != nil {
			t.Fatal(err)
		}
		for _, field := range ValueFields() {
			if _, ok := ws.Values[field]; !ok {
				t.Errorf("bound %d: value field %q missing from write set", bound, field)
			}
		}
	}
}

// Incremental writes must be observationally equivalent to one full
// write: merging the accumulated write sets rebuilds the context.
func TestDiffMerge_RoundTrip(t *testing.T) {
	c := testContext(t, 4)

	for _, bound := range []int{-1, 1, 3} {
		// Simulate a store that already holds entries up to bound.
		stored, err := Diff(-1, c)
		if err != nil {
			t.Fatal(err)
		}
		delta, err := Diff(bound, c)
		if err != nil {
			t.Fatal(err)
		}
		// Overlay the delta the way a backend would.
		for field, entries := range delta.Appends {
			for i, data := range entries {
				stored.Appends[field][i] = data
			}
		}
		for field, data := range delta.Values {
			stored.Values[field] = data
		}

		got, err := Merge(c.ID.String(), stored.Values, stored.Appends)
		if err != nil {
			t.Fatal(err)
		}
		if !got.Equal(c) {
			t.Errorf("bound %d: merged context differs from original", bound)
		}
	}
}

func TestMerge_MissingFieldsYieldEmptyMaps(t *testing.T) {
	c := ctxpkg.New()
	got, err := Merge(c.ID.String(), map[string][]byte{}, map[string]map[int][]byte{})
	if err != nil {
		t.Fatal(err)
	}
	if got.Labels == nil || got.Requests == nil || got.Responses == nil || got.Misc == nil {
		t.Error("merge of empty reads must produce empty maps, not nil")
	}
	if got.ID != c.ID {
		t.Errorf("merged id = %s, want %s", got.ID, c.ID)
	}
}

func TestMerge_BadID(t *testing.T) {
	if _, err := Merge("not-a-uuid", nil, nil); err == nil {
		t.Error("expected error for malformed context id")
	}
}
