// Package scheme classifies Context fields by mutation pattern and
// derives the minimal write-set for a partial persist, plus the inverse
// merge that rebuilds a Context from per-field storage reads.
package scheme

import (
	"fmt"

	"github.com/google/uuid"

	ctxpkg "github.com/stupiduntilnot/contextstore/internal/context"
)

// Kind describes how a top-level Context field mutates.
type Kind int

const (
	// KindValue fields are replaced wholesale on every write.
	KindValue Kind = iota
	// KindAppend fields grow by new turn-indexed entries and existing
	// entries are never rewritten.
	KindAppend
)

func (k Kind) String() string {
	if k == KindAppend {
		return "append"
	}
	return "value"
}

// Field names, shared with every storage adapter as the physical
// column/collection/key discriminator.
const (
	FieldLabels        = "labels"
	FieldRequests      = "requests"
	FieldResponses     = "responses"
	FieldMisc          = "misc"
	FieldFrameworkData = "framework_data"
)

// Field pairs a Context field name with its mutation kind. The table is
// fixed at compile time, not per instance.
type Field struct {
	Name string
	Kind Kind
}

var fields = []Field{
	{Name: FieldLabels, Kind: KindAppend},
	{Name: FieldRequests, Kind: KindAppend},
	{Name: FieldResponses, Kind: KindAppend},
	{Name: FieldMisc, Kind: KindValue},
	{Name: FieldFrameworkData, Kind: KindValue},
}

// Fields returns the full field table in declaration order.
func Fields() []Field {
	out := make([]Field, len(fields))
	copy(out, fields)
	return out
}

// AppendFields returns the names of the turn-indexed fields.
func AppendFields() []string {
	var out []string
	for _, f := range fields {
		if f.Kind == KindAppend {
			out = append(out, f.Name)
		}
	}
	return out
}

// ValueFields returns the names of the whole-value fields.
func ValueFields() []string {
	var out []string
	for _, f := range fields {
		if f.Kind == KindValue {
			out = append(out, f.Name)
		}
	}
	return out
}

// WriteSet is the minimal data a single write must persist: full
// payloads for value fields, and only the entries above the previously
// persisted bound for append fields. Entry payloads are opaque to the
// adapters.
type WriteSet struct {
	Values  map[string][]byte
	Appends map[string]map[int][]byte
}

// Diff computes the WriteSet for ctx given the highest turn index
// already persisted (bound, -1 when nothing is stored). Value fields
// are always included in full; append fields contribute only entries
// with index > bound.
func Diff(bound int, ctx *ctxpkg.Context) (WriteSet, error) {
	ws := WriteSet{
		Values:  make(map[string][]byte, 2),
		Appends: make(map[string]map[int][]byte, 3),
	}

	labels := make(map[int][]byte)
	for i, l := range ctx.Labels {
		if i <= bound {
			continue
		}
		data, err := marshalEntry(FieldLabels, i, l)
		if err != nil {
			return WriteSet{}, err
		}
		labels[i] = data
	}
	ws.Appends[FieldLabels] = labels

	requests := make(map[int][]byte)
	for i, m := range ctx.Requests {
		if i <= bound {
			continue
		}
		data, err := marshalEntry(FieldRequests, i, m)
		if err != nil {
			return WriteSet{}, err
		}
		requests[i] = data
	}
	ws.Appends[FieldRequests] = requests

	responses := make(map[int][]byte)
	for i, m := range ctx.Responses {
		if i <= bound {
			continue
		}
		data, err := marshalEntry(FieldResponses, i, m)
		if err != nil {
			return WriteSet{}, err
		}
		responses[i] = data
	}
	ws.Appends[FieldResponses] = responses

	misc, err := marshalEntry(FieldMisc, -1, ctx.Misc)
	if err != nil {
		return WriteSet{}, err
	}
	ws.Values[FieldMisc] = misc

	fw, err := marshalEntry(FieldFrameworkData, -1, ctx.FrameworkData)
	if err != nil {
		return WriteSet{}, err
	}
	ws.Values[FieldFrameworkData] = fw

	return ws, nil
}

// Merge rebuilds a Context from per-field storage reads: whole payloads
// for value fields and the complete accumulated index map for append
// fields. Missing fields yield empty maps, never nil.
func Merge(id string, values map[string][]byte, appends map[string]map[int][]byte) (*ctxpkg.Context, error) {
	ctx := ctxpkg.New()

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("merge: bad context id %q: %w", id, err)
	}
	ctx.ID = parsed

	for i, data := range appends[FieldLabels] {
		var l ctxpkg.Label
		if err := unmarshalEntry(FieldLabels, i, data, &l); err != nil {
			return nil, err
		}
		ctx.Labels[i] = l
	}
	for i, data := range appends[FieldRequests] {
		var m ctxpkg.Message
		if err := unmarshalEntry(FieldRequests, i, data, &m); err != nil {
			return nil, err
		}
		ctx.Requests[i] = m
	}
	for i, data := range appends[FieldResponses] {
		var m ctxpkg.Message
		if err := unmarshalEntry(FieldResponses, i, data, &m); err != nil {
			return nil, err
		}
		ctx.Responses[i] = m
	}

	if data, ok := values[FieldMisc]; ok {
		if err := unmarshalEntry(FieldMisc, -1, data, &ctx.Misc); err != nil {
			return nil, err
		}
	}
	if data, ok := values[FieldFrameworkData]; ok {
		if err := unmarshalEntry(FieldFrameworkData, -1, data, &ctx.FrameworkData); err != nil {
			return nil, err
		}
	}

	return ctx, nil
}
