// Package bench drives a context storage engine under synthetic dialog
// load and aggregates write/read/update latencies into a JSON report.
// It touches only the engine's public contract.
package bench

import (
	"strconv"
	"strings"

	ctxpkg "github.com/stupiduntilnot/contextstore/internal/context"
)

// Dict builds a synthetic misc payload in the given dimensions. Each
// element of lengths is the number of keys on the corresponding nesting
// level; the last element is the length of the string leaves. So
// Dict(2, 3) is two keys pointing to three-character strings, and
// Dict(2, 3, 4) is two keys pointing to dictionaries of three
// four-character strings.
func Dict(lengths ...int) map[string]any {
	switch len(lengths) {
	case 0:
		return map[string]any{}
	case 1:
		return dict([]int{lengths[0], 0})
	default:
		return dict(lengths)
	}
}

func dict(lengths []int) map[string]any {
	out := make(map[string]any, lengths[0])
	for i := 0; i < lengths[0]; i++ {
		if len(lengths) == 2 {
			out[strconv.Itoa(i)] = strings.Repeat(".", lengths[1])
		} else {
			out[strconv.Itoa(i)] = dict(lengths[1:])
		}
	}
	return out
}

// GenMessage builds a message whose misc field has the given
// dimensions.
func GenMessage(lengths ...int) ctxpkg.Message {
	return ctxpkg.Message{Misc: Dict(lengths...)}
}

// GenContext builds a context with dialogLen turns, message misc of
// messageLens dimensions and context misc of miscLens dimensions.
func GenContext(dialogLen int, messageLens, miscLens []int) *ctxpkg.Context {
	c := ctxpkg.New()
	for i := 0; i < dialogLen; i++ {
		c.AddLabel("flow_"+strconv.Itoa(i), "node_"+strconv.Itoa(i))
		c.AddRequest(GenMessage(messageLens...))
		c.AddResponse(GenMessage(messageLens...))
	}
	c.Misc = Dict(miscLens...)
	return c
}
