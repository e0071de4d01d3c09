package bench

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	ctxpkg "github.com/stupiduntilnot/contextstore/internal/context"
	"github.com/stupiduntilnot/contextstore/internal/storage"
)

// Case is one benchmark configuration: a storage URI plus the synthetic
// dialog dimensions to drive it with. Each of ContextNum iterations
// writes a fresh FromDialogLen-turn context under a new id, reads it
// back, then grows the dialog by StepDialogLen turns at a time up to
// ToDialogLen, timing every write and read.
type Case struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	UUID           string `json:"uuid"`
	URI            string `json:"uri"`
	ContextNum     int    `json:"context_num"`
	FromDialogLen  int    `json:"from_dialog_len"`
	ToDialogLen    int    `json:"to_dialog_len"`
	StepDialogLen  int    `json:"step_dialog_len"`
	MessageLengths []int  `json:"message_lengths"`
	MiscLengths    []int  `json:"misc_lengths"`

	// BreakerThreshold > 0 runs the case through a circuit breaker, so
	// a dying backend fails the case fast instead of timing out on
	// every remaining operation.
	BreakerThreshold       int `json:"breaker_threshold,omitempty"`
	BreakerCooldownSeconds int `json:"breaker_cooldown_seconds,omitempty"`
}

// NewCase returns a case with the default dimensions: 100 contexts of
// 300 turns grown one turn at a time to 311, with 10x10 message and
// misc payloads.
func NewCase(name, uri string) Case {
	return Case{
		Name:           name,
		UUID:           uuid.NewString(),
		URI:            uri,
		ContextNum:     100,
		FromDialogLen:  300,
		ToDialogLen:    311,
		StepDialogLen:  1,
		MessageLengths: []int{10, 10},
		MiscLengths:    []int{10, 10},
	}
}

// Sizes reports the serialized byte counts of the case's synthetic
// payloads, for scaling latencies against data volume in the report.
type Sizes struct {
	StartingContextSize int `json:"starting_context_size"`
	FinalContextSize    int `json:"final_context_size"`
	MiscSize            int `json:"misc_size"`
	MessageSize         int `json:"message_size"`
}

func jsonSize(v any) int {
	data, err := json.Marshal(v)
	if err != nil {
		return 0
	}
	return len(data)
}

// ComputeSizes measures the case's payload dimensions.
func (c Case) ComputeSizes() Sizes {
	return Sizes{
		StartingContextSize: jsonSize(GenContext(c.FromDialogLen, c.MessageLengths, c.MiscLengths)),
		FinalContextSize:    jsonSize(GenContext(c.ToDialogLen, c.MessageLengths, c.MiscLengths)),
		MiscSize:            jsonSize(Dict(c.MiscLengths...)),
		MessageSize:         jsonSize(GenMessage(c.MessageLengths...)),
	}
}

// TimeSeries holds the measured latencies of one case, in seconds.
// Read and update series are keyed by the dialog length at measurement
// time, so latency growth can be plotted against history size.
type TimeSeries struct {
	WriteTimes  []float64         `json:"write_times"`
	ReadTimes   []map[int]float64 `json:"read_times"`
	UpdateTimes []map[int]float64 `json:"update_times"`
}

// RunResult is the outcome of one case. Result carries a *TimeSeries
// on success and the error message string on failure, matching the
// report schema consumers expect.
type RunResult struct {
	Success bool `json:"success"`
	Result  any  `json:"result"`
}

// updater returns the context growth step: extend the dialog by
// StepDialogLen turns, or return nil once ToDialogLen is reached.
func (c Case) updater() func(*ctxpkg.Context) *ctxpkg.Context {
	return func(cc *ctxpkg.Context) *ctxpkg.Context {
		start := len(cc.Requests)
		if start+c.StepDialogLen >= c.ToDialogLen {
			return nil
		}
		for i := start; i < start+c.StepDialogLen; i++ {
			cc.AddLabel("flow_"+strconv.Itoa(i), "node_"+strconv.Itoa(i))
			cc.AddRequest(GenMessage(c.MessageLengths...))
			cc.AddResponse(GenMessage(c.MessageLengths...))
		}
		return cc
	}
}

// Run opens the case's storage, measures it, and never propagates a
// storage failure: a failing backend yields Success=false with the
// error recorded, so one broken backend cannot abort a whole report.
func (c Case) Run(ctx context.Context) RunResult {
	adapter, err := storage.Open(ctx, c.URI)
	if err != nil {
		return RunResult{Success: false, Result: err.Error()}
	}
	if c.BreakerThreshold > 0 {
		cooldown := time.Duration(c.BreakerCooldownSeconds) * time.Second
		adapter = storage.NewBreakerAdapter(adapter, c.BreakerThreshold, cooldown)
	}
	engine := storage.NewEngine(adapter)
	defer engine.Close()

	series, err := TimeContextReadWrite(
		ctx,
		engine,
		GenContext(c.FromDialogLen, c.MessageLengths, c.MiscLengths),
		c.ContextNum,
		c.updater(),
	)
	if err != nil {
		return RunResult{Success: false, Result: err.Error()}
	}
	return RunResult{Success: true, Result: series}
}

// TimeContextReadWrite writes the given context under contextNum fresh
// ids, reading each back and verifying it, then applies the updater
// chain, timing every operation. The storage is cleared before and
// after the run.
func TimeContextReadWrite(
	ctx context.Context,
	engine *storage.Engine,
	base *ctxpkg.Context,
	contextNum int,
	updater func(*ctxpkg.Context) *ctxpkg.Context,
) (*TimeSeries, error) {
	if err := engine.ClearAll(ctx); err != nil {
		return nil, err
	}

	// Precompute the growth chain so update timings measure storage,
	// not context generation.
	var updated []*ctxpkg.Context
	if updater != nil {
		cur := base
		for cur != nil {
			clone, err := cur.Clone()
			if err != nil {
				return nil, err
			}
			cur = updater(clone)
			if cur != nil {
				updated = append(updated, cur)
			}
		}
	}

	series := &TimeSeries{}
	for n := 0; n < contextNum; n++ {
		// A fresh storage id per iteration; the read path derives the
		// context id from the storage key, so keep them aligned.
		uid := uuid.New()
		id := uid.String()
		base.ID = uid
		for _, uc := range updated {
			uc.ID = uid
		}

		start := time.Now()
		if err := engine.Write(ctx, id, base); err != nil {
			return nil, err
		}
		series.WriteTimes = append(series.WriteTimes, time.Since(start).Seconds())

		reads := map[int]float64{}
		start = time.Now()
		got, err := engine.Read(ctx, id)
		if err != nil {
			return nil, err
		}
		reads[len(base.Labels)] = time.Since(start).Seconds()
		if !got.Equal(base) {
			return nil, fmt.Errorf("read back mismatch for id %s at %d turns", id, len(base.Labels))
		}

		updates := map[int]float64{}
		for _, uc := range updated {
			start = time.Now()
			if err := engine.Write(ctx, id, uc); err != nil {
				return nil, err
			}
			updates[len(uc.Labels)] = time.Since(start).Seconds()

			start = time.Now()
			got, err = engine.Read(ctx, id)
			if err != nil {
				return nil, err
			}
			reads[len(uc.Labels)] = time.Since(start).Seconds()
			if !got.Equal(uc) {
				return nil, fmt.Errorf("read back mismatch for id %s at %d turns", id, len(uc.Labels))
			}
		}

		series.ReadTimes = append(series.ReadTimes, reads)
		if updater != nil {
			series.UpdateTimes = append(series.UpdateTimes, updates)
		}
	}

	if err := engine.ClearAll(ctx); err != nil {
		return nil, err
	}
	return series, nil
}
