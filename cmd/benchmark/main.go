// Command benchmark measures context storage backends under synthetic
// dialog load and writes a JSON report.
//
// Usage:
//
//	benchmark -uris 'sqlite://bench.db,redis://localhost:6379/0' -out report.json
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strconv"

	"github.com/stupiduntilnot/contextstore/internal/bench"
	"github.com/stupiduntilnot/contextstore/internal/config"
	"github.com/stupiduntilnot/contextstore/internal/storage"
)

func main() {
	cfg := config.LoadBenchmarkConfig()

	var (
		uris            string
		name            string
		description     string
		out             string
		overwrite       bool
		contextNum      int
		fromLen         int
		toLen           int
		stepLen         int
		messageDims     string
		miscDims        string
		breakerLimit    int
		breakerCooldown int
	)

	flag.StringVar(&uris, "uris", "", "comma-separated storage URIs to benchmark (schemes: "+schemeList()+")")
	flag.StringVar(&name, "name", cfg.Name, "report name")
	flag.StringVar(&description, "description", cfg.Description, "report description")
	flag.StringVar(&out, "out", cfg.OutFile, "report file path (empty prints a summary to stdout)")
	flag.BoolVar(&overwrite, "overwrite", cfg.Overwrite, "overwrite an existing report file")
	flag.IntVar(&contextNum, "context-num", cfg.ContextNum, "contexts written per case")
	flag.IntVar(&fromLen, "from-dialog-len", cfg.FromDialogLen, "starting dialog length")
	flag.IntVar(&toLen, "to-dialog-len", cfg.ToDialogLen, "final dialog length reached by updates")
	flag.IntVar(&stepLen, "step-dialog-len", cfg.StepDialogLen, "turns added per update")
	flag.StringVar(&messageDims, "message-dims", dimsString(cfg.MessageLengths), "message misc dimensions, e.g. 10,10")
	flag.StringVar(&miscDims, "misc-dims", dimsString(cfg.MiscLengths), "context misc dimensions, e.g. 10,10")
	flag.IntVar(&breakerLimit, "breaker-threshold", cfg.BreakerThreshold, "consecutive failures before a backend's circuit opens (0 disables the breaker)")
	flag.IntVar(&breakerCooldown, "breaker-cooldown", cfg.BreakerCooldownSeconds, "seconds an open circuit waits before probing the backend again")
	flag.Parse()

	targets := config.SplitList(uris)
	if len(targets) == 0 {
		targets = cfg.URIs
	}
	if len(targets) == 0 {
		log.Fatal("[benchmark] no storage URIs given (use -uris or CONTEXTSTORE_URIS)")
	}

	var cases []bench.Case
	for _, uri := range targets {
		c := bench.NewCase(caseName(uri), uri)
		c.Description = description
		c.ContextNum = contextNum
		c.FromDialogLen = fromLen
		c.ToDialogLen = toLen
		c.StepDialogLen = stepLen
		c.MessageLengths = config.ParseDims(messageDims)
		c.MiscLengths = config.ParseDims(miscDims)
		c.BreakerThreshold = breakerLimit
		c.BreakerCooldownSeconds = breakerCooldown
		cases = append(cases, c)
	}

	report := bench.RunAll(context.Background(), name, description, cases)

	if out == "" {
		fmt.Print(report.Summary())
		return
	}
	if err := report.Save(out, overwrite); err != nil {
		log.Fatalf("[benchmark] %v", err)
	}
	log.Printf("[benchmark] report written to %s", out)
}

func caseName(uri string) string {
	for i := 0; i < len(uri); i++ {
		if uri[i] == ':' {
			return uri[:i]
		}
	}
	return uri
}

func schemeList() string {
	list := ""
	for i, s := range storage.Schemes() {
		if i > 0 {
			list += ", "
		}
		list += s
	}
	return list
}

func dimsString(dims []int) string {
	s := ""
	for i, d := range dims {
		if i > 0 {
			s += ","
		}
		s += strconv.Itoa(d)
	}
	return s
}
