package input

import (
	"context"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

const (
	timeTimeoutReason = "Timeout, you haven't responded in time. Try again!"
	timeInvalidReason = "This isn't a valid time format."
)

// TimeParser turns free text into a point in time relative to base.
type TimeParser interface {
	Parse(text string, base time.Time) (time.Time, bool)
}

// TimeParserFunc adapts a function to TimeParser.
type TimeParserFunc func(text string, base time.Time) (time.Time, bool)

func (f TimeParserFunc) Parse(text string, base time.Time) (time.Time, bool) { return f(text, base) }

type naturalParser struct {
	w *when.Parser
}

// NaturalTimeParser understands relative English phrases ("tomorrow 5pm",
// "in 2 hours") and falls back to absolute layouts ("2024-05-01 18:30").
func NaturalTimeParser() TimeParser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &naturalParser{w: w}
}

func (np *naturalParser) Parse(text string, base time.Time) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}

	// Absolute layouts go first: when would keep only the clock part of
	// "2024-06-10 18:30". Bare clock times come back without a year.
	if t, err := dateparse.ParseIn(text, base.Location()); err == nil && t.Year() > 1 {
		return t, true
	}
	if r, err := np.w.Parse(text, base); err == nil && r != nil {
		return r.Time, true
	}
	return time.Time{}, false
}

// Time waits for a time phrase interpreted in the pipeline's zone. A result
// that lands in the past is pushed forward by exactly one day.
func (p *Pipeline) Time(ctx context.Context, req Request) Result[time.Time] {
	ev, found := p.await(ctx, req, req.predicate(), "time")
	if !found {
		return timedOut[time.Time](timeTimeoutReason)
	}
	defer p.cleanup(req, ev)

	now := p.now().In(p.loc)
	parsed, parsedOK := p.parser.Parse(ev.Content, now)
	if !parsedOK {
		return invalid[time.Time](timeInvalidReason)
	}

	parsed = parsed.In(p.loc)
	if parsed.Before(now) {
		parsed = parsed.Add(24 * time.Hour)
	}
	return ok(parsed)
}
