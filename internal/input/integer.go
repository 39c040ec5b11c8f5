package input

import (
	"context"
	"strconv"
	"strings"
)

const integerTimeoutReason = "You failed to select a number in time. Try again!"

// Integer waits for a whole number within bounds. Messages that are not
// numbers, or are out of range, are skipped and the wait continues.
func (p *Pipeline) Integer(ctx context.Context, req Request, bounds Bounds) Result[int] {
	base := req.predicate()
	match := func(ev Event) bool {
		if !base(ev) {
			return false
		}
		_, accepted := acceptInteger(ev.Content, bounds)
		return accepted
	}

	ev, found := p.await(ctx, req, match, "integer")
	if !found {
		return timedOut[int](integerTimeoutReason)
	}
	defer p.cleanup(req, ev)

	n, _ := acceptInteger(ev.Content, bounds)
	return ok(n)
}

// acceptInteger applies the length gate, the parse and the bounds in that
// order. The length gate only exists when an upper bound is set.
func acceptInteger(content string, bounds Bounds) (int, bool) {
	if bounds.High != nil && len(content) > len(strconv.Itoa(*bounds.High)) {
		return 0, false
	}

	n, err := strconv.Atoi(strings.TrimSpace(content))
	if err != nil {
		return 0, false
	}
	return n, bounds.Contains(n)
}
