package input

import "context"

const textTimeoutReason = "Took too long. Good Bye."

// Text returns the content of the next non-empty message.
func (p *Pipeline) Text(ctx context.Context, req Request) Result[string] {
	base := req.predicate()
	match := func(ev Event) bool {
		return base(ev) && ev.Content != ""
	}

	ev, found := p.await(ctx, req, match, "text")
	if !found {
		return timedOut[string](textTimeoutReason)
	}
	defer p.cleanup(req, ev)

	return ok(ev.Content)
}
