package input

import "time"

// Predicate decides whether an event answers a pending request.
type Predicate func(Event) bool

// Request describes who is being asked and where.
type Request struct {
	GuildID     string
	ChannelID   string
	RequesterID string

	// Timeout of zero uses the pipeline default.
	Timeout time.Duration
	// DeleteAfter removes the answering message once the wait resolves.
	DeleteAfter bool
	// Check replaces DefaultPredicate when set.
	Check Predicate
}

// DefaultPredicate accepts a message posted in the request's channel or
// written by the requester. Either condition is enough.
func DefaultPredicate(req Request) Predicate {
	return func(ev Event) bool {
		return ev.ChannelID == req.ChannelID || ev.AuthorID == req.RequesterID
	}
}

func (r Request) predicate() Predicate {
	if r.Check != nil {
		return r.Check
	}
	return DefaultPredicate(r)
}

// Bounds is an inclusive integer range; a nil side is open.
type Bounds struct {
	Low  *int
	High *int
}

func Between(low, high int) Bounds { return Bounds{Low: &low, High: &high} }

func AtLeast(low int) Bounds { return Bounds{Low: &low} }

func AtMost(high int) Bounds { return Bounds{High: &high} }

func Unbounded() Bounds { return Bounds{} }

// Contains reports whether n is within the bounds.
func (b Bounds) Contains(n int) bool {
	if b.Low != nil && n < *b.Low {
		return false
	}
	if b.High != nil && n > *b.High {
		return false
	}
	return true
}
