// Package cmd is the transport-neutral core of the bot's commands. A command
// has a name and a description and runs against an Invocation; registering
// it with Discord and dispatching events to it is left to adapters.
package cmd

import "context"

// Invocation is what a runner hands to a command. Data carries the
// transport's own context, for Discord one of the interaction contexts.
type Invocation struct {
	Args []string
	Data interface{}
}

type Command interface {
	Name() string
	Description() string
	Run(ctx context.Context, inv *Invocation) error
}
