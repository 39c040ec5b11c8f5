package input

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
)

const memberTimeoutReason = "You failed to mention a member in time. Try again!"

// Member waits for a member mention, ID or name within the request's guild.
func (p *Pipeline) Member(ctx context.Context, req Request) Result[*discordgo.Member] {
	ev, found := p.await(ctx, req, req.predicate(), "member")
	if !found {
		return timedOut[*discordgo.Member](memberTimeoutReason)
	}
	defer p.cleanup(req, ev)

	token := strings.TrimSpace(ev.Content)
	m, err := p.dir.Member(ctx, req.GuildID, token)
	if err != nil || m == nil {
		return invalid[*discordgo.Member](fmt.Sprintf("Member `%s` not found.", token))
	}
	return ok(m)
}
