package input

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const channelTimeoutReason = "You failed to select a channel in time. Try again!"

// ChannelOptions tunes the capability check run after resolution.
type ChannelOptions struct {
	// Strict requires ChannelStrict in addition to ChannelBase.
	Strict bool
}

// Channel waits for a channel mention, ID or name and checks that the bot
// can work in it.
func (p *Pipeline) Channel(ctx context.Context, req Request, opts ChannelOptions) Result[*discordgo.Channel] {
	ev, found := p.await(ctx, req, req.predicate(), "channel")
	if !found {
		return timedOut[*discordgo.Channel](channelTimeoutReason)
	}
	defer p.cleanup(req, ev)

	token := strings.TrimSpace(ev.Content)
	ch, err := p.dir.Channel(ctx, req.GuildID, token)
	if err != nil || ch == nil {
		return invalid[*discordgo.Channel](fmt.Sprintf("`%s` is not a channel.", token))
	}

	have, err := p.dir.BotPermissions(ctx, ch.ID)
	if err != nil {
		p.log.Debug("bot permissions lookup failed", zap.String("channel", ch.ID), zap.Error(err))
		have = 0
	}

	missing := Missing(have, ChannelBase)
	if opts.Strict {
		missing = append(missing, Missing(have, ChannelStrict)...)
	}
	if len(missing) > 0 {
		return invalid[*discordgo.Channel](missingPermsReason(ch.ID, missing))
	}

	return ok(ch)
}

func missingPermsReason(channelID string, missing []Capability) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Please make sure I have the following perms in <#%s>:", channelID)
	for _, name := range Names(missing) {
		fmt.Fprintf(&b, "\n- `%s`", name)
	}
	return b.String()
}
