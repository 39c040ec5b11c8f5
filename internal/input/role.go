package input

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const roleTimeoutReason = "You failed to select a role in time. Try again!"

// RoleOptions selects the checks applied to a resolved role.
type RoleOptions struct {
	// Hierarchy rejects roles above the bot's top role, and above the
	// requester's top role unless the requester owns the guild.
	Hierarchy bool
	// CheckPermissions rejects roles carrying any Dangerous bit.
	CheckPermissions bool
	// Dangerous overrides Mask(DangerousRole) when non-zero.
	Dangerous int64
}

// Role waits for a role mention, ID or name. Checks run in order: managed,
// dangerous permissions, hierarchy.
func (p *Pipeline) Role(ctx context.Context, req Request, opts RoleOptions) Result[*discordgo.Role] {
	ev, found := p.await(ctx, req, req.predicate(), "role")
	if !found {
		return timedOut[*discordgo.Role](roleTimeoutReason)
	}
	defer p.cleanup(req, ev)

	token := strings.TrimSpace(ev.Content)
	role, err := p.dir.Role(ctx, req.GuildID, token)
	if err != nil || role == nil {
		return invalid[*discordgo.Role](fmt.Sprintf("`%s` is not a role.", token))
	}

	if role.Managed {
		return invalid[*discordgo.Role]("Role is an integrated role and cannot be added manually.")
	}

	if opts.CheckPermissions {
		mask := opts.Dangerous
		if mask == 0 {
			mask = Mask(DangerousRole)
		}
		if role.Permissions&mask != 0 {
			return invalid[*discordgo.Role](fmt.Sprintf("<@&%s> has dangerous permissions.", role.ID))
		}
	}

	if opts.Hierarchy {
		if reason := p.checkHierarchy(ctx, req, role); reason != "" {
			return invalid[*discordgo.Role](reason)
		}
	}

	return ok(role)
}

func (p *Pipeline) checkHierarchy(ctx context.Context, req Request, role *discordgo.Role) string {
	botTop, err := p.dir.TopRole(ctx, req.GuildID, p.dir.BotID())
	if err != nil {
		p.log.Debug("bot top role lookup failed", zap.String("guild", req.GuildID), zap.Error(err))
	}
	botTop = orEveryone(botTop, req.GuildID)
	if Outranks(role, botTop) {
		return fmt.Sprintf(
			"The position of <@&%s> is above my top role. So I can't give it to anyone.\n"+
				"Kindly move <@&%s> above <@&%s> in Server Settings.",
			role.ID, botTop.ID, role.ID)
	}

	owner, err := p.dir.OwnerID(ctx, req.GuildID)
	if err != nil {
		p.log.Debug("guild owner lookup failed", zap.String("guild", req.GuildID), zap.Error(err))
	}
	if owner != "" && owner == req.RequesterID {
		return ""
	}

	userTop, err := p.dir.TopRole(ctx, req.GuildID, req.RequesterID)
	if err != nil {
		p.log.Debug("requester top role lookup failed", zap.String("user", req.RequesterID), zap.Error(err))
	}
	userTop = orEveryone(userTop, req.GuildID)
	if Outranks(role, userTop) {
		return fmt.Sprintf("The position of <@&%s> is above your top role <@&%s>.", role.ID, userTop.ID)
	}
	return ""
}

// Outranks reports whether a sits above b in the role list. Equal positions
// are broken by the older (smaller) snowflake ranking higher.
func Outranks(a, b *discordgo.Role) bool {
	if a.Position != b.Position {
		return a.Position > b.Position
	}
	ai, aerr := strconv.ParseUint(a.ID, 10, 64)
	bi, berr := strconv.ParseUint(b.ID, 10, 64)
	if aerr != nil || berr != nil {
		return a.ID < b.ID
	}
	return ai < bi
}

// orEveryone substitutes the @everyone role, whose ID is the guild ID.
func orEveryone(r *discordgo.Role, guildID string) *discordgo.Role {
	if r != nil {
		return r
	}
	return &discordgo.Role{ID: guildID, Name: "@everyone", Position: 0}
}
