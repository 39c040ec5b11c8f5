package input

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func short(req Request) Request {
	req.Timeout = 150 * time.Millisecond
	return req
}

func TestText(t *testing.T) {
	h := newHarness(t)

	r := run(t, h, func(ctx context.Context) Result[string] {
		return h.p.Text(ctx, baseReq)
	}, msg("m0", ""), msg("m1", "Scrims Week 1"))

	require.True(t, r.OK())
	assert.Equal(t, "Scrims Week 1", r.Value)
	assert.Equal(t, 0, h.w.Pending())
}

func TestText_Timeout(t *testing.T) {
	h := newHarness(t)

	r := h.p.Text(context.Background(), short(baseReq))

	assert.Equal(t, Timeout, r.Outcome)
	assert.Equal(t, "Took too long. Good Bye.", r.Reason)
	assert.Empty(t, r.Value)
	assert.True(t, IsTimeout(r.Err()))
	assert.False(t, IsInvalid(r.Err()))
}

func TestText_ContextCancelIsTimeout(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := h.p.Text(ctx, baseReq)
	assert.Equal(t, Timeout, r.Outcome)
}

func TestText_DeleteAfter(t *testing.T) {
	h := newHarness(t)
	req := baseReq
	req.DeleteAfter = true

	r := run(t, h, func(ctx context.Context) Result[string] {
		return h.p.Text(ctx, req)
	}, msg("m1", "hello"))

	require.True(t, r.OK())
	assert.Equal(t, []string{"c1/m1"}, h.del.Deleted())
}

func TestText_DeleteErrorIsSwallowed(t *testing.T) {
	h := newHarness(t)
	h.del.err = errBoom
	req := baseReq
	req.DeleteAfter = true

	r := run(t, h, func(ctx context.Context) Result[string] {
		return h.p.Text(ctx, req)
	}, msg("m1", "hello"))

	require.True(t, r.OK())
	assert.Equal(t, "hello", r.Value)
}

func TestText_CustomCheck(t *testing.T) {
	h := newHarness(t)
	req := baseReq
	req.Check = func(ev Event) bool { return ev.AuthorID == "u2" }

	other := msg("m2", "from u2")
	other.AuthorID = "u2"

	r := run(t, h, func(ctx context.Context) Result[string] {
		return h.p.Text(ctx, req)
	}, msg("m1", "from u1"), other)

	require.True(t, r.OK())
	assert.Equal(t, "from u2", r.Value)
}

func TestInteger_SlotsRange(t *testing.T) {
	h := newHarness(t)

	r := run(t, h, func(ctx context.Context) Result[int] {
		return h.p.Integer(ctx, baseReq, Between(1, 15000))
	}, msg("a", "0"), msg("b", "20000"), msg("c", "abc"), msg("d", "150000"), msg("e", "15000"))

	require.True(t, r.OK())
	assert.Equal(t, 15000, r.Value)
}

func TestInteger_OnlyTimesOut(t *testing.T) {
	h := newHarness(t)

	r := run(t, h, func(ctx context.Context) Result[int] {
		return h.p.Integer(ctx, short(baseReq), Between(1, 15000))
	}, msg("a", "0"))

	assert.Equal(t, Timeout, r.Outcome)
	assert.Equal(t, "You failed to select a number in time. Try again!", r.Reason)
	assert.Zero(t, r.Value)
}

func TestAcceptInteger(t *testing.T) {
	tests := []struct {
		name    string
		content string
		bounds  Bounds
		want    int
		ok      bool
	}{
		{"within range", "10", Between(0, 10), 10, true},
		{"zero is a value", "0", Between(0, 10), 0, true},
		{"below range", "-1", Between(0, 10), 0, false},
		{"length gate", "0010", Between(0, 10), 0, false},
		{"not a number", "ten", Between(0, 10), 0, false},
		{"low only has no gate", "123456789", AtLeast(5), 123456789, true},
		{"low only rejects smaller", "4", AtLeast(5), 0, false},
		{"high only", "7", AtMost(10), 7, true},
		{"high only rejects larger", "11", AtMost(10), 0, false},
		{"unbounded", "-42", Unbounded(), -42, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, accepted := acceptInteger(tt.content, tt.bounds)
			assert.Equal(t, tt.ok, accepted)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChannel(t *testing.T) {
	reg := &discordgo.Channel{ID: "100", Name: "register"}
	all := Mask(ChannelBase) | Mask(ChannelStrict)

	tests := []struct {
		name    string
		content string
		perms   int64
		strict  bool
		outcome Outcome
		reason  []string
		absent  []string
	}{
		{name: "resolved strict", content: "<#100>", perms: all, strict: true, outcome: OK},
		{name: "unknown", content: "nope", perms: all, outcome: Invalid, reason: []string{"not a channel"}},
		{
			name: "missing base", content: "<#100>", perms: discordgo.PermissionViewChannel, outcome: Invalid,
			reason: []string{"<#100>", "`send messages`", "`embed links`"},
			absent: []string{"view channel"},
		},
		{name: "lenient skips strict set", content: "<#100>", perms: Mask(ChannelBase), outcome: OK},
		{
			name: "strict names missing", content: "<#100>", perms: Mask(ChannelBase) | discordgo.PermissionAddReactions,
			strict: true, outcome: Invalid,
			reason: []string{"`manage channel`", "`manage permissions`", "`manage messages`", "`use external emojis`"},
			absent: []string{"add reactions"},
		},
		{
			name: "strict names both sets", content: "<#100>",
			perms:  discordgo.PermissionViewChannel | discordgo.PermissionEmbedLinks,
			strict: true, outcome: Invalid,
			reason: []string{"`send messages`", "`manage messages`"},
			absent: []string{"view channel", "embed links"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.dir.channels["<#100>"] = reg
			h.dir.perms = tt.perms

			r := run(t, h, func(ctx context.Context) Result[*discordgo.Channel] {
				return h.p.Channel(ctx, baseReq, ChannelOptions{Strict: tt.strict})
			}, msg("m", tt.content))

			require.Equal(t, tt.outcome, r.Outcome)
			if tt.outcome == OK {
				assert.Equal(t, reg, r.Value)
				return
			}
			assert.Nil(t, r.Value)
			assert.True(t, IsInvalid(r.Err()))
			for _, s := range tt.reason {
				assert.Contains(t, r.Reason, s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, r.Reason, s)
			}
		})
	}
}

func TestChannel_InvalidStillDeletes(t *testing.T) {
	h := newHarness(t)
	req := baseReq
	req.DeleteAfter = true

	r := run(t, h, func(ctx context.Context) Result[*discordgo.Channel] {
		return h.p.Channel(ctx, req, ChannelOptions{})
	}, msg("m9", "#general"))

	assert.Equal(t, Invalid, r.Outcome)
	assert.Equal(t, []string{"c1/m9"}, h.del.Deleted())
}

func TestRole(t *testing.T) {
	botTop := &discordgo.Role{ID: "500", Position: 10}
	userTop := &discordgo.Role{ID: "600", Position: 5}

	tests := []struct {
		name    string
		role    *discordgo.Role
		opts    RoleOptions
		owner   string
		outcome Outcome
		reason  string
	}{
		{
			name: "plain role", role: &discordgo.Role{ID: "1", Position: 3},
			opts: RoleOptions{Hierarchy: true, CheckPermissions: true}, outcome: OK,
		},
		{
			name: "managed", role: &discordgo.Role{ID: "1", Position: 3, Managed: true},
			opts: RoleOptions{Hierarchy: true, CheckPermissions: true}, outcome: Invalid, reason: "integrated role",
		},
		{
			name: "administrator wins over hierarchy", role: &discordgo.Role{ID: "1", Position: 50, Permissions: discordgo.PermissionAdministrator},
			opts: RoleOptions{Hierarchy: true, CheckPermissions: true}, outcome: Invalid, reason: "dangerous permissions",
		},
		{
			name: "dangerous ignored when unchecked", role: &discordgo.Role{ID: "1", Position: 3, Permissions: discordgo.PermissionBanMembers},
			opts: RoleOptions{Hierarchy: true}, outcome: OK,
		},
		{
			name: "custom dangerous mask", role: &discordgo.Role{ID: "1", Position: 3, Permissions: discordgo.PermissionBanMembers},
			opts: RoleOptions{CheckPermissions: true, Dangerous: discordgo.PermissionManageMessages}, outcome: OK,
		},
		{
			name: "above bot even for owner", role: &discordgo.Role{ID: "1", Position: 11},
			opts: RoleOptions{Hierarchy: true}, owner: "u1", outcome: Invalid, reason: "Kindly move <@&500> above <@&1>",
		},
		{
			name: "above requester", role: &discordgo.Role{ID: "1", Position: 7},
			opts: RoleOptions{Hierarchy: true}, outcome: Invalid, reason: "above your top role <@&600>",
		},
		{
			name: "owner bypasses requester rank", role: &discordgo.Role{ID: "1", Position: 7},
			opts: RoleOptions{Hierarchy: true}, owner: "u1", outcome: OK,
		},
		{
			name: "hierarchy off", role: &discordgo.Role{ID: "1", Position: 99},
			opts: RoleOptions{}, outcome: OK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.dir.roles["<@&1>"] = tt.role
			h.dir.tops["bot"] = botTop
			h.dir.tops["u1"] = userTop
			h.dir.owner = tt.owner

			r := run(t, h, func(ctx context.Context) Result[*discordgo.Role] {
				return h.p.Role(ctx, baseReq, tt.opts)
			}, msg("m", "<@&1>"))

			require.Equal(t, tt.outcome, r.Outcome, r.Reason)
			if tt.outcome == OK {
				assert.Equal(t, tt.role, r.Value)
				return
			}
			assert.Contains(t, r.Reason, tt.reason)
		})
	}
}

func TestRole_Unresolvable(t *testing.T) {
	h := newHarness(t)

	r := run(t, h, func(ctx context.Context) Result[*discordgo.Role] {
		return h.p.Role(ctx, baseReq, RoleOptions{})
	}, msg("m", "@ghost"))

	assert.Equal(t, Invalid, r.Outcome)
	assert.Contains(t, r.Reason, "not a role")
}

func TestRole_NoRolesMeansEveryone(t *testing.T) {
	h := newHarness(t)
	h.dir.roles["<@&1>"] = &discordgo.Role{ID: "1", Position: 1}
	h.dir.tops["bot"] = &discordgo.Role{ID: "500", Position: 10}

	r := run(t, h, func(ctx context.Context) Result[*discordgo.Role] {
		return h.p.Role(ctx, baseReq, RoleOptions{Hierarchy: true})
	}, msg("m", "<@&1>"))

	assert.Equal(t, Invalid, r.Outcome)
	assert.Contains(t, r.Reason, "<@&g1>")
}

func TestOutranks(t *testing.T) {
	assert.True(t, Outranks(&discordgo.Role{ID: "1", Position: 2}, &discordgo.Role{ID: "2", Position: 1}))
	assert.False(t, Outranks(&discordgo.Role{ID: "1", Position: 1}, &discordgo.Role{ID: "2", Position: 2}))
	assert.True(t, Outranks(&discordgo.Role{ID: "9", Position: 3}, &discordgo.Role{ID: "10", Position: 3}))
	assert.False(t, Outranks(&discordgo.Role{ID: "10", Position: 3}, &discordgo.Role{ID: "9", Position: 3}))
}

func TestMember(t *testing.T) {
	h := newHarness(t)
	member := &discordgo.Member{User: &discordgo.User{ID: "42", Username: "host"}}
	h.dir.members["<@42>"] = member

	r := run(t, h, func(ctx context.Context) Result[*discordgo.Member] {
		return h.p.Member(ctx, baseReq)
	}, msg("m", " <@42> "))
	require.True(t, r.OK())
	assert.Equal(t, member, r.Value)

	r = run(t, h, func(ctx context.Context) Result[*discordgo.Member] {
		return h.p.Member(ctx, baseReq)
	}, msg("m", "<@43>"))
	assert.Equal(t, Invalid, r.Outcome)
	assert.Nil(t, r.Value)
}

func TestMember_TimeoutReason(t *testing.T) {
	h := newHarness(t)
	r := h.p.Member(context.Background(), short(baseReq))
	assert.Equal(t, "You failed to mention a member in time. Try again!", r.Reason)
}

func TestTime(t *testing.T) {
	ist := time.FixedZone("IST", 19800)
	now := time.Date(2024, 5, 1, 18, 0, 0, 0, ist)
	past := time.Date(2024, 5, 1, 9, 30, 0, 0, ist)
	future := time.Date(2024, 5, 1, 21, 0, 0, 0, ist)

	var gotBase time.Time
	parser := TimeParserFunc(func(text string, base time.Time) (time.Time, bool) {
		gotBase = base
		switch text {
		case "9:30am":
			return past, true
		case "9pm":
			return future, true
		}
		return time.Time{}, false
	})

	newTimeHarness := func(t *testing.T) *harness {
		return newHarness(t, WithTimeParser(parser), WithLocation(ist), WithClock(func() time.Time { return now.UTC() }))
	}

	t.Run("past rolls forward one day", func(t *testing.T) {
		h := newTimeHarness(t)
		r := run(t, h, func(ctx context.Context) Result[time.Time] { return h.p.Time(ctx, baseReq) }, msg("m", "9:30am"))
		require.True(t, r.OK())
		assert.True(t, r.Value.Equal(past.Add(24*time.Hour)))
		assert.Equal(t, ist, gotBase.Location())
	})

	t.Run("future unchanged", func(t *testing.T) {
		h := newTimeHarness(t)
		r := run(t, h, func(ctx context.Context) Result[time.Time] { return h.p.Time(ctx, baseReq) }, msg("m", "9pm"))
		require.True(t, r.OK())
		assert.True(t, r.Value.Equal(future))
	})

	t.Run("unparseable", func(t *testing.T) {
		h := newTimeHarness(t)
		r := run(t, h, func(ctx context.Context) Result[time.Time] { return h.p.Time(ctx, baseReq) }, msg("m", "whenever"))
		assert.Equal(t, Invalid, r.Outcome)
		assert.True(t, r.Value.IsZero())
		assert.True(t, IsInvalid(r.Err()))
		assert.Contains(t, Reason(r.Err()), "valid time format")
	})
}

func TestNaturalTimeParser(t *testing.T) {
	ist := time.FixedZone("IST", 19800)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, ist)
	at := func(day, hour, minute int) time.Time {
		return time.Date(2024, 5, day, hour, minute, 0, 0, ist)
	}

	tests := []struct {
		text string
		want time.Time
		ok   bool
	}{
		{text: "tomorrow 6pm", want: at(2, 18, 0), ok: true},
		{text: "in 2 hours", want: at(1, 14, 0), ok: true},
		{text: "21:30", want: at(1, 21, 30), ok: true},
		{text: "2024-05-01 18:30", want: at(1, 18, 30), ok: true},
		{text: "2024-06-10 18:30", want: time.Date(2024, 6, 10, 18, 30, 0, 0, ist), ok: true},
		{text: "xyzzy", ok: false},
		{text: "   ", ok: false},
	}
	p := NaturalTimeParser()
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := p.Parse(tt.text, base)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, got.Equal(tt.want), "got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestTime_NaturalParserRollsPastClock(t *testing.T) {
	ist := time.FixedZone("IST", 19800)
	now := time.Date(2024, 5, 1, 18, 0, 0, 0, ist)
	h := newHarness(t, WithLocation(ist), WithClock(func() time.Time { return now.UTC() }))

	r := run(t, h, func(ctx context.Context) Result[time.Time] { return h.p.Time(ctx, baseReq) }, msg("m", "9:30am"))
	require.True(t, r.OK())
	want := time.Date(2024, 5, 2, 9, 30, 0, 0, ist)
	assert.True(t, r.Value.Equal(want), "got %s, want %s", r.Value, want)
	assert.Equal(t, ist, r.Value.Location())
}

func TestImage(t *testing.T) {
	tests := []struct {
		name        string
		event       Event
		contentType string
		fetchErr    error
		want        string
		wantCalls   int32
	}{
		{name: "none any case", event: msg("m", "  NoNe "), contentType: "image/png", want: "", wantCalls: 0},
		{
			name: "attachment",
			event: Event{MessageID: "m", ChannelID: "c1", AuthorID: "u1", Attachments: []Attachment{
				{ContentType: "image/png", URL: "https://cdn/a.png", ProxyURL: "https://media/a.png"},
			}},
			want: "https://media/a.png",
		},
		{
			name: "attachment that is not an image falls through to content",
			event: Event{MessageID: "m", ChannelID: "c1", AuthorID: "u1", Content: "banner", Attachments: []Attachment{
				{ContentType: "application/pdf", ProxyURL: "https://media/a.pdf"},
			}},
			want: "",
		},
		{name: "image url", event: msg("m", "https://img.example/b.gif"), contentType: "image/gif", want: "https://img.example/b.gif", wantCalls: 1},
		{name: "url with params", event: msg("m", "https://img.example/b"), contentType: "image/jpeg; charset=binary", want: "https://img.example/b", wantCalls: 1},
		{name: "non image url", event: msg("m", "https://example.com"), contentType: "text/html", want: "", wantCalls: 1},
		{name: "fetch error", event: msg("m", "https://down.example/x.png"), fetchErr: errBoom, want: "", wantCalls: 1},
		{name: "plain text", event: msg("m", "my banner"), contentType: "image/png", want: "", wantCalls: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			h := newHarness(t, WithHTTPClient(fakeHTTP(tt.contentType, tt.fetchErr, &calls)))

			r := run(t, h, func(ctx context.Context) Result[string] { return h.p.Image(ctx, baseReq) }, tt.event)

			require.True(t, r.OK())
			assert.Equal(t, tt.want, r.Value)
			assert.Equal(t, tt.wantCalls, calls.Load())
		})
	}
}

func TestResult_Err(t *testing.T) {
	assert.NoError(t, ok(3).Err())

	v, err := invalid[int]("bad").Unwrap()
	assert.Zero(t, v)
	assert.True(t, IsInvalid(err))
	assert.Equal(t, "bad", Reason(err))
	assert.Contains(t, err.Error(), "INPUT_INVALID")

	err = timedOut[int]("slow").Err()
	assert.True(t, IsTimeout(err))
	assert.Equal(t, "slow", Reason(err))

	assert.Equal(t, "timeout", Timeout.String())
	assert.False(t, IsTimeout(errBoom))
	assert.Equal(t, "boom", Reason(errBoom))
}
