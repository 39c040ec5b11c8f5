package input

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const DefaultTimeout = 120 * time.Second

// ErrNotFound is returned by a Directory when a token resolves to nothing.
var ErrNotFound = errors.New("input: not found")

// Directory resolves user-typed references against a guild.
type Directory interface {
	Channel(ctx context.Context, guildID, token string) (*discordgo.Channel, error)
	Role(ctx context.Context, guildID, token string) (*discordgo.Role, error)
	Member(ctx context.Context, guildID, token string) (*discordgo.Member, error)

	// BotPermissions returns the bot's effective permission bits in a channel.
	BotPermissions(ctx context.Context, channelID string) (int64, error)
	// TopRole returns the highest role of a member; the @everyone role when
	// the member has none.
	TopRole(ctx context.Context, guildID, userID string) (*discordgo.Role, error)
	OwnerID(ctx context.Context, guildID string) (string, error)
	BotID() string
}

// Deleter removes a chat message.
type Deleter interface {
	DeleteMessage(channelID, messageID string) error
}

// Pipeline runs typed input requests on top of a Waiter.
type Pipeline struct {
	waiter  *Waiter
	dir     Directory
	deleter Deleter
	client  *http.Client
	parser  TimeParser
	loc     *time.Location
	now     func() time.Time
	log     *zap.Logger
	timeout time.Duration
}

type Option func(*Pipeline)

func WithDeleter(d Deleter) Option { return func(p *Pipeline) { p.deleter = d } }

func WithHTTPClient(c *http.Client) Option { return func(p *Pipeline) { p.client = c } }

func WithTimeParser(tp TimeParser) Option { return func(p *Pipeline) { p.parser = tp } }

func WithLocation(loc *time.Location) Option { return func(p *Pipeline) { p.loc = loc } }

func WithClock(now func() time.Time) Option { return func(p *Pipeline) { p.now = now } }

func WithLogger(l *zap.Logger) Option { return func(p *Pipeline) { p.log = l } }

// WithTimeout sets the wait used by requests that leave Timeout at zero.
func WithTimeout(d time.Duration) Option { return func(p *Pipeline) { p.timeout = d } }

func New(w *Waiter, dir Directory, opts ...Option) *Pipeline {
	p := &Pipeline{
		waiter:  w,
		dir:     dir,
		client:  &http.Client{Timeout: 10 * time.Second},
		now:     time.Now,
		log:     zap.NewNop(),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.parser == nil {
		p.parser = NaturalTimeParser()
	}
	if p.loc == nil {
		p.loc = DefaultLocation()
	}
	p.log = p.log.Named("input")
	return p
}

// DefaultLocation is Asia/Kolkata, or a fixed +05:30 zone when tzdata is missing.
func DefaultLocation() *time.Location {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		return time.FixedZone("IST", 5*60*60+30*60)
	}
	return loc
}

// await waits for the first event accepted by match. Timeouts and context
// cancellation both report false.
func (p *Pipeline) await(ctx context.Context, req Request, match Predicate, kind string) (Event, bool) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = p.timeout
	}

	ev, err := p.waiter.Await(ctx, match, timeout)
	if err != nil {
		p.log.Debug("input wait ended without answer",
			zap.String("kind", kind),
			zap.String("channel", req.ChannelID),
			zap.String("requester", req.RequesterID),
			zap.Error(err))
		return Event{}, false
	}

	p.log.Debug("input received",
		zap.String("kind", kind),
		zap.String("channel", ev.ChannelID),
		zap.String("author", ev.AuthorID))
	return ev, true
}

// cleanup deletes the answering message when the request asked for it.
func (p *Pipeline) cleanup(req Request, ev Event) {
	if !req.DeleteAfter || p.deleter == nil || ev.MessageID == "" {
		return
	}
	if err := p.deleter.DeleteMessage(ev.ChannelID, ev.MessageID); err != nil {
		p.log.Debug("failed to delete input message",
			zap.String("channel", ev.ChannelID),
			zap.String("message", ev.MessageID),
			zap.Error(err))
	}
}
