package input

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeDirectory struct {
	channels map[string]*discordgo.Channel
	roles    map[string]*discordgo.Role
	members  map[string]*discordgo.Member
	perms    int64
	tops     map[string]*discordgo.Role
	owner    string
	botID    string
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		channels: map[string]*discordgo.Channel{},
		roles:    map[string]*discordgo.Role{},
		members:  map[string]*discordgo.Member{},
		tops:     map[string]*discordgo.Role{},
		botID:    "bot",
	}
}

func (d *fakeDirectory) Channel(_ context.Context, _, token string) (*discordgo.Channel, error) {
	if ch, ok := d.channels[token]; ok {
		return ch, nil
	}
	return nil, ErrNotFound
}

func (d *fakeDirectory) Role(_ context.Context, _, token string) (*discordgo.Role, error) {
	if r, ok := d.roles[token]; ok {
		return r, nil
	}
	return nil, ErrNotFound
}

func (d *fakeDirectory) Member(_ context.Context, _, token string) (*discordgo.Member, error) {
	if m, ok := d.members[token]; ok {
		return m, nil
	}
	return nil, ErrNotFound
}

func (d *fakeDirectory) BotPermissions(context.Context, string) (int64, error) {
	return d.perms, nil
}

func (d *fakeDirectory) TopRole(_ context.Context, _, userID string) (*discordgo.Role, error) {
	return d.tops[userID], nil
}

func (d *fakeDirectory) OwnerID(context.Context, string) (string, error) { return d.owner, nil }

func (d *fakeDirectory) BotID() string { return d.botID }

type fakeDeleter struct {
	mu      sync.Mutex
	deleted []string
	err     error
}

func (d *fakeDeleter) DeleteMessage(channelID, messageID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.deleted = append(d.deleted, channelID+"/"+messageID)
	return d.err
}

func (d *fakeDeleter) Deleted() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.deleted...)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// fakeHTTP answers every request with the given content type and counts calls.
func fakeHTTP(contentType string, err error, calls *atomic.Int32) *http.Client {
	return &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		calls.Add(1)
		if err != nil {
			return nil, err
		}
		h := http.Header{}
		h.Set("Content-Type", contentType)
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     h,
			Body:       io.NopCloser(strings.NewReader("")),
			Request:    r,
		}, nil
	})}
}

var errBoom = errors.New("boom")

type harness struct {
	w   *Waiter
	dir *fakeDirectory
	del *fakeDeleter
	p   *Pipeline
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{w: NewWaiter(), dir: newFakeDirectory(), del: &fakeDeleter{}}
	base := []Option{
		WithDeleter(h.del),
		WithLogger(zaptest.NewLogger(t)),
		WithTimeout(time.Second),
		WithLocation(time.UTC),
	}
	h.p = New(h.w, h.dir, append(base, opts...)...)
	return h
}

var baseReq = Request{GuildID: "g1", ChannelID: "c1", RequesterID: "u1"}

// msg builds an event from the requester in the request channel.
func msg(id, content string) Event {
	return Event{MessageID: id, ChannelID: "c1", GuildID: "g1", AuthorID: "u1", Content: content}
}

// run starts call in a goroutine and dispatches events one at a time, each
// only once a subscription is pending.
func run[T any](t *testing.T, h *harness, call func(context.Context) Result[T], events ...Event) Result[T] {
	t.Helper()
	done := make(chan Result[T], 1)
	go func() { done <- call(context.Background()) }()

	for _, ev := range events {
		waitPending(t, h.w, 1)
		h.w.Dispatch(ev)
	}

	select {
	case r := <-done:
		return r
	case <-time.After(3 * time.Second):
		require.FailNow(t, "input request did not finish")
		return Result[T]{}
	}
}
