package campaign

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

var (
	testHandle   = common.HexToAddress("0x00000000000000000000000000000000000000c1")
	testOwner    = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	testStranger = common.HexToAddress("0x00000000000000000000000000000000000000e1")
	testAlice    = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	testBob      = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	testReceiver = common.HexToAddress("0x00000000000000000000000000000000000000d1")
)

type testGate struct {
	owner  common.Address
	paused bool
}

func (g *testGate) IsOwner(caller common.Address) bool { return caller == g.owner }
func (g *testGate) IsPaused() bool                     { return g.paused }

type transferCall struct {
	from, to common.Address
	amount   int64
}

type testTransferer struct {
	mu       sync.Mutex
	calls    []transferCall
	balances map[common.Address]int64
	err      error
	hook     func()
}

func newTestTransferer() *testTransferer {
	return &testTransferer{balances: make(map[common.Address]int64)}
}

func (t *testTransferer) Transfer(ctx context.Context, from, to common.Address, amount int64) error {
	if t.hook != nil {
		t.hook()
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return t.err
	}
	t.calls = append(t.calls, transferCall{from: from, to: to, amount: amount})
	t.balances[to] += amount
	return nil
}

func (t *testTransferer) total() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	var sum int64
	for _, c := range t.calls {
		sum += c.amount
	}
	return sum
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 1, 23, 10, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Notify(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

type fixture struct {
	campaign   *Campaign
	gate       *testGate
	transferer *testTransferer
	clock      *testClock
	events     *recorder
}

func defaultInput() CreateInput {
	return CreateInput{
		Name:                    "Street photos",
		Description:             "Photos of city streets at night",
		ExampleContentRefs:      []string{"ipfs://r1"},
		MinimumContentThreshold: 5,
	}
}

func newFixture(t *testing.T, input CreateInput, deposit int64) *fixture {
	t.Helper()
	f := &fixture{
		gate:       &testGate{owner: testOwner},
		transferer: newTestTransferer(),
		clock:      newTestClock(),
		events:     &recorder{},
	}
	c, err := New(testHandle, testOwner, input, deposit, Dependencies{
		Gate:       f.gate,
		Transferer: f.transferer,
		Notifier:   f.events,
		Now:        f.clock.Now,
	})
	if err != nil {
		t.Fatalf("new campaign: %v", err)
	}
	f.campaign = c
	return f
}

func (f *fixture) mustStart(t *testing.T, days int64) {
	t.Helper()
	if _, err := f.campaign.Start(testOwner, days); err != nil {
		t.Fatalf("start: %v", err)
	}
}

func (f *fixture) mustRegister(t *testing.T, ids ...common.Address) {
	t.Helper()
	for _, id := range ids {
		if err := f.campaign.Register(id); err != nil {
			t.Fatalf("register %s: %v", id.Hex(), err)
		}
	}
}

func (f *fixture) mustSubmit(t *testing.T, id common.Address, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := f.campaign.SubmitContent(id, "ipfs://content"); err != nil {
			t.Fatalf("submit %s #%d: %v", id.Hex(), i, err)
		}
	}
}

func assertKind(t *testing.T, err error, kind *Error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind.Kind)
	}
	if !errors.Is(err, kind) {
		t.Fatalf("expected %s error, got %v", kind.Kind, err)
	}
}
