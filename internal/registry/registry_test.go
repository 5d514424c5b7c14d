package registry

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/blues/crowdcampaign/internal/access"
	"github.com/blues/crowdcampaign/internal/campaign"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	factory  = common.HexToAddress("0x00000000000000000000000000000000000000f1")
	ownerA   = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	ownerB   = common.HexToAddress("0x00000000000000000000000000000000000000a2")
	receiver = common.HexToAddress("0x00000000000000000000000000000000000000d1")
)

type fakeTransferer struct {
	mu    sync.Mutex
	total int64
}

func (f *fakeTransferer) Transfer(ctx context.Context, from, to common.Address, amount int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.total += amount
	return nil
}

func input(name string) campaign.CreateInput {
	return campaign.CreateInput{
		Name:                    name,
		Description:             "desc",
		ExampleContentRefs:      []string{"r1"},
		MinimumContentThreshold: 5,
	}
}

func newRegistry() (*Registry, *fakeTransferer) {
	tr := &fakeTransferer{}
	return New(Options{Factory: factory, Transferer: tr}), tr
}

func TestCreateDerivesHandles(t *testing.T) {
	r, _ := newRegistry()

	first, err := r.Create(ownerA, input("one"), 10)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := r.Create(ownerA, input("two"), 10)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if first.Handle() != crypto.CreateAddress(factory, 0) {
		t.Fatalf("expected first handle from nonce 0, got %s", first.Handle().Hex())
	}
	if second.Handle() != crypto.CreateAddress(factory, 1) {
		t.Fatalf("expected second handle from nonce 1, got %s", second.Handle().Hex())
	}
	if !r.IsKnown(first.Handle()) || !r.IsKnown(second.Handle()) {
		t.Fatal("expected created handles known")
	}
	if r.IsKnown(receiver) {
		t.Fatal("expected foreign address unknown")
	}
}

func TestCreateFailureKeepsNonce(t *testing.T) {
	r, _ := newRegistry()

	if _, err := r.Create(ownerA, input(""), 10); !errors.Is(err, campaign.ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	c, err := r.Create(ownerA, input("ok"), 10)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.Handle() != crypto.CreateAddress(factory, 0) {
		t.Fatalf("expected failed create not to consume a nonce")
	}
	if r.Len() != 1 {
		t.Fatalf("expected 1 campaign, got %d", r.Len())
	}
}

func TestCreateWhilePaused(t *testing.T) {
	pause := access.NewPauseSwitch(true)
	r := New(Options{Factory: factory, Pause: pause, Transferer: &fakeTransferer{}})
	if _, err := r.Create(ownerA, input("x"), 10); !errors.Is(err, campaign.ErrPaused) {
		t.Fatalf("expected ErrPaused, got %v", err)
	}
}

func TestOwnerIndex(t *testing.T) {
	r, _ := newRegistry()
	a1, _ := r.Create(ownerA, input("a1"), 10)
	b1, _ := r.Create(ownerB, input("b1"), 10)
	a2, _ := r.Create(ownerA, input("a2"), 10)

	got := r.ByOwner(ownerA)
	if len(got) != 2 || got[0] != a1.Handle() || got[1] != a2.Handle() {
		t.Fatalf("unexpected owner index %v", got)
	}
	if got := r.ByOwner(ownerB); len(got) != 1 || got[0] != b1.Handle() {
		t.Fatalf("unexpected owner index %v", got)
	}

	list := r.List()
	if len(list) != 3 || list[1].Handle() != b1.Handle() {
		t.Fatalf("expected creation order in list")
	}
}

func TestCloseRequiresOwner(t *testing.T) {
	r, tr := newRegistry()
	c, _ := r.Create(ownerA, input("x"), 10)
	ctx := context.Background()

	if _, err := r.Close(ctx, ownerB, c.Handle(), receiver); !errors.Is(err, campaign.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if _, err := r.Close(ctx, ownerA, receiver, receiver); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	d, err := r.Close(ctx, ownerA, c.Handle(), receiver)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if d.Amount != 10 || tr.total != 10 {
		t.Fatalf("expected 10 disbursed, got %d", tr.total)
	}

	details, err := r.Details(c.Handle())
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	if details.Phase != campaign.PhaseClosed || details.RewardPool != 0 {
		t.Fatalf("unexpected details after close %+v", details)
	}
}

func TestCancelRequiresOwner(t *testing.T) {
	r, _ := newRegistry()
	c, _ := r.Create(ownerA, input("x"), 10)

	if err := r.Cancel(ownerB, c.Handle()); !errors.Is(err, campaign.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if err := r.Cancel(ownerA, c.Handle()); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if c.Phase() != campaign.PhaseClosed {
		t.Fatalf("expected closed, got %s", c.Phase())
	}
}

func TestPauseAppliesToCampaigns(t *testing.T) {
	r, _ := newRegistry()
	c, _ := r.Create(ownerA, input("x"), 10)

	r.Pause().Pause()
	if _, err := c.Start(ownerA, 7); !errors.Is(err, campaign.ErrPaused) {
		t.Fatalf("expected ErrPaused, got %v", err)
	}
	r.Pause().Unpause()
	if _, err := c.Start(ownerA, 7); err != nil {
		t.Fatalf("start: %v", err)
	}
}

func TestRestore(t *testing.T) {
	r, _ := newRegistry()
	c, _ := r.Create(ownerA, input("x"), 10)
	state := c.Snapshot()

	fresh, _ := newRegistry()
	if _, err := fresh.Restore(state); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if _, err := fresh.Restore(state); !errors.Is(err, ErrDuplicateHandle) {
		t.Fatalf("expected ErrDuplicateHandle, got %v", err)
	}
	if got := fresh.ByOwner(ownerA); len(got) != 1 || got[0] != state.Handle {
		t.Fatalf("expected restored owner index, got %v", got)
	}

	next, err := fresh.Create(ownerB, input("y"), 10)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if next.Handle() == state.Handle {
		t.Fatal("expected new handle not to collide with restored one")
	}
}

func TestOnCreateFailureDiscardsCampaign(t *testing.T) {
	fail := errors.New("projection unavailable")
	r := New(Options{
		Factory:    factory,
		Transferer: &fakeTransferer{},
		OnCreate:   func(*campaign.Campaign) error { return fail },
	})

	if _, err := r.Create(ownerA, input("x"), 10); !errors.Is(err, fail) {
		t.Fatalf("expected hook error, got %v", err)
	}
	if r.Len() != 0 || r.IsKnown(crypto.CreateAddress(factory, 0)) {
		t.Fatal("expected campaign discarded")
	}
}
