package campaign

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestCloseReentrancy(t *testing.T) {
	f := newFixture(t, defaultInput(), 10)
	ctx := context.Background()

	var reentrant error
	calls := 0
	f.transferer.hook = func() {
		calls++
		if calls > 1 {
			return
		}
		if f.campaign.Phase() != PhaseClosed || f.campaign.RewardPool() != 0 {
			t.Errorf("expected effects committed before transfer, got phase %s pool %d", f.campaign.Phase(), f.campaign.RewardPool())
		}
		_, reentrant = f.campaign.Close(ctx, testOwner, testReceiver)
	}

	d, err := f.campaign.Close(ctx, testOwner, testReceiver)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if !errors.Is(reentrant, ErrAlreadyClosed) {
		t.Fatalf("expected reentrant close rejected with ErrAlreadyClosed, got %v", reentrant)
	}
	if d.Amount != 10 || f.transferer.total() != 10 {
		t.Fatalf("expected exactly the deposit disbursed, got %d", f.transferer.total())
	}
	if calls != 1 {
		t.Fatalf("expected a single transfer attempt, got %d", calls)
	}
}

func TestCloseReentrantMutations(t *testing.T) {
	f := newFixture(t, defaultInput(), 10)
	f.mustRegister(t, testAlice)
	f.mustStart(t, 7)

	var errs []error
	f.transferer.hook = func() {
		errs = append(errs,
			f.campaign.Register(testBob),
			f.campaign.SubmitContent(testAlice, "ipfs://x"),
			f.campaign.Cancel(testOwner),
		)
		_, startErr := f.campaign.Start(testOwner, 7)
		errs = append(errs, startErr)
	}

	if _, err := f.campaign.Close(context.Background(), testOwner, testReceiver); err != nil {
		t.Fatalf("close: %v", err)
	}
	for i, err := range errs {
		if !errors.Is(err, ErrAlreadyClosed) {
			t.Fatalf("reentrant call %d: expected ErrAlreadyClosed, got %v", i, err)
		}
	}
}

func TestCloseTransferFailureRollsBack(t *testing.T) {
	f := newFixture(t, defaultInput(), 10)
	f.mustStart(t, 7)
	f.transferer.err = errors.New("receiver rejected value")

	_, err := f.campaign.Close(context.Background(), testOwner, testReceiver)
	assertKind(t, err, ErrTransfer)
	if f.campaign.Phase() != PhaseActive {
		t.Fatalf("expected phase restored to active, got %s", f.campaign.Phase())
	}
	if f.campaign.RewardPool() != 10 {
		t.Fatalf("expected pool restored to 10, got %d", f.campaign.RewardPool())
	}
	for _, typ := range f.events.types() {
		if typ == EventCampaignClosed {
			t.Fatal("expected no close event after failed transfer")
		}
	}

	f.transferer.err = nil
	d, err := f.campaign.Close(context.Background(), testOwner, testReceiver)
	if err != nil {
		t.Fatalf("retry close: %v", err)
	}
	if d.Amount != 10 || f.transferer.balances[testReceiver] != 10 {
		t.Fatalf("expected retry to disburse 10, got %d", f.transferer.balances[testReceiver])
	}
}

func TestConcurrentClose(t *testing.T) {
	f := newFixture(t, defaultInput(), 10)
	ctx := context.Background()

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.campaign.Close(ctx, testOwner, testReceiver); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 {
		t.Fatalf("expected exactly one close to succeed, got %d", succeeded)
	}
	if f.transferer.total() != 10 {
		t.Fatalf("expected total disbursed 10, got %d", f.transferer.total())
	}
}

func TestNothingToDisburse(t *testing.T) {
	f := newFixture(t, defaultInput(), 10)
	state := f.campaign.Snapshot()
	state.Phase = PhaseClosed
	state.RewardPool = 0
	closed, err := Restore(state, Dependencies{Gate: f.gate, Transferer: f.transferer})
	if err != nil {
		t.Fatalf("restore: %v", err)
	}

	closed.mu.Lock()
	closed.phase = PhaseCreated
	_, err = closed.reserve()
	closed.mu.Unlock()
	if !errors.Is(err, ErrNothingToDisburse) {
		t.Fatalf("expected ErrNothingToDisburse, got %v", err)
	}
	assertKind(t, err, ErrValidation)
}

func TestDepositRejected(t *testing.T) {
	f := newFixture(t, defaultInput(), 10)
	err := f.campaign.Deposit(testAlice, 5)
	if !errors.Is(err, ErrDepositRejected) {
		t.Fatalf("expected ErrDepositRejected, got %v", err)
	}
	if f.campaign.RewardPool() != 10 {
		t.Fatalf("expected pool unchanged, got %d", f.campaign.RewardPool())
	}
}
