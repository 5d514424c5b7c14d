package campaign

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

func TestStartDuration(t *testing.T) {
	for _, days := range []int64{0, 1, 6} {
		f := newFixture(t, defaultInput(), 10)
		_, err := f.campaign.Start(testOwner, days)
		if !errors.Is(err, ErrDurationTooShort) {
			t.Fatalf("days=%d: expected ErrDurationTooShort, got %v", days, err)
		}
		assertKind(t, err, ErrValidation)
		if f.campaign.Phase() != PhaseCreated {
			t.Fatalf("days=%d: expected phase unchanged, got %s", days, f.campaign.Phase())
		}
	}

	f := newFixture(t, defaultInput(), 10)
	endTime, err := f.campaign.Start(testOwner, 7)
	if err != nil {
		t.Fatalf("start 7 days: %v", err)
	}
	want := f.clock.Now().Add(7 * 24 * time.Hour)
	if !endTime.Equal(want) {
		t.Fatalf("expected end time %v, got %v", want, endTime)
	}
	if f.campaign.Phase() != PhaseActive {
		t.Fatalf("expected active, got %s", f.campaign.Phase())
	}
	if f.campaign.Details().DurationDays != 7 {
		t.Fatalf("expected duration 7, got %d", f.campaign.Details().DurationDays)
	}
	if f.campaign.RewardPool() != 10 {
		t.Fatalf("expected start to leave pool untouched, got %d", f.campaign.RewardPool())
	}
}

func TestStartTooLong(t *testing.T) {
	f := newFixture(t, defaultInput(), 10)
	_, err := f.campaign.Start(testOwner, MaxDurationDays+1)
	assertKind(t, err, ErrValidation)
}

func TestStartOnlyOnce(t *testing.T) {
	f := newFixture(t, defaultInput(), 10)
	f.mustStart(t, 7)

	_, err := f.campaign.Start(testOwner, 30)
	if !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("expected ErrAlreadyStarted, got %v", err)
	}
	assertKind(t, err, ErrState)
	if f.campaign.Details().DurationDays != 7 {
		t.Fatalf("expected duration to stay 7")
	}
}

func TestStartGuards(t *testing.T) {
	f := newFixture(t, defaultInput(), 10)
	if _, err := f.campaign.Start(testStranger, 7); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}

	f.gate.paused = true
	if _, err := f.campaign.Start(testOwner, 7); !errors.Is(err, ErrPaused) {
		t.Fatalf("expected ErrPaused, got %v", err)
	}
	f.gate.paused = false

	if err := f.campaign.Cancel(testOwner); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	_, err := f.campaign.Start(testOwner, 7)
	assertKind(t, err, ErrState)
}

func TestStartEmitsEvent(t *testing.T) {
	f := newFixture(t, defaultInput(), 10)
	endTime, err := f.campaign.Start(testOwner, 10)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(f.events.events) != 1 {
		t.Fatalf("expected one event, got %d", len(f.events.events))
	}
	e := f.events.events[0]
	if e.Type != EventCampaignStarted || e.Owner != testOwner || !e.EndTime.Equal(endTime) {
		t.Fatalf("unexpected event %+v", e)
	}
}

func TestCloseEligibility(t *testing.T) {
	input := defaultInput()
	input.MinimumContentThreshold = 10

	tests := []struct {
		name      string
		submitted int
		wantErr   error
	}{
		{name: "70 percent closes", submitted: 7},
		{name: "80 percent is performing", submitted: 8, wantErr: ErrCampaignSucceeding},
		{name: "100 percent is performing", submitted: 10, wantErr: ErrCampaignSucceeding},
		{name: "nothing submitted closes", submitted: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, input, 10)
			f.mustRegister(t, testAlice)
			f.mustStart(t, 7)
			f.mustSubmit(t, testAlice, tt.submitted)

			_, err := f.campaign.Close(context.Background(), testOwner, testReceiver)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				assertKind(t, err, ErrState)
				if f.campaign.Phase() != PhaseActive || f.campaign.RewardPool() != 10 {
					t.Fatalf("expected no state change after rejected close")
				}
				if len(f.transferer.calls) != 0 {
					t.Fatalf("expected no transfer, got %d", len(f.transferer.calls))
				}
				return
			}
			if err != nil {
				t.Fatalf("close: %v", err)
			}
			if f.campaign.Phase() != PhaseClosed {
				t.Fatalf("expected closed, got %s", f.campaign.Phase())
			}
		})
	}
}

func TestCloseBeforeStart(t *testing.T) {
	f := newFixture(t, defaultInput(), 42)
	d, err := f.campaign.Close(context.Background(), testOwner, testReceiver)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if d.Amount != 42 || d.Receiver != testReceiver {
		t.Fatalf("unexpected disbursement %+v", d)
	}
	if f.campaign.Phase() != PhaseClosed || f.campaign.RewardPool() != 0 {
		t.Fatalf("expected closed with empty pool")
	}
}

func TestCloseGuards(t *testing.T) {
	f := newFixture(t, defaultInput(), 10)
	ctx := context.Background()

	if _, err := f.campaign.Close(ctx, testStranger, testReceiver); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	f.gate.paused = true
	if _, err := f.campaign.Close(ctx, testOwner, testReceiver); !errors.Is(err, ErrPaused) {
		t.Fatalf("expected ErrPaused, got %v", err)
	}
	f.gate.paused = false
	if _, err := f.campaign.Close(ctx, testOwner, common.Address{}); !errors.Is(err, ErrInvalidReceiver) {
		t.Fatalf("expected ErrInvalidReceiver, got %v", err)
	}
	if f.campaign.RewardPool() != 10 || f.campaign.Phase() != PhaseCreated {
		t.Fatalf("expected no state change after rejected closes")
	}
}

func TestEndToEndScenario(t *testing.T) {
	f := newFixture(t, CreateInput{
		Name:                    "Night market",
		Description:             "Stalls after dark",
		ExampleContentRefs:      []string{"r1"},
		MinimumContentThreshold: 5,
	}, 10)
	ctx := context.Background()

	f.mustStart(t, 7)
	f.mustRegister(t, testAlice, testBob)
	f.mustSubmit(t, testAlice, 1)
	f.mustSubmit(t, testBob, 2)

	if got := f.campaign.Details().SubmittedCount; got != 3 {
		t.Fatalf("expected 3 submissions, got %d", got)
	}

	d, err := f.campaign.Close(ctx, testOwner, testReceiver)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if d.Amount != 10 {
		t.Fatalf("expected amount 10, got %d", d.Amount)
	}
	if f.campaign.RewardPool() != 0 {
		t.Fatalf("expected empty pool, got %d", f.campaign.RewardPool())
	}
	if f.transferer.balances[testReceiver] != 10 {
		t.Fatalf("expected receiver balance 10, got %d", f.transferer.balances[testReceiver])
	}
	if f.campaign.Phase() != PhaseClosed {
		t.Fatalf("expected closed, got %s", f.campaign.Phase())
	}

	_, err = f.campaign.Close(ctx, testOwner, testReceiver)
	if !errors.Is(err, ErrAlreadyClosed) {
		t.Fatalf("expected ErrAlreadyClosed, got %v", err)
	}
	if f.transferer.total() != 10 {
		t.Fatalf("expected total disbursed 10, got %d", f.transferer.total())
	}

	want := []EventType{
		EventCampaignStarted,
		EventContributorRegistered,
		EventContributorRegistered,
		EventContentSubmitted,
		EventContentSubmitted,
		EventContentSubmitted,
		EventCampaignClosed,
	}
	if got := f.events.types(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected events %v, got %v", want, got)
	}
	last := f.events.events[len(f.events.events)-1]
	if last.Receiver != testReceiver || last.Amount != 10 {
		t.Fatalf("unexpected close event %+v", last)
	}
}

func TestCancel(t *testing.T) {
	f := newFixture(t, defaultInput(), 10)
	f.mustStart(t, 7)

	if err := f.campaign.Cancel(testStranger); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if err := f.campaign.Cancel(testOwner); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if f.campaign.Phase() != PhaseClosed {
		t.Fatalf("expected closed, got %s", f.campaign.Phase())
	}
	if f.campaign.RewardPool() != 10 {
		t.Fatalf("expected cancel to keep pool, got %d", f.campaign.RewardPool())
	}
	if len(f.transferer.calls) != 0 {
		t.Fatalf("expected no transfer on cancel")
	}
	if err := f.campaign.Cancel(testOwner); !errors.Is(err, ErrAlreadyClosed) {
		t.Fatalf("expected ErrAlreadyClosed, got %v", err)
	}
	if _, err := f.campaign.Close(context.Background(), testOwner, testReceiver); !errors.Is(err, ErrAlreadyClosed) {
		t.Fatalf("expected close after cancel to fail, got %v", err)
	}
	if got := f.events.types(); got[len(got)-1] != EventCampaignCanceled {
		t.Fatalf("expected cancel event, got %v", got)
	}
}

func TestCanClose(t *testing.T) {
	f := newFixture(t, defaultInput(), 10)
	if err := f.campaign.CanClose(testOwner); err != nil {
		t.Fatalf("expected created campaign closable, got %v", err)
	}
	if err := f.campaign.CanClose(testStranger); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
}

func TestCancelWhilePaused(t *testing.T) {
	f := newFixture(t, defaultInput(), 10)
	f.mustStart(t, 7)
	f.gate.paused = true

	err := f.campaign.Cancel(testOwner)
	if !errors.Is(err, ErrPaused) {
		t.Fatalf("expected ErrPaused, got %v", err)
	}
	assertKind(t, err, ErrState)
	if f.campaign.Phase() != PhaseActive {
		t.Fatalf("expected phase unchanged, got %s", f.campaign.Phase())
	}
	if got := f.events.types(); got[len(got)-1] != EventCampaignStarted {
		t.Fatalf("expected no cancel event while paused, got %v", got)
	}

	f.gate.paused = false
	if err := f.campaign.Cancel(testOwner); err != nil {
		t.Fatalf("cancel after unpause: %v", err)
	}
}
