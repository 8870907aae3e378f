package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/dot-css/Palm-Pay-App/internal/errors"
	"github.com/dot-css/Palm-Pay-App/internal/events"
	"github.com/dot-css/Palm-Pay-App/internal/models"
	"github.com/dot-css/Palm-Pay-App/internal/repository"
	"github.com/dot-css/Palm-Pay-App/internal/repository/memory"
	"github.com/dot-css/Palm-Pay-App/pkg/metrics"
)

type transferFixture struct {
	store         *memory.Store
	legs          *memory.TransactionRepository
	notifications *memory.NotificationRepository
	dispatcher    *events.Dispatcher
	svc           *TransferServiceImpl
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTransferFixture() *transferFixture {
	store := memory.NewStore()
	legs := memory.NewTransactionRepository()
	notifications := memory.NewNotificationRepository()
	dispatcher := events.NewDispatcher()
	svc := NewTransferService(store, legs, notifications, dispatcher, metrics.NewCollector(), testLogger())
	return &transferFixture{
		store:         store,
		legs:          legs,
		notifications: notifications,
		dispatcher:    dispatcher,
		svc:           svc,
	}
}

func (f *transferFixture) addAccount(t *testing.T, id, name string, balance int64) {
	t.Helper()
	err := f.store.Create(context.Background(), &models.Account{
		ID:       id,
		Email:    id + "@example.com",
		FullName: name,
		Balance:  balance,
	})
	if err != nil {
		t.Fatalf("failed to seed account %s: %v", id, err)
	}
}

func (f *transferFixture) balance(t *testing.T, id string) int64 {
	t.Helper()
	account, err := f.store.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("failed to read account %s: %v", id, err)
	}
	return account.Balance
}

func TestTransfer_Success(t *testing.T) {
	ctx := context.Background()
	f := newTransferFixture()
	f.addAccount(t, "sender", "Ayesha Khan", 100000)
	f.addAccount(t, "recipient", "Bilal Ahmed", 50000)

	result, err := f.svc.Transfer(ctx, "sender", "recipient", 30000, "rent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.balance(t, "sender") != 70000 {
		t.Errorf("expected sender balance 70000, got %d", f.balance(t, "sender"))
	}
	if f.balance(t, "recipient") != 80000 {
		t.Errorf("expected recipient balance 80000, got %d", f.balance(t, "recipient"))
	}
	if result.SenderBalance != 70000 || result.RecipientBalance != 80000 {
		t.Errorf("result balances wrong: %d / %d", result.SenderBalance, result.RecipientBalance)
	}
	if result.TransferID == "" {
		t.Error("expected a transfer ID")
	}

	senderLegs, _ := f.legs.ListByAccount(ctx, "sender", 10)
	if len(senderLegs) != 1 || senderLegs[0].Direction != models.LegSend || senderLegs[0].Amount != 30000 {
		t.Fatalf("expected one send leg of 30000, got %+v", senderLegs)
	}
	if senderLegs[0].CounterpartyName != "Bilal Ahmed" {
		t.Errorf("expected counterparty snapshot, got %q", senderLegs[0].CounterpartyName)
	}

	recipientLegs, _ := f.legs.ListByAccount(ctx, "recipient", 10)
	if len(recipientLegs) != 1 || recipientLegs[0].Direction != models.LegReceive || recipientLegs[0].Amount != 30000 {
		t.Fatalf("expected one receive leg of 30000, got %+v", recipientLegs)
	}
	if recipientLegs[0].TransferID != senderLegs[0].TransferID {
		t.Error("legs do not share a transfer ID")
	}

	senderNotifs, _ := f.notifications.ListByAccount(ctx, "sender", 10)
	recipientNotifs, _ := f.notifications.ListByAccount(ctx, "recipient", 10)
	if len(senderNotifs) != 1 || len(recipientNotifs) != 1 {
		t.Fatalf("expected one notification each, got %d and %d", len(senderNotifs), len(recipientNotifs))
	}
	if senderNotifs[0].Type != models.NotificationTransferSent {
		t.Errorf("expected sender notification type %q, got %q", models.NotificationTransferSent, senderNotifs[0].Type)
	}
	if !strings.Contains(recipientNotifs[0].Message, "Ayesha Khan") {
		t.Errorf("recipient notification should name the sender, got %q", recipientNotifs[0].Message)
	}
}

func TestTransfer_ConservationOfFunds(t *testing.T) {
	ctx := context.Background()
	f := newTransferFixture()
	f.addAccount(t, "a", "A", 123456)
	f.addAccount(t, "b", "B", 654321)
	before := f.balance(t, "a") + f.balance(t, "b")

	for _, amount := range []int64{1, 99, 12345} {
		if _, err := f.svc.Transfer(ctx, "a", "b", amount, ""); err != nil {
			t.Fatalf("transfer of %d failed: %v", amount, err)
		}
	}

	after := f.balance(t, "a") + f.balance(t, "b")
	if before != after {
		t.Errorf("funds not conserved: before %d, after %d", before, after)
	}
}

func TestTransfer_InsufficientBalance(t *testing.T) {
	ctx := context.Background()
	f := newTransferFixture()
	f.addAccount(t, "sender", "A", 10000)
	f.addAccount(t, "recipient", "B", 0)

	_, err := f.svc.Transfer(ctx, "sender", "recipient", 15000, "")
	if !errors.IsInsufficientBalance(err) {
		t.Fatalf("expected insufficient balance error, got %v", err)
	}

	if f.balance(t, "sender") != 10000 {
		t.Errorf("sender balance changed: %d", f.balance(t, "sender"))
	}
	if f.balance(t, "recipient") != 0 {
		t.Errorf("recipient balance changed: %d", f.balance(t, "recipient"))
	}
	if legs, _ := f.legs.ListByAccount(ctx, "sender", 10); len(legs) != 0 {
		t.Errorf("expected no legs, got %d", len(legs))
	}
	if notifs, _ := f.notifications.ListByAccount(ctx, "sender", 10); len(notifs) != 0 {
		t.Errorf("expected no notifications, got %d", len(notifs))
	}
}

func TestTransfer_AccountNotFound(t *testing.T) {
	ctx := context.Background()

	t.Run("missing recipient", func(t *testing.T) {
		f := newTransferFixture()
		f.addAccount(t, "sender", "A", 10000)

		_, err := f.svc.Transfer(ctx, "sender", "ghost", 100, "")
		if !errors.IsNotFound(err) {
			t.Fatalf("expected account not found, got %v", err)
		}
		if f.balance(t, "sender") != 10000 {
			t.Errorf("sender balance changed: %d", f.balance(t, "sender"))
		}
		if legs, _ := f.legs.ListByAccount(ctx, "sender", 10); len(legs) != 0 {
			t.Errorf("expected no legs, got %d", len(legs))
		}
	})

	t.Run("missing sender", func(t *testing.T) {
		f := newTransferFixture()
		f.addAccount(t, "recipient", "B", 0)

		_, err := f.svc.Transfer(ctx, "ghost", "recipient", 100, "")
		if !errors.IsNotFound(err) {
			t.Fatalf("expected account not found, got %v", err)
		}
		if f.balance(t, "recipient") != 0 {
			t.Errorf("recipient balance changed: %d", f.balance(t, "recipient"))
		}
	})
}

// countingStore records whether the atomic store was ever touched.
type countingStore struct {
	inner repository.AtomicStore
	calls int
}

func (c *countingStore) RunAtomic(ctx context.Context, fn func(tx repository.AccountTx) error) error {
	c.calls++
	return c.inner.RunAtomic(ctx, fn)
}

func TestTransfer_ValidationRejectedBeforeStore(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	counting := &countingStore{inner: store}
	svc := NewTransferService(counting, memory.NewTransactionRepository(), memory.NewNotificationRepository(),
		events.NewDispatcher(), metrics.NewCollector(), testLogger())

	cases := []struct {
		name        string
		sender      string
		recipient   string
		amount      int64
		note        string
		wantErr     error
		wantIsValid bool
	}{
		{name: "self transfer", sender: "a", recipient: "a", amount: 100, wantErr: errors.ErrSelfTransfer},
		{name: "zero amount", sender: "a", recipient: "b", amount: 0, wantErr: errors.ErrInvalidAmount},
		{name: "negative amount", sender: "a", recipient: "b", amount: -5, wantErr: errors.ErrInvalidAmount},
		{name: "oversized note", sender: "a", recipient: "b", amount: 100, note: strings.Repeat("x", MaxNoteLength+1), wantErr: errors.ErrNoteTooLong},
		{name: "empty sender", sender: "", recipient: "b", amount: 100, wantIsValid: true},
		{name: "empty recipient", sender: "a", recipient: "", amount: 100, wantIsValid: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Transfer(ctx, tc.sender, tc.recipient, tc.amount, tc.note)
			if tc.wantIsValid {
				if !errors.IsValidationError(err) {
					t.Fatalf("expected validation error, got %v", err)
				}
			} else if err != tc.wantErr {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}

	if counting.calls != 0 {
		t.Errorf("store touched %d times for invalid requests", counting.calls)
	}
}

func TestTransfer_NoteAtLimitAccepted(t *testing.T) {
	ctx := context.Background()
	f := newTransferFixture()
	f.addAccount(t, "a", "A", 1000)
	f.addAccount(t, "b", "B", 0)

	if _, err := f.svc.Transfer(ctx, "a", "b", 100, strings.Repeat("x", MaxNoteLength)); err != nil {
		t.Fatalf("note at limit should pass: %v", err)
	}
}

func TestTransfer_LegAppendIsIdempotent(t *testing.T) {
	ctx := context.Background()
	legs := memory.NewTransactionRepository()

	leg := &models.TransactionLeg{
		AccountID:  "a",
		TransferID: "transfer-1",
		Direction:  models.LegSend,
		Amount:     500,
		Status:     models.LegStatusCompleted,
	}
	if err := legs.AppendLeg(ctx, leg); err != nil {
		t.Fatalf("first append failed: %v", err)
	}

	retry := &models.TransactionLeg{
		AccountID:  "a",
		TransferID: "transfer-1",
		Direction:  models.LegSend,
		Amount:     500,
		Status:     models.LegStatusCompleted,
	}
	if err := legs.AppendLeg(ctx, retry); err != nil {
		t.Fatalf("retried append failed: %v", err)
	}

	stored, _ := legs.ListByAccount(ctx, "a", 10)
	if len(stored) != 1 {
		t.Fatalf("expected one leg after retry, got %d", len(stored))
	}
}

type failingLegRepo struct{}

func (failingLegRepo) AppendLeg(ctx context.Context, leg *models.TransactionLeg) error {
	return fmt.Errorf("leg store is down")
}

func (failingLegRepo) ListByAccount(ctx context.Context, accountID string, limit int) ([]*models.TransactionLeg, error) {
	return nil, nil
}

type failingNotificationRepo struct{}

func (failingNotificationRepo) Append(ctx context.Context, n *models.Notification) error {
	return fmt.Errorf("notification store is down")
}

func (failingNotificationRepo) ListByAccount(ctx context.Context, accountID string, limit int) ([]*models.Notification, error) {
	return nil, nil
}

func (failingNotificationRepo) MarkRead(ctx context.Context, accountID, id string) error {
	return nil
}

func TestTransfer_PostCommitFailuresDoNotFailTransfer(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewTransferService(store, failingLegRepo{}, failingNotificationRepo{},
		events.NewDispatcher(), metrics.NewCollector(), testLogger())

	seed := func(id string, balance int64) {
		store.Create(ctx, &models.Account{ID: id, Email: id + "@example.com", FullName: id, Balance: balance})
	}
	seed("a", 1000)
	seed("b", 0)

	result, err := svc.Transfer(ctx, "a", "b", 400, "")
	if err != nil {
		t.Fatalf("transfer must succeed despite audit failures: %v", err)
	}
	if result.SenderBalance != 600 {
		t.Errorf("expected sender balance 600, got %d", result.SenderBalance)
	}

	a, _ := store.GetByID(ctx, "a")
	b, _ := store.GetByID(ctx, "b")
	if a.Balance != 600 || b.Balance != 400 {
		t.Errorf("balances not committed: %d / %d", a.Balance, b.Balance)
	}
}

func TestTransfer_ConcurrentTransfersNeverOverdraw(t *testing.T) {
	ctx := context.Background()
	f := newTransferFixture()
	f.addAccount(t, "sender", "A", 1000)
	f.addAccount(t, "r1", "B", 0)
	f.addAccount(t, "r2", "C", 0)

	// Each transfer is individually within balance; together they exceed it.
	var wg sync.WaitGroup
	results := make([]error, 2)
	recipients := []string{"r1", "r2"}
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = f.svc.Transfer(ctx, "sender", recipients[i], 600, "")
		}(i)
	}
	wg.Wait()

	var successes, insufficient int
	for _, err := range results {
		switch {
		case err == nil:
			successes++
		case errors.IsInsufficientBalance(err):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 || insufficient != 1 {
		t.Fatalf("expected exactly one success and one insufficient-balance failure, got %d and %d", successes, insufficient)
	}

	final := f.balance(t, "sender")
	if final < 0 {
		t.Fatalf("sender balance went negative: %d", final)
	}
	if final != 400 {
		t.Errorf("expected final sender balance 400, got %d", final)
	}
	if f.balance(t, "r1")+f.balance(t, "r2") != 600 {
		t.Errorf("recipients received %d in total, want 600", f.balance(t, "r1")+f.balance(t, "r2"))
	}
}

func TestTransfer_PublishesEvents(t *testing.T) {
	ctx := context.Background()
	f := newTransferFixture()
	f.addAccount(t, "sender", "A", 1000)
	f.addAccount(t, "recipient", "B", 0)

	sub := f.dispatcher.Subscribe("recipient")
	defer sub.Close()

	if _, err := f.svc.Transfer(ctx, "sender", "recipient", 250, ""); err != nil {
		t.Fatalf("transfer failed: %v", err)
	}

	kinds := make(map[events.Kind]bool)
	for len(sub.C) > 0 {
		ev := <-sub.C
		kinds[ev.Kind] = true
	}
	for _, want := range []events.Kind{events.KindBalanceUpdated, events.KindTransactionRecorded, events.KindNotificationCreated} {
		if !kinds[want] {
			t.Errorf("missing %s event for recipient", want)
		}
	}
}
