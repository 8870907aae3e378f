// Package events is the in-process change feed. The write paths (transfer
// commit, notification append) publish here at creation time, so interested
// parties never have to re-fetch and diff collections to discover what is new.
package events

import (
	"sync"
	"time"
)

type Kind string

const (
	KindBalanceUpdated      Kind = "balance_updated"
	KindTransactionRecorded Kind = "transaction_recorded"
	KindNotificationCreated Kind = "notification_created"
)

type Event struct {
	Kind       Kind      `json:"kind"`
	AccountID  string    `json:"account_id"`
	TransferID string    `json:"transfer_id,omitempty"`
	Amount     int64     `json:"amount,omitempty"`
	Title      string    `json:"title,omitempty"`
	Message    string    `json:"message,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Subscription is an owned handle to one account's event stream. Close must
// be called when the consumer goes away; after Close the channel is closed.
type Subscription struct {
	C <-chan Event

	once   sync.Once
	cancel func()
}

func (s *Subscription) Close() {
	s.once.Do(s.cancel)
}

type Dispatcher struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]chan Event
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{subs: make(map[string]map[int]chan Event)}
}

const subscriberBuffer = 16

// Subscribe registers for events about one account. The returned handle owns
// the registration; dropping it without Close leaks the slot, so callers
// defer Close for the lifetime of whatever view they are serving.
func (d *Dispatcher) Subscribe(accountID string) *Subscription {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := d.nextID
	d.nextID++

	ch := make(chan Event, subscriberBuffer)
	if d.subs[accountID] == nil {
		d.subs[accountID] = make(map[int]chan Event)
	}
	d.subs[accountID][id] = ch

	return &Subscription{
		C: ch,
		cancel: func() {
			d.mu.Lock()
			defer d.mu.Unlock()
			if set, ok := d.subs[accountID]; ok {
				if c, ok := set[id]; ok {
					delete(set, id)
					close(c)
				}
				if len(set) == 0 {
					delete(d.subs, accountID)
				}
			}
		},
	}
}

// Publish delivers ev to every subscriber of ev.AccountID. A subscriber that
// has fallen behind its buffer loses the event; publishers never block.
func (d *Dispatcher) Publish(ev Event) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now()
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, ch := range d.subs[ev.AccountID] {
		select {
		case ch <- ev:
		default:
		}
	}
}

// SubscriberCount reports how many live subscriptions an account has.
func (d *Dispatcher) SubscriberCount(accountID string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.subs[accountID])
}
