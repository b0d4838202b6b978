// Package feed keeps one room's message history in sync between a message
// store and a presentation layer, and submits messages on a user's behalf.
package feed

import (
	"context"
	"flash-chat/contract"
	"flash-chat/domain"
	"flash-chat/errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Dispatcher runs fn on the context the presentation layer renders from and
// returns once fn has completed.
type Dispatcher func(fn func())

func inline(fn func()) { fn() }

// Callbacks are the presentation hooks of one activation. Nil hooks are skipped.
type Callbacks struct {
	// OnUpdate receives the room's full ordered list after every store delivery.
	OnUpdate func(messages []domain.Message)
	// OnError receives a *errors.SubscriptionError; the list is left as it was.
	OnError func(err error)
	// OnSent runs after a successful Send, typically to clear the input.
	OnSent func()
}

type Option func(*ChatFeedController)

// WithDispatcher marshals every callback through d.
func WithDispatcher(d Dispatcher) Option {
	return func(c *ChatFeedController) {
		if d != nil {
			c.dispatch = d
		}
	}
}

// activation is the state owned by one subscription.
type activation struct {
	generation uint64
	room       domain.RoomID
	callbacks  Callbacks
	cancel     context.CancelFunc
	done       chan struct{}
	messages   []domain.Message
}

// ChatFeedController mirrors one room of a contract.MessageStore.
//
// The delivery goroutine of the current activation is the only writer of the
// message list; Send never touches it, so the list always equals the last
// delivery the store made.
type ChatFeedController struct {
	store    contract.MessageStore
	log      *slog.Logger
	dispatch Dispatcher

	mu         sync.Mutex
	generation uint64
	active     *activation
	// draining is the activation a Deactivate is tearing down; concurrent
	// callers join it instead of returning early.
	draining *activation
}

func NewChatFeedController(log *slog.Logger, store contract.MessageStore, opts ...Option) *ChatFeedController {
	c := &ChatFeedController{store: store, log: log, dispatch: inline}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Activate subscribes to room, ordered by send time. Every delivery replaces
// the list and is handed to callbacks.OnUpdate, one at a time and in store
// order.
func (c *ChatFeedController) Activate(room domain.RoomID, callbacks Callbacks) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != nil {
		return errors.ErrAlreadyActive
	}

	ctx, cancel := context.WithCancel(context.Background())
	deliveries, err := c.store.Subscribe(ctx, room, domain.OrderBySentAt)
	if err != nil {
		cancel()
		return errors.NewSubscriptionError(err)
	}

	c.generation++
	a := &activation{
		generation: c.generation,
		room:       room,
		callbacks:  callbacks,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	c.active = a
	go c.pump(ctx, a, deliveries)

	c.log.Info("Feed activated", "room", room, "generation", a.generation)
	return nil
}

// Deactivate cancels the subscription and waits for the delivery goroutine,
// so no callback of the old activation runs once it returns.
// It must not be called from inside a callback.
func (c *ChatFeedController) Deactivate() {
	c.mu.Lock()
	a := c.active
	if a != nil {
		c.active = nil
		c.draining = a
	} else {
		a = c.draining
	}
	c.mu.Unlock()

	if a == nil {
		return
	}
	a.cancel()
	<-a.done

	c.mu.Lock()
	if c.draining == a {
		c.draining = nil
		c.log.Info("Feed deactivated", "room", a.room, "generation", a.generation)
	}
	c.mu.Unlock()
}

// Room returns the active room.
func (c *ChatFeedController) Room() (domain.RoomID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return "", false
	}
	return c.active.room, true
}

// Send appends a message to the active room with one store write.
// The list is not touched: the message shows up with the next delivery.
// Store failures come back as *errors.SendError and are not retried.
func (c *ChatFeedController) Send(ctx context.Context, sender, body string) error {
	if strings.TrimSpace(body) == "" {
		return errors.ErrEmptyBody
	}
	if sender == "" {
		return errors.ErrEmptySender
	}

	c.mu.Lock()
	a := c.active
	c.mu.Unlock()
	if a == nil {
		return errors.ErrNotActive
	}

	if err := c.store.Append(ctx, a.room, domain.Draft{Sender: sender, Body: body}); err != nil {
		c.log.Warn("Send failed", "room", a.room, "sender", sender, "error", err)
		return errors.NewSendError(err)
	}

	if a.callbacks.OnSent != nil && c.isCurrent(a) {
		c.dispatch(a.callbacks.OnSent)
	}
	return nil
}

func (c *ChatFeedController) isCurrent(a *activation) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active == a
}

// pump is the single delivery path of an activation.
func (c *ChatFeedController) pump(ctx context.Context, a *activation, deliveries <-chan contract.Delivery) {
	defer close(a.done)
	for {
		select {
		case <-ctx.Done():
			return
		case delivery, ok := <-deliveries:
			if !ok {
				if ctx.Err() == nil {
					c.handle(a, contract.Delivery{Err: fmt.Errorf("%w: subscription closed", errors.ErrUnavailable)})
				}
				return
			}
			// A delivery racing Deactivate is dropped here.
			if ctx.Err() != nil {
				return
			}
			c.handle(a, delivery)
		}
	}
}

func (c *ChatFeedController) handle(a *activation, delivery contract.Delivery) {
	if delivery.Err != nil {
		c.log.Warn("Subscription error", "room", a.room, "error", delivery.Err)
		if a.callbacks.OnError != nil {
			err := errors.NewSubscriptionError(delivery.Err)
			c.dispatch(func() { a.callbacks.OnError(err) })
		}
		return
	}

	messages := domain.Materialize(delivery.Records)
	if dropped := len(delivery.Records) - len(messages); dropped > 0 {
		c.log.Debug("Malformed records dropped", "room", a.room, "dropped", dropped)
	}
	a.messages = messages

	if a.callbacks.OnUpdate != nil {
		snapshot := append([]domain.Message(nil), messages...)
		c.dispatch(func() { a.callbacks.OnUpdate(snapshot) })
	}
}
