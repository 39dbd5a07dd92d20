package walletadapter

import (
	"sync"

	"wallet_adapter/internal/app/port"
	"wallet_adapter/internal/domain/entity"

	"github.com/ethereum/go-ethereum/event"
)

// Emitter publishes adapter events to synchronous listeners and to channel subscribers.
// The zero value is ready to use.
type Emitter struct {
	mu        sync.RWMutex
	listeners map[uint64]port.AdapterListener
	order     []uint64
	nextID    uint64

	feed  event.FeedOf[entity.AdapterEvent]
	scope event.SubscriptionScope
}

// On registers listener. Listeners run in registration order on the emitting goroutine.
func (e *Emitter) On(listener port.AdapterListener) (off func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.listeners == nil {
		e.listeners = make(map[uint64]port.AdapterListener)
	}
	id := e.nextID
	e.nextID++
	e.listeners[id] = listener
	e.order = append(e.order, id)

	var once sync.Once
	return func() {
		once.Do(func() { e.remove(id) })
	}
}

func (e *Emitter) remove(id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.listeners, id)
	for i, v := range e.order {
		if v == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
}

// SubscribeEvents delivers every emitted event to ch. After CloseEvents the
// returned subscription is already ended.
func (e *Emitter) SubscribeEvents(ch chan<- entity.AdapterEvent) event.Subscription {
	sub := e.feed.Subscribe(ch)
	if tracked := e.scope.Track(sub); tracked != nil {
		return tracked
	}
	sub.Unsubscribe()
	return event.NewSubscription(func(<-chan struct{}) error { return nil })
}

// Emit delivers ev to all listeners, then to channel subscribers.
// It must not be called while holding a lock a listener may need.
func (e *Emitter) Emit(ev entity.AdapterEvent) {
	e.mu.RLock()
	snapshot := make([]port.AdapterListener, 0, len(e.order))
	for _, id := range e.order {
		snapshot = append(snapshot, e.listeners[id])
	}
	e.mu.RUnlock()

	for _, listener := range snapshot {
		listener(ev)
	}
	e.feed.Send(ev)
}

// ListenerCount returns the number of registered listeners.
func (e *Emitter) ListenerCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.order)
}

// CloseEvents ends all channel subscriptions and drops the listeners.
func (e *Emitter) CloseEvents() {
	e.scope.Close()
	e.mu.Lock()
	e.listeners = nil
	e.order = nil
	e.mu.Unlock()
}
