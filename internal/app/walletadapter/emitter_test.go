package walletadapter

import (
	"testing"
	"time"

	"wallet_adapter/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitter_ListenersRunInOrder(t *testing.T) {
	var e Emitter
	var got []string

	e.On(func(ev entity.AdapterEvent) { got = append(got, "first:"+string(ev.Kind)) })
	e.On(func(ev entity.AdapterEvent) { got = append(got, "second:"+string(ev.Kind)) })

	e.Emit(entity.Disconnected())
	assert.Equal(t, []string{"first:disconnect", "second:disconnect"}, got)
}

func TestEmitter_Off(t *testing.T) {
	var e Emitter
	calls := 0
	off := e.On(func(entity.AdapterEvent) { calls++ })
	e.On(func(entity.AdapterEvent) {})
	require.Equal(t, 2, e.ListenerCount())

	off()
	off()
	assert.Equal(t, 1, e.ListenerCount())

	e.Emit(entity.Disconnected())
	assert.Equal(t, 0, calls)
}

func TestEmitter_ListenerMayUnsubscribeDuringEmit(t *testing.T) {
	var e Emitter
	var off func()
	calls := 0
	off = e.On(func(entity.AdapterEvent) {
		calls++
		off()
	})

	e.Emit(entity.Disconnected())
	e.Emit(entity.Disconnected())
	assert.Equal(t, 1, calls)
}

func TestEmitter_ChannelSubscribers(t *testing.T) {
	var e Emitter
	ch := make(chan entity.AdapterEvent, 2)
	sub := e.SubscribeEvents(ch)
	defer sub.Unsubscribe()

	e.Emit(entity.ReadyStateChanged(entity.ReadyStateInstalled))
	ev := <-ch
	assert.Equal(t, entity.EventReadyStateChange, ev.Kind)
	assert.Equal(t, entity.ReadyStateInstalled, ev.ReadyState)
}

func TestEmitter_CloseEvents(t *testing.T) {
	var e Emitter
	ch := make(chan entity.AdapterEvent, 1)
	sub := e.SubscribeEvents(ch)
	e.On(func(entity.AdapterEvent) {})

	e.CloseEvents()

	select {
	case <-sub.Err():
	case <-time.After(time.Second):
		t.Fatal("subscription still open")
	}
	assert.Equal(t, 0, e.ListenerCount())

	late := e.SubscribeEvents(make(chan entity.AdapterEvent))
	select {
	case <-late.Err():
	case <-time.After(time.Second):
		t.Fatal("subscription after close should already be ended")
	}
}
