package messaging

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"listing-browser/internal/store"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopicName(t *testing.T) {
	assert.Equal(t, "listings_listings_changed", getName("listings", ListingsChanged))
}

func TestDecodeEvent(t *testing.T) {
	ev, err := Decode([]byte(`{"kind":"updated","id":"abc","origin":"n1","at":42}`))
	require.NoError(t, err)
	assert.Equal(t, store.ChangeEvent{Kind: store.ChangeUpdated, ID: "abc", Origin: "n1", At: 42}, ev)
}

func TestDecodeRejectsMalformed(t *testing.T) {
	_, err := Decode([]byte(`{"id":"abc"}`))
	assert.Error(t, err)

	_, err = Decode([]byte(`not json`))
	assert.Error(t, err)
}

func TestEncodeDecode(t *testing.T) {
	in := store.ChangeEvent{Kind: store.ChangeResync, Origin: "n2", At: 7}
	body, err := Encode(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"resync","origin":"n2","at":7}`, string(body))
}

func TestListenLoopResubscribesAfterBrokerClose(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := make(chan amqp.Delivery, 1)
	second := make(chan amqp.Delivery, 1)
	var attempts atomic.Int32
	subscribe := func() (<-chan amqp.Delivery, func(), error) {
		if attempts.Add(1) == 1 {
			return nil, nil, errors.New("connection refused")
		}
		return second, func() {}, nil
	}

	events := make(chan store.ChangeEvent, 4)
	done := make(chan struct{})
	go func() {
		listenLoop(ctx, subscribe, first, func() {}, func(ev store.ChangeEvent) { events <- ev },
			time.Millisecond, 5*time.Millisecond)
		close(done)
	}()

	first <- amqp.Delivery{Body: []byte(`{"kind":"created","id":"a"}`)}
	assert.Equal(t, store.ChangeCreated, (<-events).Kind)

	close(first)
	resync := <-events
	assert.Equal(t, store.ChangeResync, resync.Kind)
	assert.EqualValues(t, 2, attempts.Load())

	second <- amqp.Delivery{Body: []byte(`{"kind":"updated","id":"b"}`)}
	ev := <-events
	assert.Equal(t, store.ChangeUpdated, ev.Kind)
	assert.Equal(t, "b", ev.ID)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("listen loop did not stop")
	}
}

func TestListenLoopStopsWithoutResubscribingOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	released := false
	subscribe := func() (<-chan amqp.Delivery, func(), error) {
		t.Fatal("resubscribed after cancel")
		return nil, nil, nil
	}
	listenLoop(ctx, subscribe, make(chan amqp.Delivery), func() { released = true },
		func(store.ChangeEvent) {}, time.Millisecond, time.Millisecond)
	assert.True(t, released)
}
