package eventbus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type ping struct{ N int }
type pong struct{}

func TestDispatchByType(t *testing.T) {
	b := New()
	var got []int
	unsub := On(b, func(_ context.Context, p ping) { got = append(got, p.N) })
	pongs := 0
	On(b, func(_ context.Context, _ pong) { pongs++ })

	Emit(b, context.Background(), ping{N: 1})
	Emit(b, context.Background(), pong{})
	unsub()
	unsub()
	Emit(b, context.Background(), ping{N: 2})

	assert.Equal(t, []int{1}, got)
	assert.Equal(t, 1, pongs)
}

func TestUnsubscribeKeepsOtherHandlers(t *testing.T) {
	b := New()
	var a, c int
	ua := On(b, func(context.Context, ping) { a++ })
	On(b, func(context.Context, ping) { c++ })
	ua()
	Emit(b, context.Background(), ping{})
	assert.Equal(t, 0, a)
	assert.Equal(t, 1, c)
}

func TestGlobalBus(t *testing.T) {
	Use(nil)
	Publish(context.Background(), ping{}) // no bus: no-op
	Subscribe(func(context.Context, ping) { t.Fatal("must not be registered") })()

	b := New()
	Use(b)
	defer Use(nil)
	n := 0
	Subscribe(func(context.Context, ping) { n++ })
	Publish(context.Background(), ping{})
	assert.Equal(t, 1, n)
}
