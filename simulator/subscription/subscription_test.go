package subscription

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublishOrder(t *testing.T) {
	t.Parallel()
	var r Registry[int]
	var got []string
	r.Subscribe(func(v int) { got = append(got, "first") })
	r.Subscribe(func(v int) { got = append(got, "second") })
	r.Publish(1)
	assert.Equal(t, []string{"first", "second"}, got)
	assert.Equal(t, 2, r.Len())
}

func TestUnsubscribe(t *testing.T) {
	t.Parallel()
	var r Registry[int]
	var calls int
	h := r.Subscribe(func(int) { calls++ })
	r.Publish(1)
	h.Unsubscribe()
	h.Unsubscribe()
	r.Publish(2)
	assert.Equal(t, 1, calls)
	assert.Zero(t, r.Len())

	var nilHandle *Handle
	nilHandle.Unsubscribe()
}

func TestUnsubscribeDuringPublish(t *testing.T) {
	t.Parallel()
	var r Registry[int]
	var second *Handle
	var secondCalls int
	r.Subscribe(func(int) { second.Unsubscribe() })
	second = r.Subscribe(func(int) { secondCalls++ })
	r.Subscribe(func(int) {})
	r.Publish(1)
	assert.Zero(t, secondCalls, "listener dropped mid publish is skipped")
	assert.Equal(t, 2, r.Len())
}
