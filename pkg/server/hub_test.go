// ABOUTME: Tests for the frame fan-out hub
// ABOUTME: Slow subscribers drop frames and unsubscribe is idempotent
package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHub_DropsForSlowSubscriber(t *testing.T) {
	h := newHub()
	slow := h.subscribe("slow")
	fast := h.subscribe("fast")

	for i := 0; i < clientQueue+10; i++ {
		h.publish([]byte{byte(i)})
		<-fast.C
	}

	assert.Len(t, slow.C, clientQueue)
	assert.Equal(t, uint64(10), h.dropped.Load())
	assert.Equal(t, []byte{0}, <-slow.C)
}

func TestHub_UnsubscribeTwice(t *testing.T) {
	h := newHub()
	s := h.subscribe("a")
	assert.Equal(t, 1, h.count())
	assert.Equal(t, []string{"a"}, h.ids())

	h.unsubscribe(s)
	h.unsubscribe(s)
	assert.Equal(t, 0, h.count())

	select {
	case <-s.done:
	default:
		t.Fatal("done not closed")
	}
}
