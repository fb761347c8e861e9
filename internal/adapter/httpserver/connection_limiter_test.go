package httpserver

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestConnectionLimiter_PerIP(t *testing.T) {
	l := newConnectionLimiter(2, 100, 100, clockwork.NewFakeClock())

	ok, _ := l.acquire("1.1.1.1")
	assert.True(t, ok)
	ok, _ = l.acquire("1.1.1.1")
	assert.True(t, ok)

	ok, reason := l.acquire("1.1.1.1")
	assert.False(t, ok)
	assert.Equal(t, limitReasonPerIP, reason)
	assert.Equal(t, 2, l.open("1.1.1.1"))

	// Other clients are unaffected.
	ok, _ = l.acquire("2.2.2.2")
	assert.True(t, ok)

	l.release("1.1.1.1")
	ok, _ = l.acquire("1.1.1.1")
	assert.True(t, ok)
}

func TestConnectionLimiter_Rate(t *testing.T) {
	clock := clockwork.NewFakeClock()
	l := newConnectionLimiter(100, 1, 2, clock)

	for range 2 {
		ok, _ := l.acquire("1.1.1.1")
		assert.True(t, ok)
	}

	ok, reason := l.acquire("1.1.1.1")
	assert.False(t, ok)
	assert.Equal(t, limitReasonRate, reason)

	clock.Advance(time.Second)
	ok, _ = l.acquire("1.1.1.1")
	assert.True(t, ok)
}

func TestConnectionLimiter_ReleaseUnknownIsNoop(t *testing.T) {
	l := newConnectionLimiter(1, 10, 10, clockwork.NewFakeClock())

	l.release("9.9.9.9")
	assert.Equal(t, 0, l.open("9.9.9.9"))

	ok, _ := l.acquire("9.9.9.9")
	assert.True(t, ok)
	l.release("9.9.9.9")
	l.release("9.9.9.9")
	assert.Equal(t, 0, l.open("9.9.9.9"))
}

func TestConnectionLimiter_SweepsIdleClients(t *testing.T) {
	clock := clockwork.NewFakeClock()
	l := newConnectionLimiter(5, 10, 10, clock)

	l.acquire("1.1.1.1")
	l.release("1.1.1.1")
	l.acquire("2.2.2.2") // still open
	assert.Equal(t, 2, l.tracked())

	clock.Advance(limiterIdleExpiry + time.Minute)
	l.acquire("3.3.3.3")

	assert.Equal(t, 2, l.tracked())
	assert.Equal(t, 1, l.open("2.2.2.2"))
}

func TestConnectionLimiter_Concurrent(t *testing.T) {
	l := newConnectionLimiter(50, 1000, 1000, clockwork.NewFakeClock())
	var granted atomic.Int32

	start := make(chan struct{})
	var wg sync.WaitGroup
	for range 200 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if ok, _ := l.acquire("1.1.1.1"); ok {
				granted.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(50), granted.Load())
	assert.Equal(t, 50, l.open("1.1.1.1"))
}
