package util

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTakeEmpty(t *testing.T) {
	l := NewLatest[int]()
	v, ok := l.Take()
	assert.False(t, ok)
	assert.Zero(t, v)
}

func TestSendOverwrites(t *testing.T) {
	l := NewLatest[time.Duration]()
	l.Send(time.Second)
	l.Send(2 * time.Second)

	select {
	case <-l.Channel():
	default:
		t.Fatal("should have received a notification")
	}
	select {
	case <-l.Channel():
		t.Fatal("only one notification is pending")
	default:
	}

	v, ok := l.Take()
	assert.True(t, ok)
	assert.Equal(t, 2*time.Second, v)

	_, ok = l.Take()
	assert.False(t, ok, "value is cleared by Take")
}

func TestConcurrentSenders(t *testing.T) {
	l := NewLatest[int]()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				l.Send(id*100 + j)
			}
		}(i)
	}

	received := 0
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	for {
		select {
		case <-l.Channel():
			if _, ok := l.Take(); ok {
				received++
			}
		case <-done:
			if _, ok := l.Take(); ok {
				received++
			}
			assert.Greater(t, received, 0)
			assert.LessOrEqual(t, received, 1000)
			return
		}
	}
}
