package bridge

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskLoopRunsInOrder(t *testing.T) {
	l := newTaskLoop()
	go l.Run()

	var mu sync.Mutex
	var got []int
	for i := range 100 {
		require.True(t, l.Submit(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		}))
	}
	l.Close()

	select {
	case <-l.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop")
	}

	want := make([]int, 100)
	for i := range want {
		want[i] = i
	}
	assert.Equal(t, want, got)
}

func TestTaskLoopSubmitDoesNotBlock(t *testing.T) {
	l := newTaskLoop()
	// Not running: submissions must still return immediately.
	for range 1000 {
		assert.True(t, l.Submit(func() {}))
	}
}

func TestTaskLoopRejectsAfterClose(t *testing.T) {
	l := newTaskLoop()
	go l.Run()
	l.Close()

	assert.False(t, l.Submit(func() { t.Error("task ran after close") }))
	<-l.Done()
}

func TestTaskLoopDrainsOnClose(t *testing.T) {
	l := newTaskLoop()
	ran := false
	l.Submit(func() { ran = true })
	l.Close()

	l.Run()
	assert.True(t, ran)
}
