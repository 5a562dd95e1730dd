// queue_test.go: outbound queue ordering and close semantics
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package touchportal

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestOutboundQueue_FIFO(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		q := newOutboundQueue()
		n := rapid.IntRange(0, 500).Draw(t, "n")
		for i := 0; i < n; i++ {
			if err := q.push(StateUpdate{ID: "s", Value: fmt.Sprint(i)}); err != nil {
				t.Fatalf("push %d: %v", i, err)
			}
		}
		if q.len() != n {
			t.Fatalf("len = %d, want %d", q.len(), n)
		}
		ctx := context.Background()
		for i := 0; i < n; i++ {
			cmd, ok := q.pop(ctx)
			if !ok {
				t.Fatalf("pop %d failed", i)
			}
			if got := cmd.(StateUpdate).Value; got != fmt.Sprint(i) {
				t.Fatalf("pop %d returned %s", i, got)
			}
		}
	})
}

func TestOutboundQueue_InterleavedPushPop(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		q := newOutboundQueue()
		ops := rapid.SliceOf(rapid.Bool()).Draw(t, "ops")
		next, expect := 0, 0
		ctx := context.Background()
		for _, push := range ops {
			if push || q.len() == 0 {
				_ = q.push(StateUpdate{Value: fmt.Sprint(next)})
				next++
				continue
			}
			cmd, _ := q.pop(ctx)
			if got := cmd.(StateUpdate).Value; got != fmt.Sprint(expect) {
				t.Fatalf("got %s, want %d", got, expect)
			}
			expect++
		}
		if q.len() != next-expect {
			t.Fatalf("len = %d, want %d", q.len(), next-expect)
		}
	})
}

func TestOutboundQueue_PerProducerOrder(t *testing.T) {
	q := newOutboundQueue()
	const producers, perProducer = 8, 250

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				assert.NoError(t, q.push(StateUpdate{ID: fmt.Sprint(p), Value: fmt.Sprint(i)}))
			}
		}(p)
	}

	last := make(map[string]int)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for received := 0; received < producers*perProducer; received++ {
		cmd, ok := q.pop(ctx)
		require.True(t, ok)
		su := cmd.(StateUpdate)
		var v int
		_, err := fmt.Sscan(su.Value, &v)
		require.NoError(t, err)
		if prev, seen := last[su.ID]; seen {
			require.Greater(t, v, prev, "producer %s reordered", su.ID)
		}
		last[su.ID] = v
	}
	wg.Wait()
}

func TestOutboundQueue_PopWaitsForPush(t *testing.T) {
	q := newOutboundQueue()
	got := make(chan Command, 1)
	go func() {
		cmd, _ := q.pop(context.Background())
		got <- cmd
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, q.push(RemoveState{ID: "x"}))

	select {
	case cmd := <-got:
		assert.Equal(t, RemoveState{ID: "x"}, cmd)
	case <-time.After(2 * time.Second):
		t.Fatal("pop did not wake up")
	}
}

func TestOutboundQueue_PopHonoursContext(t *testing.T) {
	q := newOutboundQueue()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, ok := q.pop(ctx)
	assert.False(t, ok)
}

func TestOutboundQueue_Close(t *testing.T) {
	q := newOutboundQueue()
	require.NoError(t, q.push(StateUpdate{ID: "a"}))
	require.NoError(t, q.push(StateUpdate{ID: "b"}))
	_, _ = q.pop(context.Background())

	rest := q.close()
	require.Len(t, rest, 1)
	assert.Equal(t, "b", rest[0].(StateUpdate).ID)
	assert.True(t, q.isClosed())

	err := q.push(StateUpdate{ID: "c"})
	assert.Equal(t, ErrCodeHandleClosed, codeOf(err))

	_, ok := q.pop(context.Background())
	assert.False(t, ok)
	assert.Empty(t, q.close())
}
