package fanout

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapPreservesInputOrder(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}

	// Make earlier items finish later so completion order differs from
	// input order.
	out, err := Map(context.Background(), items, 2, func(_ context.Context, s string) (string, error) {
		switch s {
		case "a":
			time.Sleep(30 * time.Millisecond)
		case "c":
			time.Sleep(5 * time.Millisecond)
		}
		return "f(" + s + ")", nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"f(a)", "f(b)", "f(c)", "f(d)", "f(e)"}, out)
}

func TestMapBoundsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int64

	items := make([]int, 50)
	_, err := Map(context.Background(), items, 4, func(_ context.Context, _ int) (struct{}, error) {
		cur := inFlight.Add(1)
		for {
			p := peak.Load()
			if cur <= p || peak.CompareAndSwap(p, cur) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		inFlight.Add(-1)
		return struct{}{}, nil
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int64(4))
}

func TestMapClampsConcurrencyToItems(t *testing.T) {
	out, err := Map(context.Background(), []int{1, 2}, 100, func(_ context.Context, n int) (int, error) {
		return n * 10, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{10, 20}, out)
}

func TestMapFirstErrorFailsAll(t *testing.T) {
	boom := errors.New("boom")
	items := []int{0, 1, 2, 3, 4}

	out, err := Map(context.Background(), items, 2, func(_ context.Context, n int) (int, error) {
		if n == 2 {
			return 0, boom
		}
		return n, nil
	})
	require.ErrorIs(t, err, boom)
	assert.Nil(t, out, "partial results are never delivered")
}

func TestMapEveryIndexClaimedOnce(t *testing.T) {
	items := make([]int, 200)
	for i := range items {
		items[i] = i
	}

	var calls atomic.Int64
	out, err := Map(context.Background(), items, 8, func(_ context.Context, n int) (int, error) {
		calls.Add(1)
		return n, nil
	})
	require.NoError(t, err)
	require.Equal(t, int64(len(items)), calls.Load())
	for i, v := range out {
		assert.Equal(t, i, v)
	}
}

func TestMapEmptyItems(t *testing.T) {
	out, err := Map(context.Background(), nil, 3, func(_ context.Context, _ int) (int, error) {
		t.Fatal("worker must not run")
		return 0, nil
	})
	require.NoError(t, err)
	assert.Nil(t, out)
}
