package query

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/tasker/internal/models"
)

func counter(n *atomic.Int32, v string) func(context.Context) (string, error) {
	return func(context.Context) (string, error) {
		n.Add(1)
		return v, nil
	}
}

func TestFetchCaches(t *testing.T) {
	c := New(0, nil)
	var calls atomic.Int32
	ctx := context.Background()

	v, err := Fetch(ctx, c, Task("1"), counter(&calls, "one"))
	require.NoError(t, err)
	assert.Equal(t, "one", v)

	v, err = Fetch(ctx, c, Task("1"), counter(&calls, "other"))
	require.NoError(t, err)
	assert.Equal(t, "one", v)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchErrorIsNotCached(t *testing.T) {
	c := New(0, nil)
	boom := errors.New("boom")
	_, err := Fetch(context.Background(), c, Tasks, func(context.Context) (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, c.Len())
}

func TestFetchDeduplicates(t *testing.T) {
	c := New(0, nil)
	var calls atomic.Int32
	release := make(chan struct{})
	fn := func(context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "v", nil
	}

	var wg sync.WaitGroup
	results := make([]string, 5)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = Fetch(context.Background(), c, MyAssigned, fn)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		assert.Equal(t, "v", r)
	}
}

func TestFetchSurvivesFirstCallerCancel(t *testing.T) {
	c := New(0, nil)
	started := make(chan struct{})
	release := make(chan struct{})
	fn := func(ctx context.Context) (string, error) {
		close(started)
		<-release
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return "v", nil
	}

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := Fetch(first, c, MyAssigned, fn)
		firstErr <- err
	}()
	<-started

	second := make(chan string, 1)
	go func() {
		v, err := Fetch(context.Background(), c, MyAssigned, fn)
		assert.NoError(t, err)
		second <- v
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	assert.Equal(t, "v", <-second)
	_, ok := c.Peek(MyAssigned)
	assert.True(t, ok)
}

func TestInvalidatePrefix(t *testing.T) {
	c := New(0, nil)
	ctx := context.Background()
	var calls atomic.Int32
	for _, k := range []Key{MyAssigned, MyCreated, Search("q", "", "", ""), Task("T"), Project("P")} {
		_, err := Fetch(ctx, c, k, counter(&calls, k.String()))
		require.NoError(t, err)
	}
	require.Equal(t, 5, c.Len())

	c.Invalidate(Task("T"), Tasks)

	_, ok := c.Peek(Project("P"))
	assert.True(t, ok)
	for _, k := range []Key{MyAssigned, MyCreated, Task("T")} {
		_, ok := c.Peek(k)
		assert.False(t, ok, k.String())
	}
	assert.Equal(t, 1, c.Len())
}

func TestInvalidateDuringFetchDropsResult(t *testing.T) {
	c := New(0, nil)
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan string)

	go func() {
		v, _ := Fetch(context.Background(), c, Task("T"), func(context.Context) (string, error) {
			close(started)
			<-release
			return "stale", nil
		})
		done <- v
	}()
	<-started
	c.Invalidate(Task("T"))
	close(release)

	assert.Equal(t, "stale", <-done)
	_, ok := c.Peek(Task("T"))
	assert.False(t, ok)

	v, err := Fetch(context.Background(), c, Task("T"), func(context.Context) (string, error) { return "fresh", nil })
	require.NoError(t, err)
	assert.Equal(t, "fresh", v)
}

func TestTTL(t *testing.T) {
	c := New(30*time.Second, nil)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	var calls atomic.Int32

	_, _ = Fetch(context.Background(), c, Teams, counter(&calls, "a"))
	now = now.Add(29 * time.Second)
	_, _ = Fetch(context.Background(), c, Teams, counter(&calls, "b"))
	assert.Equal(t, int32(1), calls.Load())

	now = now.Add(time.Second)
	v, _ := Fetch(context.Background(), c, Teams, counter(&calls, "c"))
	assert.Equal(t, "c", v)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClear(t *testing.T) {
	c := New(0, nil)
	_, _ = Fetch(context.Background(), c, Teams, func(context.Context) (int, error) { return 1, nil })
	c.Clear()
	assert.Zero(t, c.Len())
}

func TestKeyHasPrefix(t *testing.T) {
	assert.True(t, MyAssigned.HasPrefix(Tasks))
	assert.True(t, Tasks.HasPrefix(Tasks))
	assert.False(t, Tasks.HasPrefix(MyAssigned))
	assert.False(t, Task("1").HasPrefix(Tasks))
	assert.True(t, Task("1").HasPrefix(Key{}))
	assert.Equal(t, "tasks/my/assigned", MyAssigned.String())
}

func TestAffectedByTask(t *testing.T) {
	keys := AffectedByTask(models.Task{ID: "T", ProjectID: "P"})
	assert.Equal(t, []Key{Task("T"), Tasks, Project("P")}, keys)

	keys = AffectedByTask(models.Task{ID: "T", Project: &models.Project{ID: "Q"}})
	assert.Equal(t, []Key{Task("T"), Tasks, Project("Q")}, keys)

	assert.Equal(t, []Key{Task("T"), Tasks}, AffectedByTask(models.Task{ID: "T"}))
}
