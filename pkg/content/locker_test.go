package content

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLockerSingleHolder(t *testing.T) {
	locker := NewLocalLocker()
	ctx := context.Background()

	release, ok := locker.TryAcquire(ctx, "task-1")
	require.True(t, ok)

	// 同一任务第二次抢锁失败
	_, ok = locker.TryAcquire(ctx, "task-1")
	assert.False(t, ok)

	// 不同任务互不影响
	releaseOther, ok := locker.TryAcquire(ctx, "task-2")
	require.True(t, ok)
	releaseOther()

	// 释放后可重新获取
	release()
	release2, ok := locker.TryAcquire(ctx, "task-1")
	require.True(t, ok)
	release2()
}

func TestLocalLockerConcurrent(t *testing.T) {
	locker := NewLocalLocker()
	ctx := context.Background()

	// 并发抢同一把锁，恰好一个成功
	const goroutines = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	acquired := 0

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := locker.TryAcquire(ctx, "task-1"); ok {
				mu.Lock()
				acquired++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, acquired)
}
