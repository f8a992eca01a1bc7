package task

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"inventory-data/internal/domain"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRunner_RunsSubmittedJobs(t *testing.T) {
	r := NewRunner(2, 4, zap.NewNop())
	r.Start()
	defer r.Stop()

	var ran atomic.Int32
	done := make(chan struct{})
	require.NoError(t, r.Submit(Job{
		Number: "EX-test-1",
		Run: func(ctx context.Context) {
			ran.Add(1)
			close(done)
		},
	}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("任务未被执行")
	}
	require.Equal(t, int32(1), ran.Load())
}

func TestRunner_CancelRunningJob(t *testing.T) {
	r := NewRunner(1, 4, zap.NewNop())
	r.Start()
	defer r.Stop()

	started := make(chan struct{})
	cancelled := make(chan struct{})
	require.NoError(t, r.Submit(Job{
		Number: "EX-test-2",
		Run: func(ctx context.Context) {
			close(started)
			<-ctx.Done()
			close(cancelled)
		},
	}))

	<-started
	require.True(t, r.Cancel("EX-test-2"))
	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("取消未生效")
	}

	// 未在执行的编号取消返回 false
	require.False(t, r.Cancel("EX-missing"))
}

func TestRunner_SubmitFullQueue(t *testing.T) {
	r := NewRunner(1, 1, zap.NewNop())
	// 不启动 worker，队列被首个任务占满

	require.NoError(t, r.Submit(Job{Number: "a", Run: func(ctx context.Context) {}}))
	err := r.Submit(Job{Number: "b", Run: func(ctx context.Context) {}})
	require.True(t, domain.IsConflict(err))

	r.Start()
	r.Stop()
}

func TestRunner_SubmitAfterStop(t *testing.T) {
	r := NewRunner(1, 4, zap.NewNop())
	r.Start()
	r.Stop()

	// 停止后投递返回冲突而不是写已关闭的队列
	err := r.Submit(Job{Number: "c", Run: func(ctx context.Context) {}})
	require.True(t, domain.IsConflict(err))

	// 重复停止是无操作
	r.Stop()
}

func TestNumberGenerator_SequenceWithinSecond(t *testing.T) {
	g := NewNumberGenerator()
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return now }

	require.Equal(t, "EX20260901-120000-0001", g.Next("EX"))
	require.Equal(t, "EX20260901-120000-0002", g.Next("EX"))

	now = now.Add(time.Second)
	require.Equal(t, "IM20260901-120001-0001", g.Next("IM"))
}
