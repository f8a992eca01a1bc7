package task

import (
	"context"
	"sync"

	"inventory-data/internal/domain"

	"go.uber.org/zap"
)

// Job 一个可取消的后台任务
// Number 与任务表中的任务编号一致，作为取消标识
type Job struct {
	Number string
	Run    func(ctx context.Context)
}

// Runner 后台任务执行器
// 固定 worker 数消费内存队列；按任务编号登记取消函数，
// Cancel 只是对执行上下文的建议性取消，终态落库仍由状态机条件更新裁决
type Runner struct {
	queue   chan Job
	workers int
	logger  *zap.Logger

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	stopped bool

	baseCtx context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup
}

// NewRunner 创建任务执行器
func NewRunner(workers, queueSize int, logger *zap.Logger) *Runner {
	if workers <= 0 {
		workers = 2
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		queue:   make(chan Job, queueSize),
		workers: workers,
		logger:  logger,
		cancels: make(map[string]context.CancelFunc),
		baseCtx: ctx,
		stop:    cancel,
	}
}

// Start 启动 worker
func (r *Runner) Start() {
	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.work()
	}
	r.logger.Info("任务执行器已启动", zap.Int("workers", r.workers))
}

// Stop 停止接收并等待在执行的任务退出，重复调用是无操作
func (r *Runner) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	r.mu.Unlock()

	r.stop()
	close(r.queue)
	r.wg.Wait()
	r.logger.Info("任务执行器已停止")
}

// Submit 投递任务，队列满时返回冲突错误而不是阻塞请求
// 与 Stop 互斥，停止后投递不会写已关闭的队列
func (r *Runner) Submit(job Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return domain.Conflictf("服务正在停止，无法接收新任务")
	}
	select {
	case r.queue <- job:
		return nil
	default:
		return domain.Conflictf("后台任务队列已满，请稍后重试")
	}
}

// Cancel 请求取消指定编号的任务；任务未在执行时返回 false
func (r *Runner) Cancel(number string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	cancel, ok := r.cancels[number]
	if ok {
		cancel()
	}
	return ok
}

func (r *Runner) work() {
	defer r.wg.Done()
	for job := range r.queue {
		r.run(job)
	}
}

func (r *Runner) run(job Job) {
	ctx, cancel := context.WithCancel(r.baseCtx)
	r.mu.Lock()
	r.cancels[job.Number] = cancel
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		delete(r.cancels, job.Number)
		r.mu.Unlock()
		cancel()

		if rec := recover(); rec != nil {
			r.logger.Error("任务执行panic",
				zap.String("number", job.Number),
				zap.Any("panic", rec))
		}
	}()

	r.logger.Info("开始执行任务", zap.String("number", job.Number))
	job.Run(ctx)
	r.logger.Info("任务执行结束", zap.String("number", job.Number))
}
