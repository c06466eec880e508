package async

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"BloodConnect/pkg/logger"
)

var (
	ErrQueueFull = errors.New("async task queue is full")
	ErrStopped   = errors.New("async runner stopped")
)

// Task 一个后台任务；Name 用于日志和指标
type Task struct {
	Run  func(ctx context.Context) error
	Name string
	ctx  context.Context
}

// ErrorHandler 任务失败（含 panic）时回调，替代调用方看不到的返回值
type ErrorHandler func(ctx context.Context, task string, err error)

// QueueObserver 队列长度变化时回调，delta 为 +1/-1
type QueueObserver func(ctx context.Context, delta int64)

// Runner 固定数量 worker + 有界缓冲的进程内执行器
type Runner struct {
	baseCtx  context.Context
	cancel   context.CancelFunc
	tasks    chan Task
	onError  ErrorHandler
	observer QueueObserver
	logger   *zap.Logger

	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
	workers int
}

type Option func(*Runner)

func WithErrorHandler(h ErrorHandler) Option {
	return func(r *Runner) {
		if h != nil {
			r.onError = h
		}
	}
}

func WithQueueObserver(o QueueObserver) Option {
	return func(r *Runner) {
		r.observer = o
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// New 创建并启动 workers 个 worker，缓冲区满时 Submit 直接失败
func New(workers, queueSize int, opts ...Option) *Runner {
	if workers <= 0 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &Runner{
		baseCtx: ctx,
		cancel:  cancel,
		tasks:   make(chan Task, queueSize),
		workers: workers,
		logger:  logger.Named("async"),
	}
	r.onError = func(ctx context.Context, task string, err error) {
		r.logger.Error("Async task failed", zap.String("task", task), zap.Error(err))
	}
	for _, opt := range opts {
		opt(r)
	}

	for i := 0; i < workers; i++ {
		r.wg.Add(1)
		go r.work()
	}
	return r
}

// Submit 入队后立即返回；任务继承 ctx 的值（trace 等），但不受其取消影响
func (r *Runner) Submit(ctx context.Context, task Task) error {
	if task.Run == nil {
		return fmt.Errorf("async task %q has no Run func", task.Name)
	}
	task.ctx = context.WithoutCancel(ctx)

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return ErrStopped
	}

	// 先计入再入队，worker 的 -1 不会先于 +1 上报
	r.observe(task.ctx, 1)
	select {
	case r.tasks <- task:
		return nil
	default:
		r.observe(task.ctx, -1)
		return ErrQueueFull
	}
}

func (r *Runner) work() {
	defer r.wg.Done()
	for task := range r.tasks {
		r.observe(task.ctx, -1)
		r.run(task)
	}
}

func (r *Runner) run(task Task) {
	ctx, cancel := context.WithCancel(task.ctx)
	stop := context.AfterFunc(r.baseCtx, cancel)
	defer func() {
		stop()
		cancel()
	}()

	defer func() {
		if p := recover(); p != nil {
			r.onError(ctx, task.Name, fmt.Errorf("panic: %v", p))
		}
	}()

	if err := task.Run(ctx); err != nil {
		r.onError(ctx, task.Name, err)
	}
}

func (r *Runner) observe(ctx context.Context, delta int64) {
	if r.observer != nil {
		r.observer(ctx, delta)
	}
}

// Shutdown 停止接收新任务并等待缓冲区中的任务执行完；ctx 到期时取消仍在执行的任务
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.tasks)
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.cancel()
		return nil
	case <-ctx.Done():
		r.cancel()
		<-done
		return ctx.Err()
	}
}
