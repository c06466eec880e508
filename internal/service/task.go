package service

import (
	"context"
	stderrors "errors"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"BloodConnect/internal/async"
	"BloodConnect/pkg/errors"
	"BloodConnect/pkg/logger"
	"BloodConnect/pkg/metrics"
)

const (
	ModeMQ     = "mq"
	ModeInline = "inline"
)

// DispatchTask 紧急请求保存后交给后台执行的通知任务
type DispatchTask struct {
	SubmittedAt time.Time
	RequestID   int64
}

// TaskRunner 后台任务执行方式：mq 投递到 worker，inline 在本进程执行
type TaskRunner interface {
	Submit(ctx context.Context, task DispatchTask) error
	Mode() string
}

var (
	taskRunner   TaskRunner
	taskRunnerMu sync.RWMutex
)

// SetTaskRunner 在 server 启动时根据 DISPATCH_MODE 设置
func SetTaskRunner(r TaskRunner) {
	taskRunnerMu.Lock()
	defer taskRunnerMu.Unlock()
	taskRunner = r
}

func currentTaskRunner() TaskRunner {
	taskRunnerMu.RLock()
	defer taskRunnerMu.RUnlock()
	return taskRunner
}

// InlineRunner 用进程内的有界执行器跑分发任务
type InlineRunner struct {
	runner  *async.Runner
	process func(ctx context.Context, requestID int64) error
}

// NewInlineRunner process 为空时使用 Emergency().ProcessDispatch
func NewInlineRunner(workers, queueSize int, process func(ctx context.Context, requestID int64) error) *InlineRunner {
	if process == nil {
		process = func(ctx context.Context, requestID int64) error {
			_, err := Emergency().ProcessDispatch(ctx, requestID)
			return err
		}
	}

	m := metrics.GetMetrics()
	log := logger.Named("inline_runner")

	return &InlineRunner{
		process: process,
		runner: async.New(workers, queueSize,
			async.WithLogger(log),
			async.WithErrorHandler(func(ctx context.Context, task string, err error) {
				log.Error("Inline dispatch task failed",
					zap.String("task", task),
					zap.Error(err),
				)
				m.RecordTaskFailed(ctx, ModeInline, taskFailureReason(err))
			}),
			async.WithQueueObserver(func(ctx context.Context, delta int64) {
				m.AddQueuedTask(ctx, ModeInline, delta)
			}),
		),
	}
}

func (r *InlineRunner) Mode() string { return ModeInline }

func (r *InlineRunner) Submit(ctx context.Context, task DispatchTask) error {
	err := r.runner.Submit(ctx, async.Task{
		Name: "emergency_dispatch:" + strconv.FormatInt(task.RequestID, 10),
		Run: func(ctx context.Context) error {
			return r.process(ctx, task.RequestID)
		},
	})
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, async.ErrQueueFull):
		return errors.DispatchQueueFull
	default:
		return errors.DispatchSubmitFailed
	}
}

// Shutdown 等待缓冲区中的任务执行完
func (r *InlineRunner) Shutdown(ctx context.Context) error {
	return r.runner.Shutdown(ctx)
}

func taskFailureReason(err error) string {
	var def errors.Definition
	if stderrors.As(err, &def) {
		return def.Code
	}
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, context.Canceled) {
		return "canceled"
	}
	return "internal"
}
