package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task 副作用任务，失败只记录日志，不影响主操作
type Task func(ctx context.Context) error

type namedTask struct {
	name string
	ctx  context.Context
	fn   Task
}

// Dispatcher 有界协程池执行副作用（通知、操作日志、事件），每个任务独立隔离失败
type Dispatcher struct {
	logger  *zap.Logger
	timeout time.Duration
	inline  bool

	mu     sync.RWMutex
	closed bool
	tasks  chan namedTask
	wg     sync.WaitGroup
}

// NewDispatcher 启动 workers 个协程，队列满时退化为独立协程执行
func NewDispatcher(logger *zap.Logger, workers, queueSize int) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if workers <= 0 {
		workers = 4
	}
	if queueSize <= 0 {
		queueSize = 256
	}
	d := &Dispatcher{
		logger:  logger,
		timeout: 30 * time.Second,
		tasks:   make(chan namedTask, queueSize),
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

// NewInlineDispatcher 同步执行任务，用于测试和命令行工具
func NewInlineDispatcher(logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{logger: logger, timeout: 30 * time.Second, inline: true}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for t := range d.tasks {
		d.run(t)
	}
}

// Go 提交副作用任务；请求 ctx 的取消不会传递给任务
func (d *Dispatcher) Go(ctx context.Context, name string, fn Task) {
	t := namedTask{name: name, ctx: context.WithoutCancel(ctx), fn: fn}
	if d.inline {
		d.run(t)
		return
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.run(t)
		return
	}
	select {
	case d.tasks <- t:
	default:
		d.logger.Warn("Side effect queue full, running detached", zap.String("task", name))
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.run(t)
		}()
	}
}

func (d *Dispatcher) run(t namedTask) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Side effect panicked", zap.String("task", t.name), zap.String("panic", fmt.Sprint(r)))
		}
	}()

	ctx, cancel := context.WithTimeout(t.ctx, d.timeout)
	defer cancel()

	if err := t.fn(ctx); err != nil {
		d.logger.Warn("Side effect failed", zap.String("task", t.name), zap.Error(err))
	}
}

// Close 停止接收新任务并等待已提交任务完成
func (d *Dispatcher) Close() {
	if d.inline {
		return
	}
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.tasks)
	d.mu.Unlock()
	d.wg.Wait()
}
