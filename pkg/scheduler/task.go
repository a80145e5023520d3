package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

type TaskType int

const (
	TaskTypeOnce TaskType = iota
	TaskTypeInterval
	TaskTypeCron
)

type TaskStatus int

const (
	TaskStatusWaiting TaskStatus = iota
	TaskStatusRunning
	TaskStatusCompleted
	TaskStatusFailed
)

// TaskExecuteMode 分布式任务只在持有领导者锁的节点执行
type TaskExecuteMode int

const (
	TaskExecuteModeDistributed TaskExecuteMode = iota
	TaskExecuteModeLocal
)

const defaultTaskTimeout = 30 * time.Second

type TaskFunc func(ctx context.Context) error

// Task 由调度器驱动的任务。UpdateNextTime 返回零值表示不再调度
type Task interface {
	GetID() string
	GetName() string
	GetType() TaskType
	GetExecuteMode() TaskExecuteMode
	GetNextTime() time.Time
	GetTimeout() time.Duration
	Execute(ctx context.Context) error
	UpdateNextTime(now time.Time) time.Time
	CanExecute(now time.Time) bool
	IsCompleted() bool
	GetStatus() TaskStatus
	SetStatus(status TaskStatus)
}

// BaseTask 三种任务共用的字段；NextTime 只在任务不在堆里时修改
type BaseTask struct {
	ID          string
	Name        string
	Type        TaskType
	ExecuteMode TaskExecuteMode
	NextTime    time.Time
	Timeout     time.Duration
	Func        TaskFunc

	mu     sync.RWMutex
	status TaskStatus
}

func newBaseTask(name string, typ TaskType, mode TaskExecuteMode, next time.Time, timeout time.Duration, fn TaskFunc) *BaseTask {
	return &BaseTask{
		ID:          uuid.New().String(),
		Name:        name,
		Type:        typ,
		ExecuteMode: mode,
		NextTime:    next,
		Timeout:     timeout,
		Func:        fn,
	}
}

func (t *BaseTask) GetID() string                   { return t.ID }
func (t *BaseTask) GetName() string                 { return t.Name }
func (t *BaseTask) GetType() TaskType               { return t.Type }
func (t *BaseTask) GetExecuteMode() TaskExecuteMode { return t.ExecuteMode }
func (t *BaseTask) GetNextTime() time.Time          { return t.NextTime }

func (t *BaseTask) GetTimeout() time.Duration {
	if t.Timeout <= 0 {
		return defaultTaskTimeout
	}
	return t.Timeout
}

// Execute 执行结束后一次性任务为 completed，周期任务回到 waiting，出错为 failed
func (t *BaseTask) Execute(ctx context.Context) error {
	if t.Func == nil {
		return nil
	}

	t.SetStatus(TaskStatusRunning)
	if err := t.Func(ctx); err != nil {
		t.SetStatus(TaskStatusFailed)
		return err
	}

	if t.Type == TaskTypeOnce {
		t.SetStatus(TaskStatusCompleted)
	} else {
		t.SetStatus(TaskStatusWaiting)
	}
	return nil
}

func (t *BaseTask) CanExecute(now time.Time) bool {
	return t.GetStatus() == TaskStatusWaiting && !now.Before(t.NextTime)
}

func (t *BaseTask) IsCompleted() bool {
	return t.GetStatus() == TaskStatusCompleted
}

func (t *BaseTask) GetStatus() TaskStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

func (t *BaseTask) SetStatus(status TaskStatus) {
	t.mu.Lock()
	t.status = status
	t.mu.Unlock()
}

type OnceTask struct {
	*BaseTask
}

func NewOnceTask(name string, at time.Time, mode TaskExecuteMode, timeout time.Duration, fn TaskFunc) *OnceTask {
	return &OnceTask{BaseTask: newBaseTask(name, TaskTypeOnce, mode, at, timeout, fn)}
}

// UpdateNextTime 未执行的一次性任务只会被推迟，不会提前
func (t *OnceTask) UpdateNextTime(now time.Time) time.Time {
	if now.After(t.NextTime) {
		t.NextTime = now
	}
	return t.NextTime
}

// IntervalTask 固定频率，以上次计划时间而不是完成时间为基准
type IntervalTask struct {
	*BaseTask
	Interval time.Duration
}

func NewIntervalTask(name string, start time.Time, interval time.Duration, mode TaskExecuteMode, timeout time.Duration, fn TaskFunc) *IntervalTask {
	if interval <= 0 {
		interval = time.Second
	}
	return &IntervalTask{
		BaseTask: newBaseTask(name, TaskTypeInterval, mode, start, timeout, fn),
		Interval: interval,
	}
}

// UpdateNextTime 执行耗时跨过的周期直接跳过，不补跑
func (t *IntervalTask) UpdateNextTime(now time.Time) time.Time {
	next := t.NextTime.Add(t.Interval)
	if !next.After(now) {
		next = next.Add((now.Sub(next)/t.Interval + 1) * t.Interval)
	}
	t.NextTime = next
	return next
}

// cronParser 六段式，第一段为秒
var cronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

type CronTask struct {
	*BaseTask
	Expr     string
	schedule cron.Schedule
}

func NewCronTask(name, expr string, mode TaskExecuteMode, timeout time.Duration, fn TaskFunc) (*CronTask, error) {
	schedule, err := cronParser.Parse(expr)
	if err != nil {
		return nil, err
	}
	return &CronTask{
		BaseTask: newBaseTask(name, TaskTypeCron, mode, schedule.Next(time.Now()), timeout, fn),
		Expr:     expr,
		schedule: schedule,
	}, nil
}

func (t *CronTask) UpdateNextTime(now time.Time) time.Time {
	t.NextTime = t.schedule.Next(now)
	return t.NextTime
}
