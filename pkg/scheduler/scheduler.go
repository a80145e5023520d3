package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"stationery/pkg/core/logger"
	"stationery/pkg/lock"
)

// Scheduler 按下次执行时间驱动任务。任务出堆后执行，完成后才重新入堆，同一任务不会重叠执行
type Scheduler struct {
	checkInterval time.Duration
	leaderLock    lock.DistributedLock

	running atomic.Bool
	leader  atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	queue   *taskQueue
	workers chan struct{}

	timerMu sync.Mutex
	timer   *time.Timer

	counters counters
	log      *logger.Log
}

type counters struct {
	total       atomic.Int64
	completed   atomic.Int64
	failed      atomic.Int64
	distributed atomic.Int64
	local       atomic.Int64
	elections   atomic.Int64
	lastRun     atomic.Int64
}

// SchedulerStats 计数快照
type SchedulerStats struct {
	TotalTasks       int64     `json:"total_tasks"`
	CompletedTasks   int64     `json:"completed_tasks"`
	FailedTasks      int64     `json:"failed_tasks"`
	DistributedTasks int64     `json:"distributed_tasks"`
	LocalTasks       int64     `json:"local_tasks"`
	LeaderElections  int64     `json:"leader_elections"`
	LastExecuteTime  time.Time `json:"last_execute_time"`
}

type SchedulerConfig struct {
	NodeID        string        `json:"node_id"`
	LockKey       string        `json:"lock_key"`
	LockTTL       time.Duration `json:"lock_ttl"`
	CheckInterval time.Duration `json:"check_interval"` // 选主周期
	MaxWorkers    int           `json:"max_workers"`
}

func DefaultSchedulerConfig() *SchedulerConfig {
	return &SchedulerConfig{
		NodeID:        fmt.Sprintf("scheduler-%d", time.Now().UnixNano()),
		LockKey:       "stationery/scheduler/leader",
		LockTTL:       30 * time.Second,
		CheckInterval: time.Second,
		MaxWorkers:    10,
	}
}

func (c SchedulerConfig) withDefaults() SchedulerConfig {
	def := DefaultSchedulerConfig()
	if c.NodeID == "" {
		c.NodeID = def.NodeID
	}
	if c.LockKey == "" {
		c.LockKey = def.LockKey
	}
	if c.LockTTL <= 0 {
		c.LockTTL = def.LockTTL
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = def.CheckInterval
	}
	if c.MaxWorkers <= 0 {
		c.MaxWorkers = def.MaxWorkers
	}
	return c
}

// NewScheduler lockManager 为空时按单实例运行，本节点总是领导者
func NewScheduler(lockManager lock.LockManager, config *SchedulerConfig) *Scheduler {
	var cfg SchedulerConfig
	if config != nil {
		cfg = *config
	}
	cfg = cfg.withDefaults()
	if lockManager == nil {
		lockManager = lock.NewLocalLockManager()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		checkInterval: cfg.CheckInterval,
		// 续期由每个选主周期的 TryLock 完成
		leaderLock: lockManager.NewLock(cfg.LockKey, &lock.LockOptions{TTL: cfg.LockTTL, RetryInterval: time.Second}),
		ctx:        ctx,
		cancel:     cancel,
		queue:      newTaskQueue(),
		workers:    make(chan struct{}, cfg.MaxWorkers),
		log:        logger.GetLogger().WithEntryName("Scheduler").WithField("node", cfg.NodeID),
	}
}

func (s *Scheduler) Start() error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("调度器已经在运行")
	}
	s.log.Info("启动调度器")

	// 启动时先选一次主，分布式任务不必等第一个周期
	s.elect()

	s.wg.Add(1)
	go s.electLoop()
	s.schedule()
	return nil
}

// Stop 等待执行中的任务返回，任务上下文会被取消
func (s *Scheduler) Stop() error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	s.log.Info("停止调度器")
	s.cancel()

	if s.leaderLock.IsLocked() {
		if err := s.leaderLock.Unlock(context.Background()); err != nil {
			s.log.WithErr(err).Error("释放领导者锁失败")
		}
	}

	s.timerMu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.timerMu.Unlock()

	s.wg.Wait()
	s.log.Info("调度器已停止")
	return nil
}

// AddTask 只接受运行中的调度器
func (s *Scheduler) AddTask(task Task) error {
	if !s.running.Load() {
		return fmt.Errorf("调度器未运行")
	}

	s.queue.push(task)
	s.counters.total.Add(1)
	s.log.WithField("task", task.GetName()).Infof("添加任务 [%s]", task.GetID())
	s.schedule()
	return nil
}

// ListTasks 堆中等待的任务，执行中的不在其中
func (s *Scheduler) ListTasks() []Task {
	return s.queue.list()
}

func (s *Scheduler) GetStats() *SchedulerStats {
	c := &s.counters
	stats := &SchedulerStats{
		TotalTasks:       c.total.Load(),
		CompletedTasks:   c.completed.Load(),
		FailedTasks:      c.failed.Load(),
		DistributedTasks: c.distributed.Load(),
		LocalTasks:       c.local.Load(),
		LeaderElections:  c.elections.Load(),
	}
	if ns := c.lastRun.Load(); ns > 0 {
		stats.LastExecuteTime = time.Unix(0, ns)
	}
	return stats
}

func (s *Scheduler) IsLeader() bool {
	return s.leader.Load()
}

func (s *Scheduler) IsRunning() bool {
	return s.running.Load()
}

func (s *Scheduler) electLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.elect()
		}
	}
}

// elect 拿到锁即为领导者，拿不到或出错都按跟随者处理
func (s *Scheduler) elect() {
	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	defer cancel()

	locked, err := s.leaderLock.TryLock(ctx)
	if err != nil {
		s.log.WithErr(err).Error("获取领导者锁失败")
	}

	switch {
	case locked && !s.leader.Load():
		s.leader.Store(true)
		s.counters.elections.Add(1)
		s.log.Info("成为领导者")
	case !locked && s.leader.Load():
		s.leader.Store(false)
		s.log.Info("失去领导者身份")
	}
}

// schedule 把定时器对齐到堆顶任务
func (s *Scheduler) schedule() {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
	}
	next, ok := s.queue.nextTime()
	if !ok || !s.running.Load() {
		return
	}
	wait := time.Until(next)
	if wait < 0 {
		wait = 0
	}
	s.timer = time.AfterFunc(wait, s.fire)
}

func (s *Scheduler) fire() {
	if !s.running.Load() {
		return
	}

	ready := s.queue.popReady(time.Now())
	for _, task := range ready {
		s.dispatch(task)
	}
	// 出堆的任务完成后各自重排定时器
	if len(ready) == 0 {
		s.schedule()
	}
}

func (s *Scheduler) dispatch(task Task) {
	if task.GetExecuteMode() == TaskExecuteModeDistributed {
		if !s.leader.Load() {
			// 跟随者跳过本周期，一次性任务等下个选主周期再试
			retry := time.Now()
			if task.GetType() == TaskTypeOnce {
				retry = retry.Add(s.checkInterval)
			}
			s.requeue(task, retry)
			return
		}
		s.counters.distributed.Add(1)
	} else {
		s.counters.local.Add(1)
	}

	select {
	case s.workers <- struct{}{}:
	default:
		s.log.WithField("task", task.GetName()).Warn("工作者池已满，任务延后执行")
		s.requeue(task, time.Now().Add(time.Second))
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() { <-s.workers }()
		s.run(task)
	}()
}

func (s *Scheduler) run(task Task) {
	start := time.Now()
	log := s.log.WithField("task", task.GetName())

	ctx, cancel := context.WithTimeout(s.ctx, task.GetTimeout())
	err := s.execute(ctx, task)
	cancel()

	s.counters.lastRun.Store(start.UnixNano())
	elapsed := time.Since(start).String()
	if err != nil {
		s.counters.failed.Add(1)
		log.WithErr(err).WithField("duration", elapsed).Error("任务执行失败")
	} else {
		s.counters.completed.Add(1)
		log.WithField("duration", elapsed).Debug("任务执行完成")
	}

	// 一次性任务无论成败只执行一次
	if task.GetType() == TaskTypeOnce {
		if !task.IsCompleted() {
			task.SetStatus(TaskStatusFailed)
		}
		s.schedule()
		return
	}
	s.requeue(task, time.Now())
}

// requeue 推进下次执行时间后放回堆中；已完成或没有下次时间的任务直接丢弃
func (s *Scheduler) requeue(task Task, now time.Time) {
	if !task.IsCompleted() {
		if next := task.UpdateNextTime(now); !next.IsZero() {
			task.SetStatus(TaskStatusWaiting)
			s.queue.push(task)
		}
	}
	s.schedule()
}

// execute 任务 panic 记为一次失败
func (s *Scheduler) execute(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			task.SetStatus(TaskStatusFailed)
			err = fmt.Errorf("任务 panic: %v", r)
		}
	}()
	return task.Execute(ctx)
}
