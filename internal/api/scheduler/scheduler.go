package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/taufiqulumam/task-management/internal/model"
	"github.com/taufiqulumam/task-management/internal/pkg/metrics"
	"github.com/taufiqulumam/task-management/internal/pkg/notify"
	"github.com/taufiqulumam/task-management/internal/pkg/queue"

	"log/slog"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const reminderKeyPrefix = "taskboard:reminder:sent:"

// Scheduler 负责任务到期提醒的后台扫描。
//
// 每个扫描周期找出将在提醒窗口内到期、尚未完成或取消、且有指派人的
// 任务，对每个任务最多提醒一次（以 Redis SETNX 标记去重，标记随任务
// 截止时间过期），提醒邮件通过 worker 池异步发送。
type Scheduler struct {
	db       *gorm.DB
	rdb      *redis.Client
	logger   *slog.Logger
	notifier notify.Notifier
	queue    *queue.Queue

	interval time.Duration
	window   time.Duration
}

// NewScheduler 创建一个新的提醒调度器实例。
//
// 参数:
//
//	db: 数据库连接
//	rdb: Redis 客户端（提醒去重标记）
//	logger: 日志记录器
//	notifier: 通知发送器
//	interval: 扫描间隔
//	window: 提前提醒窗口
func NewScheduler(db *gorm.DB, rdb *redis.Client, logger *slog.Logger, notifier notify.Notifier, interval, window time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &Scheduler{
		db:       db,
		rdb:      rdb,
		logger:   logger,
		notifier: notifier,
		queue:    queue.NewQueue(logger, 2, 64),
		interval: interval,
		window:   window,
	}
}

// Start 启动后台扫描循环，直到 ctx 被取消。
func (s *Scheduler) Start(ctx context.Context) {
	s.queue.Start(ctx)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info("reminder scheduler stopped")
				return
			case <-ticker.C:
				if n, err := s.Sweep(ctx); err != nil {
					s.logger.Error("reminder sweep failed", slog.String("error", err.Error()))
				} else if n > 0 {
					s.logger.Info("reminder sweep done", slog.Int("enqueued", n))
				}
			}
		}
	}()
}

// Sweep 执行一次扫描，返回本轮入队的提醒数量。
func (s *Scheduler) Sweep(ctx context.Context) (int, error) {
	now := time.Now()
	deadline := now.Add(s.window)

	var tasks []model.Task
	err := s.db.WithContext(ctx).
		Preload("Assignee").
		Where("due_date IS NOT NULL").
		Where("due_date > ? AND due_date <= ?", now, deadline).
		Where("status NOT IN ?", []model.TaskStatus{model.StatusDone, model.StatusCancelled}).
		Where("assignee_id IS NOT NULL").
		Find(&tasks).Error
	if err != nil {
		return 0, fmt.Errorf("query due tasks: %w", err)
	}

	enqueued := 0
	for i := range tasks {
		task := tasks[i]
		if task.Assignee == nil || task.Assignee.Email == "" {
			continue
		}

		claimed, err := s.claim(ctx, task.ID, *task.DueDate)
		if err != nil {
			s.logger.Warn("reminder claim failed",
				slog.Uint64("task_id", uint64(task.ID)),
				slog.String("error", err.Error()))
			continue
		}
		if !claimed {
			continue
		}

		email := task.Assignee.Email
		title := task.Title
		due := *task.DueDate
		s.queue.Enqueue(func(ctx context.Context) error {
			if err := s.notifier.SendDueReminder(ctx, email, title, due); err != nil {
				return err
			}
			metrics.RemindersSentTotal.Inc()
			return nil
		})
		enqueued++
	}
	return enqueued, nil
}

// claim 以 SETNX 抢占提醒标记，确保同一任务同一截止时间只提醒一次。
// 标记在截止时间后自动过期，截止时间被改动会产生新的标记。
func (s *Scheduler) claim(ctx context.Context, taskID uint, dueAt time.Time) (bool, error) {
	key := fmt.Sprintf("%s%d:%d", reminderKeyPrefix, taskID, dueAt.Unix())
	ttl := time.Until(dueAt) + time.Hour
	return s.rdb.SetNX(ctx, key, 1, ttl).Result()
}

// Shutdown 关闭发送队列，等待在途邮件完成。
func (s *Scheduler) Shutdown() {
	s.queue.Shutdown()
}
