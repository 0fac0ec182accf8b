package task

import (
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/moka/kcs/internal/config"
	"github.com/moka/kcs/internal/logger"
	"github.com/moka/kcs/internal/logic"
	"github.com/moka/kcs/internal/model"
	"github.com/moka/kcs/internal/notifier"
	"github.com/panjf2000/ants/v2"
	"gorm.io/gorm"
)

// SweepJob 截止时间扫描任务
type SweepJob struct {
	sweepLogic *logic.SweepLogic
	notifier   notifier.Notifier
	config     *config.Config
}

// NewSweepJob 创建截止时间扫描任务
func NewSweepJob(db *gorm.DB, cfg *config.Config, n notifier.Notifier) *SweepJob {
	return &SweepJob{
		sweepLogic: logic.NewSweepLogic(db, cfg.Engine),
		notifier:   n,
		config:     cfg,
	}
}

// GetName 获取任务名称
func (j *SweepJob) GetName() string {
	return "deadline_sweeper"
}

// GetSchedule 获取调度配置
func (j *SweepJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.SweepInterval) * time.Second)
}

// Execute 执行任务
func (j *SweepJob) Execute() {
	logger.Info("Starting deadline sweep task")

	events, err := j.sweepLogic.Sweep(time.Now())
	if err != nil {
		logger.Error("Deadline sweep failed: %v", err)
		return
	}
	if len(events) == 0 {
		logger.Info("Deadline sweep completed, nothing to notify")
		return
	}

	// 用协程池并发分发通知，单条失败不影响其他事件
	workers := j.config.Task.NotifyWorkers
	if workers <= 0 {
		workers = 1
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		logger.Error("Failed to create notify pool: %v", err)
		return
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for _, event := range events {
		e := event
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			j.deliver(e)
		})
		if submitErr != nil {
			wg.Done()
			logger.Error("Failed to submit notify task: %v", submitErr)
		}
	}
	wg.Wait()

	logger.Info("Deadline sweep completed. Delivered %d events", len(events))
}

func (j *SweepJob) deliver(event model.NotificationEventModel) {
	if err := j.notifier.Notify(event); err != nil {
		logger.Error("Failed to deliver event %s/%s: %v",
			event.EntityId, event.EventType, err)
	}
}
