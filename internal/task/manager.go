package task

import (
	"github.com/go-co-op/gocron/v2"
	"github.com/moka/kcs/internal/config"
	"github.com/moka/kcs/internal/logger"
	"github.com/moka/kcs/internal/notifier"
	"gorm.io/gorm"
)

// Manager 任务管理器
type Manager struct {
	scheduler gocron.Scheduler
	db        *gorm.DB
	notifier  notifier.Notifier
	config    *config.Config
}

// NewManager 创建新的任务管理器
func NewManager(db *gorm.DB, n notifier.Notifier, cfg *config.Config) *Manager {
	s, err := gocron.NewScheduler()
	if err != nil {
		logger.Fatal("Failed to create scheduler: %v", err)
	}

	return &Manager{
		scheduler: s,
		db:        db,
		notifier:  n,
		config:    cfg,
	}
}

// Start 启动任务管理器
func Start(db *gorm.DB, n notifier.Notifier, cfg *config.Config) *Manager {
	manager := NewManager(db, n, cfg)

	// 注册所有任务
	manager.RegisterJobs()

	// 启动调度器
	manager.scheduler.Start()

	logger.Info("Task manager started successfully")
	return manager
}

// RegisterJobs 注册所有任务
func (m *Manager) RegisterJobs() {
	// 注册截止时间扫描任务
	m.register(NewSweepJob(m.db, m.config, m.notifier))
	// 注册过期占用清理任务
	m.register(NewClaimGCJob(m.db, m.config))
}

// Job 定时任务接口
type Job interface {
	GetName() string
	GetSchedule() gocron.JobDefinition
	Execute()
}

func (m *Manager) register(job Job) {
	_, err := m.scheduler.NewJob(
		job.GetSchedule(),
		gocron.NewTask(job.Execute),
		gocron.WithName(job.GetName()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		logger.Error("Failed to register job %s: %v", job.GetName(), err)
	}
}

// Stop 停止任务管理器
func (m *Manager) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		logger.Error("Failed to shutdown scheduler: %v", err)
	}
	logger.Info("Task manager stopped")
}
