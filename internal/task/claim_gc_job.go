package task

import (
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/moka/kcs/internal/config"
	"github.com/moka/kcs/internal/logger"
	"github.com/moka/kcs/internal/logic"
	"gorm.io/gorm"
)

// ClaimGCJob 过期占用清理任务。
// 占用有效性在读取时计算，清理只是回收存储，不影响正确性
type ClaimGCJob struct {
	claimLogic *logic.ClaimLogic
	config     *config.Config
}

// NewClaimGCJob 创建过期占用清理任务
func NewClaimGCJob(db *gorm.DB, cfg *config.Config) *ClaimGCJob {
	return &ClaimGCJob{
		claimLogic: logic.NewClaimLogic(db),
		config:     cfg,
	}
}

// GetName 获取任务名称
func (j *ClaimGCJob) GetName() string {
	return "claim_gc"
}

// GetSchedule 获取调度配置
func (j *ClaimGCJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.ClaimGCInterval) * time.Second)
}

// Execute 执行任务
func (j *ClaimGCJob) Execute() {
	removed, err := j.claimLogic.GC(time.Now())
	if err != nil {
		logger.Error("Claim GC failed: %v", err)
		return
	}
	if removed > 0 {
		logger.Info("Claim GC completed. Removed %d claims", removed)
	}
}
