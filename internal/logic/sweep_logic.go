package logic

import (
	"errors"
	"fmt"
	"time"

	"github.com/moka/kcs/internal/config"
	"github.com/moka/kcs/internal/logger"
	"github.com/moka/kcs/internal/model"
	"gorm.io/gorm"
)

// SweepLogic 截止时间扫描业务逻辑。
// 只读业务数据，产出提醒事件；(entity, event_type, period) 唯一索引
// 保证同一周期内重复扫描不重复提醒。单条实体出错只记日志不中断
type SweepLogic struct {
	db  *gorm.DB
	cfg config.EngineConfig
}

// NewSweepLogic 创建扫描业务逻辑
func NewSweepLogic(db *gorm.DB, cfg config.EngineConfig) *SweepLogic {
	return &SweepLogic{db: db, cfg: cfg}
}

// Sweep 执行一轮扫描，返回本轮新产生的提醒事件
func (l *SweepLogic) Sweep(now time.Time) ([]model.NotificationEventModel, error) {
	period := now.Truncate(l.cfg.SweepPeriod())

	var emitted []model.NotificationEventModel
	emitted = append(emitted, l.sweepDeadlines(now, period)...)
	emitted = append(emitted, l.sweepPendingSamples(now, period)...)
	emitted = append(emitted, l.sweepPendingResults(now, period)...)

	logger.Info("Sweep at %s emitted %d events", now.Format("2006-01-02 15:04:05"), len(emitted))
	return emitted, nil
}

// sweepDeadlines 检查合作截止时间：临期和超期
func (l *SweepLogic) sweepDeadlines(now, period time.Time) []model.NotificationEventModel {
	var collabs []model.CollaborationModel
	err := l.db.Preload("BrandInfluencer").
		Where("deadline IS NOT NULL").
		Where("stage NOT IN ?", []model.PipelineStage{
			model.StageReviewed, model.StageCancelled,
		}).
		Find(&collabs).Error
	if err != nil {
		logger.Error("Failed to fetch collaborations for deadline sweep: %v", err)
		return nil
	}

	var emitted []model.NotificationEventModel
	approaching := l.cfg.ApproachingWindow()

	for _, collab := range collabs {
		deadline := *collab.Deadline
		var eventType model.EventType
		var severity string

		switch {
		case now.After(deadline):
			eventType = model.EventDeadlineOverdue
			severity = model.SeverityWarning
		case deadline.Sub(now) <= approaching:
			eventType = model.EventDeadlineApproaching
			severity = model.SeverityInfo
		default:
			continue
		}

		event := model.NotificationEventModel{
			EntityId:  collab.Id,
			EventType: eventType,
			Period:    period,
			StaffId:   collab.StaffId,
			Severity:  severity,
			Payload: fmt.Sprintf(`{"collaboration_id":%q,"stage":%q,"deadline":%q}`,
				collab.Id, collab.Stage, deadline.Format(time.RFC3339)),
		}
		if l.emit(&event) {
			emitted = append(emitted, event)
		}
	}
	return emitted
}

// sweepPendingSamples 检查寄出超过阈值仍未签收的样品
func (l *SweepLogic) sweepPendingSamples(now, period time.Time) []model.NotificationEventModel {
	cutoff := now.Add(-l.cfg.SamplePendingAge())

	var dispatches []model.SampleDispatchModel
	err := l.db.Where("received_status = ? AND dispatched_at < ?",
		model.ReceivedStatusPending, cutoff).
		Find(&dispatches).Error
	if err != nil {
		logger.Error("Failed to fetch dispatches for sweep: %v", err)
		return nil
	}

	var emitted []model.NotificationEventModel
	for _, dispatch := range dispatches {
		event := model.NotificationEventModel{
			EntityId:  dispatch.Id,
			EventType: model.EventSampleNotReceived,
			Period:    period,
			StaffId:   dispatch.StaffId,
			Severity:  model.SeverityWarning,
			Payload: fmt.Sprintf(`{"dispatch_id":%q,"collaboration_id":%q,"dispatched_at":%q}`,
				dispatch.Id, dispatch.CollaborationId, dispatch.DispatchedAt.Format(time.RFC3339)),
		}
		if l.emit(&event) {
			emitted = append(emitted, event)
		}
	}
	return emitted
}

// sweepPendingResults 检查发布后超过阈值仍未录入结果的合作。
// 发布时刻以阶段历史里最后一条 PUBLISHED 记录为准，合作记录上的
// 无关写入（如改截止时间）不会推迟提醒
func (l *SweepLogic) sweepPendingResults(now, period time.Time) []model.NotificationEventModel {
	cutoff := now.Add(-l.cfg.ResultPendingAge())

	var collabs []model.CollaborationModel
	err := l.db.Preload("Result").
		Where("stage = ?", model.StagePublished).
		Where("id IN (?)", l.db.Model(&model.StageHistoryModel{}).
			Select("collaboration_id").
			Where("to_stage = ?", model.StagePublished).
			Group("collaboration_id").
			Having("MAX(changed_at) < ?", cutoff)).
		Find(&collabs).Error
	if err != nil {
		logger.Error("Failed to fetch published collaborations for sweep: %v", err)
		return nil
	}

	var emitted []model.NotificationEventModel
	for _, collab := range collabs {
		if collab.Result != nil {
			continue
		}
		event := model.NotificationEventModel{
			EntityId:  collab.Id,
			EventType: model.EventResultNotRecorded,
			Period:    period,
			StaffId:   collab.StaffId,
			Severity:  model.SeverityInfo,
			Payload:   fmt.Sprintf(`{"collaboration_id":%q}`, collab.Id),
		}
		if l.emit(&event) {
			emitted = append(emitted, event)
		}
	}
	return emitted
}

// emit 落库一条提醒事件。撞唯一索引说明本周期已提醒过，静默跳过；
// 其他错误只记日志，不让单条失败中断整轮扫描
func (l *SweepLogic) emit(event *model.NotificationEventModel) bool {
	err := l.db.Create(event).Error
	if err == nil {
		return true
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return false
	}
	logger.Error("Failed to persist notification event %s/%s: %v",
		event.EntityId, event.EventType, err)
	return false
}
