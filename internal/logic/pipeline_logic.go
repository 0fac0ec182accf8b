package logic

import (
	"errors"
	"fmt"
	"time"

	"github.com/moka/kcs/internal/bizerr"
	"github.com/moka/kcs/internal/logger"
	"github.com/moka/kcs/internal/model"
	"gorm.io/gorm"
)

// PipelineLogic 合作管道业务逻辑。
// 阶段流转规则集中在 model.PipelineStage 的邻接表里，
// 每次写库都带阶段前置条件，防止两个商务并发改同一条合作时互相覆盖
type PipelineLogic struct {
	db *gorm.DB
}

// NewPipelineLogic 创建合作管道业务逻辑
func NewPipelineLogic(db *gorm.DB) *PipelineLogic {
	return &PipelineLogic{db: db}
}

// CreateCollaboration 创建合作记录，初始阶段 LEAD，并写入首条阶段历史
func (l *PipelineLogic) CreateCollaboration(brandInfluencerId, staffId string, deadline *time.Time) (*model.CollaborationModel, error) {
	var link model.BrandInfluencerModel
	err := l.db.First(&link, "id = ?", brandInfluencerId).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &bizerr.NotFoundError{Entity: "品牌达人关系"}
	}
	if err != nil {
		return nil, fmt.Errorf("获取品牌达人关系失败: %w", err)
	}

	collab := &model.CollaborationModel{
		BrandInfluencerId: brandInfluencerId,
		StaffId:           staffId,
		Stage:             model.StageLead,
		Deadline:          deadline,
	}

	err = l.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(collab).Error; err != nil {
			return err
		}
		history := &model.StageHistoryModel{
			CollaborationId: collab.Id,
			FromStage:       nil,
			ToStage:         model.StageLead,
			Notes:           "创建合作记录",
		}
		return tx.Create(history).Error
	})
	if err != nil {
		return nil, fmt.Errorf("创建合作记录失败: %w", err)
	}
	return collab, nil
}

// GetCollaboration 获取合作详情
func (l *PipelineLogic) GetCollaboration(id string) (*model.CollaborationModel, error) {
	var collab model.CollaborationModel
	err := l.db.Preload("BrandInfluencer").
		Preload("BrandInfluencer.Influencer").
		Preload("StageHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("changed_at ASC")
		}).
		Preload("Dispatches").
		Preload("Result").
		First(&collab, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &bizerr.NotFoundError{Entity: "合作记录"}
	}
	if err != nil {
		return nil, fmt.Errorf("获取合作记录失败: %w", err)
	}
	return &collab, nil
}

// Advance 正向推进一步。阶段校验用邻接表，写库带阶段前置条件。
// REVIEWED 不是合法目标：复盘阶段只随结果录入进入，保证每条复盘合作都有结果
func (l *PipelineLogic) Advance(id string, to model.PipelineStage, notes string) (*model.CollaborationModel, error) {
	if !to.Valid() || to.Halted() {
		return nil, &bizerr.ValidationError{Field: "stage", Message: "无效的目标阶段"}
	}
	if to.Terminal() {
		return nil, &bizerr.ValidationError{Field: "stage", Message: "复盘阶段由结果录入自动进入"}
	}
	return l.transition(id, func(from model.PipelineStage) error {
		if !from.CanAdvanceTo(to) {
			return &bizerr.InvalidTransitionError{From: string(from), To: string(to)}
		}
		return nil
	}, to, model.BlockReason(""), notes)
}

// Cancel 从任意非终态进入 CANCELLED
func (l *PipelineLogic) Cancel(id string, reason model.BlockReason, notes string) (*model.CollaborationModel, error) {
	return l.halt(id, model.StageCancelled, reason, notes)
}

// Block 从任意非终态进入 BLOCKED
func (l *PipelineLogic) Block(id string, reason model.BlockReason, notes string) (*model.CollaborationModel, error) {
	return l.halt(id, model.StageBlocked, reason, notes)
}

func (l *PipelineLogic) halt(id string, to model.PipelineStage, reason model.BlockReason, notes string) (*model.CollaborationModel, error) {
	return l.transition(id, func(from model.PipelineStage) error {
		if !from.CanAdvanceTo(to) {
			return &bizerr.InvalidTransitionError{From: string(from), To: string(to)}
		}
		return nil
	}, to, reason, notes)
}

// Reopen 把取消/卡点的合作恢复到停摆前的阶段
func (l *PipelineLogic) Reopen(id string, notes string) (*model.CollaborationModel, error) {
	collab, err := l.GetCollaboration(id)
	if err != nil {
		return nil, err
	}
	if !collab.Stage.Halted() {
		return nil, &bizerr.InvalidTransitionError{From: string(collab.Stage), To: "reopen"}
	}

	// 从历史里找停摆前最后一个有序阶段
	resume := model.StageLead
	for i := len(collab.StageHistory) - 1; i >= 0; i-- {
		stage := collab.StageHistory[i].ToStage
		if !stage.Halted() {
			resume = stage
			break
		}
	}

	return l.transition(id, func(from model.PipelineStage) error {
		if !from.Halted() {
			return &bizerr.InvalidTransitionError{From: string(from), To: string(resume)}
		}
		return nil
	}, resume, model.BlockReason(""), notes)
}

// transition 一次阶段流转：读当前阶段、业务校验、带前置条件写回、追加历史。
// 前置条件没命中说明有并发写入，按冲突返回，不盲写
func (l *PipelineLogic) transition(id string, validate func(model.PipelineStage) error, to model.PipelineStage, reason model.BlockReason, notes string) (*model.CollaborationModel, error) {
	var updated *model.CollaborationModel

	err := l.db.Transaction(func(tx *gorm.DB) error {
		var collab model.CollaborationModel
		err := tx.First(&collab, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &bizerr.NotFoundError{Entity: "合作记录"}
		}
		if err != nil {
			return err
		}

		from := collab.Stage
		if err := validate(from); err != nil {
			return err
		}

		updates := map[string]interface{}{
			"stage":        to,
			"block_reason": reason,
		}
		result := tx.Model(&model.CollaborationModel{}).
			Where("id = ? AND stage = ?", id, from).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// 另一个请求先改了阶段
			return &bizerr.StaleStageError{CollaborationId: id, Stage: string(from)}
		}

		history := &model.StageHistoryModel{
			CollaborationId: id,
			FromStage:       &from,
			ToStage:         to,
			Notes:           notes,
		}
		if err := tx.Create(history).Error; err != nil {
			return err
		}

		collab.Stage = to
		collab.BlockReason = reason
		updated = &collab
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Collaboration %s moved to stage %s", id, to)
	return updated, nil
}

// SetDeadline 设置或清除截止时间，终态合作不再接受
func (l *PipelineLogic) SetDeadline(id string, deadline *time.Time) (*model.CollaborationModel, error) {
	collab, err := l.GetCollaboration(id)
	if err != nil {
		return nil, err
	}
	if collab.Stage.Terminal() {
		return nil, &bizerr.InvalidTransitionError{From: string(collab.Stage), To: "set_deadline"}
	}
	if err := l.db.Model(&model.CollaborationModel{}).
		Where("id = ?", id).
		Update("deadline", deadline).Error; err != nil {
		return nil, fmt.Errorf("设置截止时间失败: %w", err)
	}
	collab.Deadline = deadline
	return collab, nil
}

// PipelineStageGroup 管道视图的单个阶段
type PipelineStageGroup struct {
	Stage          model.PipelineStage       `json:"stage"`
	Count          int                       `json:"count"`
	Collaborations []model.CollaborationModel `json:"collaborations"`
}

// GetPipelineView 按阶段分组返回品牌下的全部合作
func (l *PipelineLogic) GetPipelineView(brandId string) ([]PipelineStageGroup, error) {
	var collabs []model.CollaborationModel
	err := l.db.Joins("JOIN brand_influencer ON brand_influencer.id = collaboration.brand_influencer_id").
		Where("brand_influencer.brand_id = ?", brandId).
		Preload("BrandInfluencer").
		Preload("BrandInfluencer.Influencer").
		Order("collaboration.updated_at DESC").
		Find(&collabs).Error
	if err != nil {
		return nil, fmt.Errorf("获取管道视图失败: %w", err)
	}

	grouped := make(map[model.PipelineStage][]model.CollaborationModel)
	for _, c := range collabs {
		grouped[c.Stage] = append(grouped[c.Stage], c)
	}

	stages := append([]model.PipelineStage{}, model.StageOrder...)
	stages = append(stages, model.StageBlocked, model.StageCancelled)

	view := make([]PipelineStageGroup, 0, len(stages))
	for _, stage := range stages {
		view = append(view, PipelineStageGroup{
			Stage:          stage,
			Count:          len(grouped[stage]),
			Collaborations: grouped[stage],
		})
	}
	return view, nil
}
