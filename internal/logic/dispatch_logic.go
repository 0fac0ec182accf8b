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

// DispatchLogic 寄样台账业务逻辑。
// 成本用分为单位的整数计算，单件成本在寄样时快照
type DispatchLogic struct {
	db *gorm.DB
}

// NewDispatchLogic 创建寄样台账业务逻辑
func NewDispatchLogic(db *gorm.DB) *DispatchLogic {
	return &DispatchLogic{db: db}
}

// DispatchInput 寄样输入
type DispatchInput struct {
	CollaborationId string `json:"collaboration_id" binding:"required"`
	SampleId        string `json:"sample_id" binding:"required"`
	StaffId         string `json:"staff_id"`
	Quantity        int64  `json:"quantity" binding:"required"`
	ShippingCost    int64  `json:"shipping_cost"`
	TrackingNumber  string `json:"tracking_number"`
}

// Dispatch 创建寄样记录并自动把合作推进到 SAMPLED。
// total_cost = quantity*unit_cost_snapshot+shipping_cost，快照后样品改价不回溯
func (l *DispatchLogic) Dispatch(input DispatchInput) (*model.SampleDispatchModel, error) {
	if input.Quantity <= 0 {
		return nil, &bizerr.ValidationError{Field: "quantity", Message: "寄样数量必须大于0"}
	}
	if input.ShippingCost < 0 {
		return nil, &bizerr.ValidationError{Field: "shipping_cost", Message: "快递费不能为负数"}
	}

	var dispatch *model.SampleDispatchModel
	err := l.db.Transaction(func(tx *gorm.DB) error {
		var sample model.SampleModel
		err := tx.First(&sample, "id = ?", input.SampleId).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &bizerr.NotFoundError{Entity: "样品"}
		}
		if err != nil {
			return err
		}

		var collab model.CollaborationModel
		err = tx.First(&collab, "id = ?", input.CollaborationId).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &bizerr.NotFoundError{Entity: "合作记录"}
		}
		if err != nil {
			return err
		}

		now := time.Now()
		d := &model.SampleDispatchModel{
			SampleId:         sample.Id,
			CollaborationId:  collab.Id,
			StaffId:          input.StaffId,
			Quantity:         input.Quantity,
			UnitCostSnapshot: sample.UnitCost,
			ShippingCost:     input.ShippingCost,
			TotalCost:        input.Quantity*sample.UnitCost + input.ShippingCost,
			TrackingNumber:   input.TrackingNumber,
			ReceivedStatus:   model.ReceivedStatusPending,
			OnboardStatus:    model.OnboardStatusUnknown,
			DispatchedAt:     now,
		}
		if err := tx.Create(d).Error; err != nil {
			return err
		}

		// 寄样动作触发 QUOTED -> SAMPLED，带阶段前置条件
		if collab.Stage == model.StageQuoted {
			result := tx.Model(&model.CollaborationModel{}).
				Where("id = ? AND stage = ?", collab.Id, model.StageQuoted).
				Update("stage", model.StageSampled)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected > 0 {
				from := model.StageQuoted
				history := &model.StageHistoryModel{
					CollaborationId: collab.Id,
					FromStage:       &from,
					ToStage:         model.StageSampled,
					Notes:           fmt.Sprintf("寄样 %s x%d", sample.Name, input.Quantity),
				}
				if err := tx.Create(history).Error; err != nil {
					return err
				}
			}
		}

		dispatch = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Dispatched sample %s x%d for collaboration %s, total cost %d",
		dispatch.SampleId, dispatch.Quantity, dispatch.CollaborationId, dispatch.TotalCost)
	return dispatch, nil
}

// ConfirmReceipt 确认签收。重复确认是幂等空操作，已丢失的不能再签收
func (l *DispatchLogic) ConfirmReceipt(dispatchId string) (*model.SampleDispatchModel, error) {
	var dispatch model.SampleDispatchModel
	err := l.db.First(&dispatch, "id = ?", dispatchId).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &bizerr.NotFoundError{Entity: "寄样记录"}
	}
	if err != nil {
		return nil, fmt.Errorf("获取寄样记录失败: %w", err)
	}

	switch dispatch.ReceivedStatus {
	case model.ReceivedStatusReceived:
		return &dispatch, nil
	case model.ReceivedStatusLost:
		return nil, &bizerr.ValidationError{Field: "received_status", Message: "已丢失的寄样不能签收"}
	}

	now := time.Now()
	result := l.db.Model(&model.SampleDispatchModel{}).
		Where("id = ? AND received_status = ?", dispatchId, model.ReceivedStatusPending).
		Updates(map[string]interface{}{
			"received_status": model.ReceivedStatusReceived,
			"received_at":     now,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("确认签收失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// 并发下别的请求先改了状态，按当前状态重走校验
		return l.ConfirmReceipt(dispatchId)
	}

	dispatch.ReceivedStatus = model.ReceivedStatusReceived
	dispatch.ReceivedAt = &now
	return &dispatch, nil
}

// MarkLost 标记丢失，终态，之后状态不可再变
func (l *DispatchLogic) MarkLost(dispatchId string) (*model.SampleDispatchModel, error) {
	var dispatch model.SampleDispatchModel
	err := l.db.First(&dispatch, "id = ?", dispatchId).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &bizerr.NotFoundError{Entity: "寄样记录"}
	}
	if err != nil {
		return nil, fmt.Errorf("获取寄样记录失败: %w", err)
	}

	switch dispatch.ReceivedStatus {
	case model.ReceivedStatusLost:
		return &dispatch, nil
	case model.ReceivedStatusReceived:
		return nil, &bizerr.ValidationError{Field: "received_status", Message: "已签收的寄样不能标记丢失"}
	}

	result := l.db.Model(&model.SampleDispatchModel{}).
		Where("id = ? AND received_status = ?", dispatchId, model.ReceivedStatusPending).
		Update("received_status", model.ReceivedStatusLost)
	if result.Error != nil {
		return nil, fmt.Errorf("标记丢失失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// 并发下别的请求先改了状态，按当前状态重走校验
		return l.MarkLost(dispatchId)
	}

	dispatch.ReceivedStatus = model.ReceivedStatusLost
	return &dispatch, nil
}

// SetOnboardStatus 更新上车状态
func (l *DispatchLogic) SetOnboardStatus(dispatchId string, status model.OnboardStatus) (*model.SampleDispatchModel, error) {
	switch status {
	case model.OnboardStatusUnknown, model.OnboardStatusOnboard, model.OnboardStatusNotOnboard:
	default:
		return nil, &bizerr.ValidationError{Field: "onboard_status", Message: "无效的上车状态"}
	}

	result := l.db.Model(&model.SampleDispatchModel{}).
		Where("id = ?", dispatchId).
		Update("onboard_status", status)
	if result.Error != nil {
		return nil, fmt.Errorf("更新上车状态失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, &bizerr.NotFoundError{Entity: "寄样记录"}
	}
	return l.getDispatch(dispatchId)
}

// ListByCollaboration 获取合作下的全部寄样记录
func (l *DispatchLogic) ListByCollaboration(collaborationId string) ([]model.SampleDispatchModel, error) {
	var dispatches []model.SampleDispatchModel
	err := l.db.Preload("Sample").
		Where("collaboration_id = ?", collaborationId).
		Order("dispatched_at DESC").
		Find(&dispatches).Error
	if err != nil {
		return nil, fmt.Errorf("获取寄样记录列表失败: %w", err)
	}
	return dispatches, nil
}

func (l *DispatchLogic) getDispatch(id string) (*model.SampleDispatchModel, error) {
	var dispatch model.SampleDispatchModel
	if err := l.db.First(&dispatch, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("获取寄样记录失败: %w", err)
	}
	return &dispatch, nil
}
