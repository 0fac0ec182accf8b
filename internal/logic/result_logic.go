package logic

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/moka/kcs/internal/bizerr"
	"github.com/moka/kcs/internal/logger"
	"github.com/moka/kcs/internal/model"
	"gorm.io/gorm"
)

// RoiThresholds 回本状态分档阈值，来自配置
type RoiThresholds struct {
	BreakEven  float64 // 低于此值为亏损
	Profit     float64 // 低于此值为保本
	HighProfit float64 // 达到此值为高盈利
}

// ResultLogic 合作结果业务逻辑。
// 结果在 PUBLISHED -> REVIEWED 流转时一次计算，之后不可修改
type ResultLogic struct {
	db         *gorm.DB
	thresholds RoiThresholds
}

// NewResultLogic 创建合作结果业务逻辑
func NewResultLogic(db *gorm.DB, thresholds RoiThresholds) *ResultLogic {
	return &ResultLogic{db: db, thresholds: thresholds}
}

// FinalizeInput 结果录入输入，金额一律为分
type FinalizeInput struct {
	CollaborationId string            `json:"collaboration_id" binding:"required"`
	ContentType     model.ContentType `json:"content_type" binding:"required"`
	PublishedAt     time.Time         `json:"published_at"`
	SalesQuantity   int64             `json:"sales_quantity"`
	SalesGmv        int64             `json:"sales_gmv"`
	CommissionRate  float64           `json:"commission_rate"`
	PitFee          int64             `json:"pit_fee"`
	WillRepeat      bool              `json:"will_repeat"`
}

// Finalize 录入合作结果。
// 计算口径：
//
//	actual_commission        = round(sales_gmv * commission_rate / 100)
//	total_sample_cost        = 该合作全部寄样 total_cost 之和
//	total_collaboration_cost = actual_commission + pit_fee + total_sample_cost
//	roi                      = sales_gmv / total_collaboration_cost（成本为0时无定义）
//
// 副作用：把合作从 PUBLISHED 推进到 REVIEWED。重复录入返回 AlreadyFinalizedError
func (l *ResultLogic) Finalize(input FinalizeInput) (*model.CollaborationResultModel, error) {
	if input.SalesGmv < 0 {
		return nil, &bizerr.ValidationError{Field: "sales_gmv", Message: "销售GMV不能为负数"}
	}
	if input.SalesQuantity < 0 {
		return nil, &bizerr.ValidationError{Field: "sales_quantity", Message: "销售数量不能为负数"}
	}
	if input.CommissionRate < 0 || input.CommissionRate > 100 {
		return nil, &bizerr.ValidationError{Field: "commission_rate", Message: "佣金比例必须在0到100之间"}
	}
	if input.PitFee < 0 {
		return nil, &bizerr.ValidationError{Field: "pit_fee", Message: "坑位费不能为负数"}
	}
	switch input.ContentType {
	case model.ContentTypeShortVideo, model.ContentTypeLiveStream:
	default:
		return nil, &bizerr.ValidationError{Field: "content_type", Message: "无效的内容类型"}
	}
	if input.PublishedAt.IsZero() {
		input.PublishedAt = time.Now()
	}

	var result *model.CollaborationResultModel
	err := l.db.Transaction(func(tx *gorm.DB) error {
		var collab model.CollaborationModel
		err := tx.First(&collab, "id = ?", input.CollaborationId).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &bizerr.NotFoundError{Entity: "合作记录"}
		}
		if err != nil {
			return err
		}

		var existing model.CollaborationResultModel
		err = tx.Where("collaboration_id = ?", input.CollaborationId).First(&existing).Error
		if err == nil {
			return &bizerr.AlreadyFinalizedError{CollaborationId: input.CollaborationId}
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if collab.Stage != model.StagePublished {
			return &bizerr.InvalidTransitionError{From: string(collab.Stage), To: string(model.StageReviewed)}
		}

		// 寄样成本汇总用落库的快照值，不重读样品现价
		var totalSampleCost int64
		err = tx.Model(&model.SampleDispatchModel{}).
			Where("collaboration_id = ?", input.CollaborationId).
			Select("COALESCE(SUM(total_cost), 0)").
			Scan(&totalSampleCost).Error
		if err != nil {
			return err
		}

		actualCommission := int64(math.Round(float64(input.SalesGmv) * input.CommissionRate / 100))
		totalCost := actualCommission + input.PitFee + totalSampleCost

		var roi *float64
		profitStatus := model.ProfitStatusLoss
		if totalCost > 0 {
			v := float64(input.SalesGmv) / float64(totalCost)
			roi = &v
			profitStatus = l.bandRoi(v)
		}

		r := &model.CollaborationResultModel{
			CollaborationId:        input.CollaborationId,
			ContentType:            input.ContentType,
			PublishedAt:            input.PublishedAt,
			SalesQuantity:          input.SalesQuantity,
			SalesGmv:               input.SalesGmv,
			CommissionRate:         input.CommissionRate,
			PitFee:                 input.PitFee,
			ActualCommission:       actualCommission,
			TotalSampleCost:        totalSampleCost,
			TotalCollaborationCost: totalCost,
			Roi:                    roi,
			ProfitStatus:           profitStatus,
			WillRepeat:             input.WillRepeat,
		}
		if err := tx.Create(r).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return &bizerr.AlreadyFinalizedError{CollaborationId: input.CollaborationId}
			}
			return err
		}

		// PUBLISHED -> REVIEWED，带阶段前置条件
		updateResult := tx.Model(&model.CollaborationModel{}).
			Where("id = ? AND stage = ?", input.CollaborationId, model.StagePublished).
			Update("stage", model.StageReviewed)
		if updateResult.Error != nil {
			return updateResult.Error
		}
		if updateResult.RowsAffected == 0 {
			return &bizerr.StaleStageError{CollaborationId: input.CollaborationId, Stage: string(model.StagePublished)}
		}

		from := model.StagePublished
		history := &model.StageHistoryModel{
			CollaborationId: input.CollaborationId,
			FromStage:       &from,
			ToStage:         model.StageReviewed,
			Notes:           "录入合作结果",
		}
		if err := tx.Create(history).Error; err != nil {
			return err
		}

		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Finalized collaboration %s: gmv=%d cost=%d status=%s",
		input.CollaborationId, result.SalesGmv, result.TotalCollaborationCost, result.ProfitStatus)
	return result, nil
}

// bandRoi 按配置阈值把 ROI 分档
func (l *ResultLogic) bandRoi(roi float64) model.ProfitStatus {
	switch {
	case roi >= l.thresholds.HighProfit:
		return model.ProfitStatusHighProfit
	case roi >= l.thresholds.Profit:
		return model.ProfitStatusProfit
	case roi >= l.thresholds.BreakEven:
		return model.ProfitStatusBreakEven
	default:
		return model.ProfitStatusLoss
	}
}

// GetResult 获取合作结果
func (l *ResultLogic) GetResult(collaborationId string) (*model.CollaborationResultModel, error) {
	var result model.CollaborationResultModel
	err := l.db.Where("collaboration_id = ?", collaborationId).First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &bizerr.NotFoundError{Entity: "合作结果"}
	}
	if err != nil {
		return nil, fmt.Errorf("获取合作结果失败: %w", err)
	}
	return &result, nil
}
