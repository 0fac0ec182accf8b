package logic

import (
	"errors"
	"fmt"
	"strings"

	"github.com/moka/kcs/internal/bizerr"
	"github.com/moka/kcs/internal/model"
	"gorm.io/gorm"
)

// SampleLogic 样品档案业务逻辑
type SampleLogic struct {
	db *gorm.DB
}

// NewSampleLogic 创建样品档案业务逻辑
func NewSampleLogic(db *gorm.DB) *SampleLogic {
	return &SampleLogic{db: db}
}

// CreateSampleInput 样品创建输入
type CreateSampleInput struct {
	BrandId     string `json:"brand_id"`
	Sku         string `json:"sku" binding:"required"`
	Name        string `json:"name" binding:"required"`
	UnitCost    int64  `json:"unit_cost"`    // 单件成本（分）
	RetailPrice int64  `json:"retail_price"` // 建议零售价（分）
	CanResend   *bool  `json:"can_resend"`
	Notes       string `json:"notes"`
}

// CreateSample 创建样品，SKU 品牌内唯一
func (l *SampleLogic) CreateSample(input CreateSampleInput) (*model.SampleModel, error) {
	input.Sku = strings.TrimSpace(input.Sku)
	input.Name = strings.TrimSpace(input.Name)
	if input.Sku == "" || input.Name == "" {
		return nil, &bizerr.ValidationError{Field: "sku", Message: "SKU和样品名称不能为空"}
	}
	if input.UnitCost < 0 || input.RetailPrice < 0 {
		return nil, &bizerr.ValidationError{Field: "unit_cost", Message: "金额不能为负数"}
	}

	canResend := true
	if input.CanResend != nil {
		canResend = *input.CanResend
	}

	sample := &model.SampleModel{
		BrandId:     input.BrandId,
		Sku:         input.Sku,
		Name:        input.Name,
		UnitCost:    input.UnitCost,
		RetailPrice: input.RetailPrice,
		CanResend:   canResend,
		Notes:       strings.TrimSpace(input.Notes),
	}
	err := l.db.Create(sample).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, &bizerr.ValidationError{Field: "sku", Message: "SKU 已存在"}
	}
	if err != nil {
		return nil, fmt.Errorf("创建样品失败: %w", err)
	}
	return sample, nil
}

// GetSample 获取样品
func (l *SampleLogic) GetSample(id string) (*model.SampleModel, error) {
	var sample model.SampleModel
	err := l.db.First(&sample, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &bizerr.NotFoundError{Entity: "样品"}
	}
	if err != nil {
		return nil, fmt.Errorf("获取样品失败: %w", err)
	}
	return &sample, nil
}

// UpdateUnitCost 调整样品现价。已有寄样记录里的成本快照不受影响
func (l *SampleLogic) UpdateUnitCost(id string, unitCost int64) (*model.SampleModel, error) {
	if unitCost < 0 {
		return nil, &bizerr.ValidationError{Field: "unit_cost", Message: "金额不能为负数"}
	}
	result := l.db.Model(&model.SampleModel{}).
		Where("id = ?", id).
		Update("unit_cost", unitCost)
	if result.Error != nil {
		return nil, fmt.Errorf("更新样品成本失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, &bizerr.NotFoundError{Entity: "样品"}
	}
	return l.GetSample(id)
}

// ListSamples 获取品牌下的样品列表
func (l *SampleLogic) ListSamples(brandId string) ([]model.SampleModel, error) {
	var samples []model.SampleModel
	err := l.db.Where("brand_id = ?", brandId).
		Order("created_at DESC").
		Find(&samples).Error
	if err != nil {
		return nil, fmt.Errorf("获取样品列表失败: %w", err)
	}
	return samples, nil
}
