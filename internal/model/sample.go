package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SampleModel 样品档案，金额一律为分
type SampleModel struct {
	Id        string    `json:"id" gorm:"primaryKey;size:36"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	BrandId string `json:"brand_id" gorm:"not null;uniqueIndex:uniq_brand_sku"`
	Sku     string `json:"sku" gorm:"not null;uniqueIndex:uniq_brand_sku"`
	Name    string `json:"name" gorm:"not null"`

	UnitCost    int64 `json:"unit_cost" gorm:"not null"`    // 单件成本（分）
	RetailPrice int64 `json:"retail_price" gorm:"default:0"` // 建议零售价（分）

	CanResend bool   `json:"can_resend" gorm:"default:true"`
	Notes     string `json:"notes" gorm:"type:text"`
}

// TableName 自定义表名
func (SampleModel) TableName() string {
	return "sample"
}

func (m *SampleModel) BeforeCreate(tx *gorm.DB) error {
	if m.Id == "" {
		m.Id = uuid.NewString()
	}
	return nil
}
