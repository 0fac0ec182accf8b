package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BrandInfluencerModel 品牌与达人的工作关系，(brand_id, influencer_id) 唯一
type BrandInfluencerModel struct {
	Id        string    `json:"id" gorm:"primaryKey;size:36"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	BrandId      string `json:"brand_id" gorm:"not null;uniqueIndex:uniq_brand_influencer"`
	InfluencerId string `json:"influencer_id" gorm:"not null;uniqueIndex:uniq_brand_influencer"`

	// 品牌侧运营信息
	Tags    string `json:"tags"`
	Notes   string `json:"notes" gorm:"type:text"`
	GroupId string `json:"group_id"`

	// 录入人
	AddedBy string `json:"added_by" gorm:"not null"`

	// 关联
	Influencer *CanonicalInfluencerModel `json:"influencer,omitempty" gorm:"foreignKey:InfluencerId"`
}

// TableName 自定义表名
func (BrandInfluencerModel) TableName() string {
	return "brand_influencer"
}

func (m *BrandInfluencerModel) BeforeCreate(tx *gorm.DB) error {
	if m.Id == "" {
		m.Id = uuid.NewString()
	}
	return nil
}
