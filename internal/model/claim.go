package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ClaimModel 撞单保护占用记录，本质是 (brand_id, influencer_id) 上的带过期时间的锁
type ClaimModel struct {
	Id        string    `json:"id" gorm:"primaryKey;size:36"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	BrandId      string `json:"brand_id" gorm:"not null;uniqueIndex:uniq_claim_key"`
	InfluencerId string `json:"influencer_id" gorm:"not null;uniqueIndex:uniq_claim_key"`
	StaffId      string `json:"staff_id" gorm:"not null"`

	AcquiredAt time.Time  `json:"acquired_at" gorm:"not null"`
	ExpiresAt  time.Time  `json:"expires_at" gorm:"not null;index"`
	Released   bool       `json:"released" gorm:"default:false"`
	ReleasedAt *time.Time `json:"released_at"`
}

// TableName 自定义表名
func (ClaimModel) TableName() string {
	return "claim"
}

func (m *ClaimModel) BeforeCreate(tx *gorm.DB) error {
	if m.Id == "" {
		m.Id = uuid.NewString()
	}
	return nil
}

// Live 占用是否仍然有效。有效性只由时间和释放标记决定，不依赖记录是否被清理
func (m *ClaimModel) Live(now time.Time) bool {
	return !m.Released && now.Before(m.ExpiresAt)
}
