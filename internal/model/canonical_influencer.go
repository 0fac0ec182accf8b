package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CanonicalInfluencerModel 全局达人档案，一个真实达人一条记录
type CanonicalInfluencerModel struct {
	Id        string    `json:"id" gorm:"primaryKey;size:36"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 基本信息
	Nickname string `json:"nickname" gorm:"not null"`
	Phone    string `json:"phone" gorm:"uniqueIndex:uniq_influencer_phone,where:phone <> ''"`

	// 认证状态
	VerificationStatus VerificationStatus `json:"verification_status" gorm:"default:'unverified'"`
	VerifiedAt         *time.Time         `json:"verified_at"`

	// 关联
	PlatformAccounts []PlatformAccountModel `json:"platform_accounts,omitempty" gorm:"foreignKey:InfluencerId"`
}

// VerificationStatus 达人认证状态
type VerificationStatus string

const (
	VerificationStatusUnverified VerificationStatus = "unverified" // 未认证
	VerificationStatusVerified   VerificationStatus = "verified"   // 已认证
	VerificationStatusRejected   VerificationStatus = "rejected"   // 已驳回
)

// TableName 自定义表名
func (CanonicalInfluencerModel) TableName() string {
	return "canonical_influencer"
}

func (m *CanonicalInfluencerModel) BeforeCreate(tx *gorm.DB) error {
	if m.Id == "" {
		m.Id = uuid.NewString()
	}
	return nil
}

// PlatformAccountModel 达人平台账号，(platform, platform_id) 全局唯一
type PlatformAccountModel struct {
	Id        string    `json:"id" gorm:"primaryKey;size:36"`
	CreatedAt time.Time `json:"created_at"`

	InfluencerId string `json:"influencer_id" gorm:"not null;index"`
	Platform     string `json:"platform" gorm:"not null;uniqueIndex:uniq_platform_account"`
	PlatformId   string `json:"platform_id" gorm:"not null;uniqueIndex:uniq_platform_account"`
	Followers    int64  `json:"followers" gorm:"default:0"`
}

// TableName 自定义表名
func (PlatformAccountModel) TableName() string {
	return "platform_account"
}

func (m *PlatformAccountModel) BeforeCreate(tx *gorm.DB) error {
	if m.Id == "" {
		m.Id = uuid.NewString()
	}
	return nil
}
