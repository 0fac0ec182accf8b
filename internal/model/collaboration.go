package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CollaborationModel 一次商务与达人的合作记录，从线索到复盘的完整生命周期
type CollaborationModel struct {
	Id        string    `json:"id" gorm:"primaryKey;size:36"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	BrandInfluencerId string `json:"brand_influencer_id" gorm:"not null;index"`
	StaffId           string `json:"staff_id" gorm:"not null;index"`

	// 阶段
	Stage PipelineStage `json:"stage" gorm:"default:'LEAD';index"`

	// 卡点原因，仅 BLOCKED/CANCELLED 时有值
	BlockReason BlockReason `json:"block_reason"`

	// 截止时间，与阶段无关，终态后无意义
	Deadline *time.Time `json:"deadline"`

	// 关联
	BrandInfluencer *BrandInfluencerModel `json:"brand_influencer,omitempty" gorm:"foreignKey:BrandInfluencerId"`
	StageHistory    []StageHistoryModel   `json:"stage_history,omitempty" gorm:"foreignKey:CollaborationId"`
	Dispatches      []SampleDispatchModel `json:"dispatches,omitempty" gorm:"foreignKey:CollaborationId"`
	Result          *CollaborationResultModel `json:"result,omitempty" gorm:"foreignKey:CollaborationId"`
}

// TableName 自定义表名
func (CollaborationModel) TableName() string {
	return "collaboration"
}

func (m *CollaborationModel) BeforeCreate(tx *gorm.DB) error {
	if m.Id == "" {
		m.Id = uuid.NewString()
	}
	return nil
}

// IsOverdue 是否超期。超期是读取时计算的，不落库
func (m *CollaborationModel) IsOverdue(now time.Time) bool {
	return m.Deadline != nil && now.After(*m.Deadline) && !m.Stage.Terminal()
}

// BlockReason 卡点原因
type BlockReason string

const (
	BlockReasonPriceHigh     BlockReason = "PRICE_HIGH"    // 报价太贵
	BlockReasonDelayed       BlockReason = "DELAYED"       // 达人拖延
	BlockReasonUncooperative BlockReason = "UNCOOPERATIVE" // 不配合
	BlockReasonOther         BlockReason = "OTHER"         // 其他原因
)

// StageHistoryModel 阶段流转历史，只追加不修改
type StageHistoryModel struct {
	Id        string    `json:"id" gorm:"primaryKey;size:36"`
	ChangedAt time.Time `json:"changed_at" gorm:"autoCreateTime"`

	CollaborationId string         `json:"collaboration_id" gorm:"not null;index"`
	FromStage       *PipelineStage `json:"from_stage"`
	ToStage         PipelineStage  `json:"to_stage" gorm:"not null"`
	Notes           string         `json:"notes"`
}

// TableName 自定义表名
func (StageHistoryModel) TableName() string {
	return "stage_history"
}

func (m *StageHistoryModel) BeforeCreate(tx *gorm.DB) error {
	if m.Id == "" {
		m.Id = uuid.NewString()
	}
	return nil
}
