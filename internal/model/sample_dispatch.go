package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SampleDispatchModel 寄样记录。单件成本在寄样时快照，之后样品改价不回溯
type SampleDispatchModel struct {
	Id        string    `json:"id" gorm:"primaryKey;size:36"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	SampleId        string `json:"sample_id" gorm:"not null;index"`
	CollaborationId string `json:"collaboration_id" gorm:"not null;index"`
	StaffId         string `json:"staff_id" gorm:"not null"`

	Quantity         int64 `json:"quantity" gorm:"not null"`
	UnitCostSnapshot int64 `json:"unit_cost_snapshot" gorm:"not null"` // 寄样时的单件成本（分）
	ShippingCost     int64 `json:"shipping_cost" gorm:"not null"`      // 快递费（分）
	TotalCost        int64 `json:"total_cost" gorm:"not null"`         // quantity*unit_cost_snapshot+shipping_cost

	TrackingNumber string `json:"tracking_number"`

	ReceivedStatus ReceivedStatus `json:"received_status" gorm:"default:'PENDING'"`
	ReceivedAt     *time.Time     `json:"received_at"`
	OnboardStatus  OnboardStatus  `json:"onboard_status" gorm:"default:'UNKNOWN'"`

	DispatchedAt time.Time `json:"dispatched_at" gorm:"not null;index"`

	// 关联
	Sample *SampleModel `json:"sample,omitempty" gorm:"foreignKey:SampleId"`
}

// ReceivedStatus 签收状态
type ReceivedStatus string

const (
	ReceivedStatusPending  ReceivedStatus = "PENDING"  // 待签收
	ReceivedStatusReceived ReceivedStatus = "RECEIVED" // 已签收
	ReceivedStatusLost     ReceivedStatus = "LOST"     // 已丢失
)

// OnboardStatus 上车状态
type OnboardStatus string

const (
	OnboardStatusUnknown    OnboardStatus = "UNKNOWN"     // 未知
	OnboardStatusOnboard    OnboardStatus = "ONBOARD"     // 已上车
	OnboardStatusNotOnboard OnboardStatus = "NOT_ONBOARD" // 未上车
)

// TableName 自定义表名
func (SampleDispatchModel) TableName() string {
	return "sample_dispatch"
}

func (m *SampleDispatchModel) BeforeCreate(tx *gorm.DB) error {
	if m.Id == "" {
		m.Id = uuid.NewString()
	}
	return nil
}
