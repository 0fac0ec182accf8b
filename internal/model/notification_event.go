package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationEventModel 扫描产生的提醒事件。
// (entity_id, event_type, period) 唯一，保证同一周期内不重复提醒
type NotificationEventModel struct {
	Id        string    `json:"id" gorm:"primaryKey;size:36"`
	CreatedAt time.Time `json:"created_at"`

	EntityId  string    `json:"entity_id" gorm:"not null;uniqueIndex:uniq_event_period"`
	EventType EventType `json:"event_type" gorm:"not null;uniqueIndex:uniq_event_period"`
	Period    time.Time `json:"period" gorm:"not null;uniqueIndex:uniq_event_period"`

	StaffId  string `json:"staff_id" gorm:"not null;index"` // 提醒对象
	Severity string `json:"severity" gorm:"not null"`
	Payload  string `json:"payload" gorm:"type:text"`
}

// EventType 提醒事件类型
type EventType string

const (
	EventDeadlineApproaching EventType = "DEADLINE_APPROACHING" // 合作即将到期
	EventDeadlineOverdue     EventType = "DEADLINE_OVERDUE"     // 合作已超期
	EventSampleNotReceived   EventType = "SAMPLE_NOT_RECEIVED"  // 样品未签收
	EventResultNotRecorded   EventType = "RESULT_NOT_RECORDED"  // 结果未录入
)

// 事件级别
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
)

// TableName 自定义表名
func (NotificationEventModel) TableName() string {
	return "notification_event"
}

func (m *NotificationEventModel) BeforeCreate(tx *gorm.DB) error {
	if m.Id == "" {
		m.Id = uuid.NewString()
	}
	return nil
}
