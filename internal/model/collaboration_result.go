package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CollaborationResultModel 合作结果，每个合作最多一条，创建后不可修改
type CollaborationResultModel struct {
	Id        string    `json:"id" gorm:"primaryKey;size:36"`
	CreatedAt time.Time `json:"created_at"`

	CollaborationId string `json:"collaboration_id" gorm:"not null;uniqueIndex:uniq_result_collaboration"`

	ContentType ContentType `json:"content_type" gorm:"not null"`
	PublishedAt time.Time   `json:"published_at" gorm:"not null"`

	// 销售数据，金额一律为分
	SalesQuantity  int64   `json:"sales_quantity" gorm:"default:0"`
	SalesGmv       int64   `json:"sales_gmv" gorm:"not null"`
	CommissionRate float64 `json:"commission_rate" gorm:"not null"` // 佣金比例（百分数）
	PitFee         int64   `json:"pit_fee" gorm:"default:0"`        // 坑位费（分）

	// 派生数据，录入时一次计算
	ActualCommission       int64    `json:"actual_commission" gorm:"not null"`        // GMV*比例/100 四舍五入
	TotalSampleCost        int64    `json:"total_sample_cost" gorm:"not null"`        // 全部寄样成本之和
	TotalCollaborationCost int64    `json:"total_collaboration_cost" gorm:"not null"` // 佣金+坑位费+样品成本
	Roi                    *float64 `json:"roi"`                                      // 成本为 0 时无定义

	ProfitStatus ProfitStatus `json:"profit_status" gorm:"not null"`
	WillRepeat   bool         `json:"will_repeat" gorm:"default:false"`
}

// ContentType 内容类型
type ContentType string

const (
	ContentTypeShortVideo ContentType = "SHORT_VIDEO" // 短视频
	ContentTypeLiveStream ContentType = "LIVE_STREAM" // 直播
)

// ProfitStatus 回本状态
type ProfitStatus string

const (
	ProfitStatusLoss       ProfitStatus = "LOSS"        // 亏损
	ProfitStatusBreakEven  ProfitStatus = "BREAK_EVEN"  // 保本
	ProfitStatusProfit     ProfitStatus = "PROFIT"      // 盈利
	ProfitStatusHighProfit ProfitStatus = "HIGH_PROFIT" // 高盈利
)

// TableName 自定义表名
func (CollaborationResultModel) TableName() string {
	return "collaboration_result"
}

func (m *CollaborationResultModel) BeforeCreate(tx *gorm.DB) error {
	if m.Id == "" {
		m.Id = uuid.NewString()
	}
	return nil
}
