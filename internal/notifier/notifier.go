package notifier

import (
	"github.com/moka/kcs/internal/logger"
	"github.com/moka/kcs/internal/model"
)

// Notifier 提醒事件的下游消费方。
// 送达、已读状态、渠道选择都由实现方负责，扫描侧只产出事件
type Notifier interface {
	Notify(event model.NotificationEventModel) error
}

// LogNotifier 默认实现，只打日志。
// 事件本身已由扫描器落库，外部通知渠道接入时替换这里即可
type LogNotifier struct{}

// NewLogNotifier 创建日志通知器
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// Notify 输出提醒事件
func (n *LogNotifier) Notify(event model.NotificationEventModel) error {
	logger.Info("Notification [%s] staff=%s entity=%s severity=%s: %s",
		event.EventType, event.StaffId, event.EntityId, event.Severity, event.Payload)
	return nil
}
