package bizerr

import (
	"fmt"
	"time"
)

// ConflictError 撞单冲突：该达人已被其他商务占用
type ConflictError struct {
	HeldBy     string    `json:"held_by"`
	AcquiredAt time.Time `json:"acquired_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("该达人已被商务 %s 占用，保护期至 %s",
		e.HeldBy, e.ExpiresAt.Format("2006-01-02 15:04:05"))
}

// InvalidTransitionError 非法的阶段流转
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("不允许从阶段 %s 流转到 %s", e.From, e.To)
}

// StaleStageError 阶段前置条件未命中：写入前阶段已被并发修改
type StaleStageError struct {
	CollaborationId string `json:"collaboration_id"`
	Stage           string `json:"stage"` // 本次请求读到的阶段
}

func (e *StaleStageError) Error() string {
	return fmt.Sprintf("合作 %s 的阶段已被并发修改，请刷新后重试", e.CollaborationId)
}

// AlreadyFinalizedError 合作结果已录入，不允许重复录入
type AlreadyFinalizedError struct {
	CollaborationId string
}

func (e *AlreadyFinalizedError) Error() string {
	return fmt.Sprintf("合作 %s 的结果已录入", e.CollaborationId)
}

// NotFoundError 业务实体不存在
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string {
	return e.Entity + "不存在"
}

// ValidationError 输入校验失败
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
