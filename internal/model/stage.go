package model

// PipelineStage 合作管道阶段
type PipelineStage string

const (
	StageLead      PipelineStage = "LEAD"      // 线索达人
	StageContacted PipelineStage = "CONTACTED" // 已联系
	StageQuoted    PipelineStage = "QUOTED"    // 已报价
	StageSampled   PipelineStage = "SAMPLED"   // 已寄样
	StageScheduled PipelineStage = "SCHEDULED" // 已排期
	StagePublished PipelineStage = "PUBLISHED" // 已发布
	StageReviewed  PipelineStage = "REVIEWED"  // 已复盘
	StageCancelled PipelineStage = "CANCELLED" // 已取消
	StageBlocked   PipelineStage = "BLOCKED"   // 已卡点
)

// StageOrder 有序阶段的正向顺序
var StageOrder = []PipelineStage{
	StageLead,
	StageContacted,
	StageQuoted,
	StageSampled,
	StageScheduled,
	StagePublished,
	StageReviewed,
}

// stageNext 正向流转邻接表：每个阶段只允许前进一步。
// PUBLISHED 之后没有邻接项，REVIEWED 只在结果录入时作为副作用进入
var stageNext = map[PipelineStage]PipelineStage{
	StageLead:      StageContacted,
	StageContacted: StageQuoted,
	StageQuoted:    StageSampled,
	StageSampled:   StageScheduled,
	StageScheduled: StagePublished,
}

// Valid 是否为已知阶段
func (s PipelineStage) Valid() bool {
	switch s {
	case StageLead, StageContacted, StageQuoted, StageSampled,
		StageScheduled, StagePublished, StageReviewed,
		StageCancelled, StageBlocked:
		return true
	}
	return false
}

// Terminal REVIEWED 为唯一有序终态
func (s PipelineStage) Terminal() bool {
	return s == StageReviewed
}

// Halted 是否处于取消/卡点态
func (s PipelineStage) Halted() bool {
	return s == StageCancelled || s == StageBlocked
}

// CanAdvanceTo 阶段流转校验：正向一步，或任意非终态进入 CANCELLED/BLOCKED
func (s PipelineStage) CanAdvanceTo(to PipelineStage) bool {
	if to == StageCancelled || to == StageBlocked {
		return !s.Terminal() && !s.Halted()
	}
	return stageNext[s] == to
}
