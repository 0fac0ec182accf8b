package logic

import (
	"testing"
	"time"

	"github.com/moka/kcs/internal/config"
	"github.com/moka/kcs/internal/model"
)

var testEngineConfig = config.EngineConfig{
	ProtectionWindowHours: 168,
	ApproachingHours:      24,
	SamplePendingDays:     7,
	ResultPendingDays:     14,
	SweepPeriodHours:      24,
}

func eventTypes(events []model.NotificationEventModel) map[model.EventType]int {
	counts := make(map[model.EventType]int)
	for _, e := range events {
		counts[e.EventType]++
	}
	return counts
}

func TestSweepDeadlineOverdue(t *testing.T) {
	db := newTestDB(t)
	deadline := time.Now().Add(-2 * time.Hour)
	collab := seedCollaboration(t, db, "brand-1", "staff-a", model.StageQuoted, &deadline)
	sweeper := NewSweepLogic(db, testEngineConfig)

	events, err := sweeper.Sweep(time.Now())
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	counts := eventTypes(events)
	if counts[model.EventDeadlineOverdue] != 1 {
		t.Fatalf("DEADLINE_OVERDUE 事件数 = %d, 期望 1, 全部事件: %v", counts[model.EventDeadlineOverdue], counts)
	}
	if events[0].EntityId != collab.Id {
		t.Errorf("EntityId = %s, 期望 %s", events[0].EntityId, collab.Id)
	}
	if events[0].StaffId != "staff-a" {
		t.Errorf("StaffId = %s, 期望 staff-a", events[0].StaffId)
	}
	if events[0].Severity != model.SeverityWarning {
		t.Errorf("Severity = %s, 期望 warning", events[0].Severity)
	}
}

func TestSweepDeadlineApproaching(t *testing.T) {
	db := newTestDB(t)
	deadline := time.Now().Add(2 * time.Hour)
	seedCollaboration(t, db, "brand-1", "staff-a", model.StageQuoted, &deadline)
	// 远期截止时间不触发
	farDeadline := time.Now().Add(90 * 24 * time.Hour)
	seedCollaboration(t, db, "brand-1", "staff-b", model.StageQuoted, &farDeadline)
	sweeper := NewSweepLogic(db, testEngineConfig)

	events, err := sweeper.Sweep(time.Now())
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	counts := eventTypes(events)
	if counts[model.EventDeadlineApproaching] != 1 {
		t.Errorf("DEADLINE_APPROACHING 事件数 = %d, 期望 1", counts[model.EventDeadlineApproaching])
	}
	if counts[model.EventDeadlineOverdue] != 0 {
		t.Errorf("DEADLINE_OVERDUE 事件数 = %d, 期望 0", counts[model.EventDeadlineOverdue])
	}
}

func TestSweepSkipsFinishedCollaborations(t *testing.T) {
	db := newTestDB(t)
	deadline := time.Now().Add(-2 * time.Hour)
	reviewed := seedCollaboration(t, db, "brand-1", "staff-a", model.StageReviewed, &deadline)
	cancelled := seedCollaboration(t, db, "brand-1", "staff-b", model.StageLead, &deadline)
	pipeline := NewPipelineLogic(db)
	if _, err := pipeline.Cancel(cancelled.Id, model.BlockReasonOther, ""); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	_ = reviewed
	sweeper := NewSweepLogic(db, testEngineConfig)

	events, err := sweeper.Sweep(time.Now())
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if len(events) != 0 {
		t.Errorf("终态/取消态产生了 %d 条事件: %v", len(events), eventTypes(events))
	}
}

func TestSweepPendingSample(t *testing.T) {
	db := newTestDB(t)
	collab := seedCollaboration(t, db, "brand-1", "staff-a", model.StageQuoted, nil)
	samples := NewSampleLogic(db)
	dispatches := NewDispatchLogic(db)
	sample := createSample(t, samples, "brand-1", "SKU-001", 3000)

	dispatch, err := dispatches.Dispatch(DispatchInput{
		CollaborationId: collab.Id, SampleId: sample.Id, StaffId: "staff-a", Quantity: 1,
	})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	// 寄出时间倒回阈值之前
	stale := time.Now().Add(-8 * 24 * time.Hour)
	if err := db.Model(&model.SampleDispatchModel{}).
		Where("id = ?", dispatch.Id).
		UpdateColumn("dispatched_at", stale).Error; err != nil {
		t.Fatalf("回拨寄出时间失败: %v", err)
	}
	sweeper := NewSweepLogic(db, testEngineConfig)

	events, err := sweeper.Sweep(time.Now())
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	counts := eventTypes(events)
	if counts[model.EventSampleNotReceived] != 1 {
		t.Fatalf("SAMPLE_NOT_RECEIVED 事件数 = %d, 期望 1", counts[model.EventSampleNotReceived])
	}

	// 签收后不再提醒（换一个周期避免去重影响判断）
	if _, err := dispatches.ConfirmReceipt(dispatch.Id); err != nil {
		t.Fatalf("ConfirmReceipt() error = %v", err)
	}
	events, err = sweeper.Sweep(time.Now().Add(25 * time.Hour))
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if eventTypes(events)[model.EventSampleNotReceived] != 0 {
		t.Error("签收后仍产生未签收提醒")
	}
}

func TestSweepPendingResult(t *testing.T) {
	db := newTestDB(t)
	collab := seedCollaboration(t, db, "brand-1", "staff-a", model.StagePublished, nil)
	// 进入 PUBLISHED 的时刻倒回阈值之前
	stale := time.Now().Add(-15 * 24 * time.Hour)
	if err := db.Model(&model.StageHistoryModel{}).
		Where("collaboration_id = ? AND to_stage = ?", collab.Id, model.StagePublished).
		UpdateColumn("changed_at", stale).Error; err != nil {
		t.Fatalf("回拨阶段历史时间失败: %v", err)
	}
	sweeper := NewSweepLogic(db, testEngineConfig)

	events, err := sweeper.Sweep(time.Now())
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	counts := eventTypes(events)
	if counts[model.EventResultNotRecorded] != 1 {
		t.Fatalf("RESULT_NOT_RECORDED 事件数 = %d, 期望 1", counts[model.EventResultNotRecorded])
	}
}

func TestSweepPendingResultSurvivesUnrelatedWrites(t *testing.T) {
	db := newTestDB(t)
	collab := seedCollaboration(t, db, "brand-1", "staff-a", model.StagePublished, nil)
	stale := time.Now().Add(-15 * 24 * time.Hour)
	if err := db.Model(&model.StageHistoryModel{}).
		Where("collaboration_id = ? AND to_stage = ?", collab.Id, model.StagePublished).
		UpdateColumn("changed_at", stale).Error; err != nil {
		t.Fatalf("回拨阶段历史时间失败: %v", err)
	}

	// 改截止时间会刷新合作记录本身，但不应推迟结果提醒
	pipeline := NewPipelineLogic(db)
	far := time.Now().Add(90 * 24 * time.Hour)
	if _, err := pipeline.SetDeadline(collab.Id, &far); err != nil {
		t.Fatalf("SetDeadline() error = %v", err)
	}
	sweeper := NewSweepLogic(db, testEngineConfig)

	events, err := sweeper.Sweep(time.Now())
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	counts := eventTypes(events)
	if counts[model.EventResultNotRecorded] != 1 {
		t.Fatalf("改截止时间后 RESULT_NOT_RECORDED 事件数 = %d, 期望 1", counts[model.EventResultNotRecorded])
	}
}

func TestSweepDedupWithinPeriod(t *testing.T) {
	db := newTestDB(t)
	deadline := time.Now().Add(-2 * time.Hour)
	seedCollaboration(t, db, "brand-1", "staff-a", model.StageQuoted, &deadline)
	sweeper := NewSweepLogic(db, testEngineConfig)

	now := time.Now()
	first, err := sweeper.Sweep(now)
	if err != nil {
		t.Fatalf("第一轮 Sweep() error = %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("第一轮事件数 = %d, 期望 1", len(first))
	}

	// 同一周期内重复扫描不重复提醒
	second, err := sweeper.Sweep(now)
	if err != nil {
		t.Fatalf("第二轮 Sweep() error = %v", err)
	}
	if len(second) != 0 {
		t.Errorf("同周期第二轮事件数 = %d, 期望 0", len(second))
	}

	// 跨周期再次提醒
	third, err := sweeper.Sweep(now.Add(25 * time.Hour))
	if err != nil {
		t.Fatalf("第三轮 Sweep() error = %v", err)
	}
	if len(third) != 1 {
		t.Errorf("跨周期事件数 = %d, 期望 1", len(third))
	}

	var persisted int64
	db.Model(&model.NotificationEventModel{}).Count(&persisted)
	if persisted != 2 {
		t.Errorf("落库事件数 = %d, 期望 2", persisted)
	}
}
