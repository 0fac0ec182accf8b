package logic

import (
	"errors"
	"sync"
	"testing"

	"github.com/moka/kcs/internal/bizerr"
	"github.com/moka/kcs/internal/model"
)

func createSample(t *testing.T, l *SampleLogic, brandId, sku string, unitCost int64) *model.SampleModel {
	t.Helper()
	sample, err := l.CreateSample(CreateSampleInput{
		BrandId:     brandId,
		Sku:         sku,
		Name:        "精华液30ml",
		UnitCost:    unitCost,
		RetailPrice: unitCost * 3,
	})
	if err != nil {
		t.Fatalf("CreateSample() error = %v", err)
	}
	return sample
}

func TestDispatchComputesCostAndAdvances(t *testing.T) {
	db := newTestDB(t)
	collab := seedCollaboration(t, db, "brand-1", "staff-a", model.StageQuoted, nil)
	samples := NewSampleLogic(db)
	dispatches := NewDispatchLogic(db)

	sample := createSample(t, samples, "brand-1", "SKU-001", 3000)
	dispatch, err := dispatches.Dispatch(DispatchInput{
		CollaborationId: collab.Id,
		SampleId:        sample.Id,
		StaffId:         "staff-a",
		Quantity:        2,
		ShippingCost:    1500,
		TrackingNumber:  "SF1234567890",
	})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	// 2 * 3000 + 1500
	if dispatch.TotalCost != 7500 {
		t.Errorf("TotalCost = %d, 期望 7500", dispatch.TotalCost)
	}
	if dispatch.UnitCostSnapshot != 3000 {
		t.Errorf("UnitCostSnapshot = %d, 期望 3000", dispatch.UnitCostSnapshot)
	}
	if dispatch.ReceivedStatus != model.ReceivedStatusPending {
		t.Errorf("ReceivedStatus = %s, 期望 PENDING", dispatch.ReceivedStatus)
	}

	// 寄样动作把 QUOTED 自动推到 SAMPLED
	pipeline := NewPipelineLogic(db)
	loaded, err := pipeline.GetCollaboration(collab.Id)
	if err != nil {
		t.Fatalf("GetCollaboration() error = %v", err)
	}
	if loaded.Stage != model.StageSampled {
		t.Errorf("寄样后阶段 = %s, 期望 SAMPLED", loaded.Stage)
	}
}

func TestDispatchSnapshotUnaffectedByRepricing(t *testing.T) {
	db := newTestDB(t)
	collab := seedCollaboration(t, db, "brand-1", "staff-a", model.StageQuoted, nil)
	samples := NewSampleLogic(db)
	dispatches := NewDispatchLogic(db)

	sample := createSample(t, samples, "brand-1", "SKU-001", 3000)
	first, err := dispatches.Dispatch(DispatchInput{
		CollaborationId: collab.Id,
		SampleId:        sample.Id,
		Quantity:        1,
	})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	if _, err := samples.UpdateUnitCost(sample.Id, 5000); err != nil {
		t.Fatalf("UpdateUnitCost() error = %v", err)
	}

	second, err := dispatches.Dispatch(DispatchInput{
		CollaborationId: collab.Id,
		SampleId:        sample.Id,
		Quantity:        1,
	})
	if err != nil {
		t.Fatalf("改价后 Dispatch() error = %v", err)
	}
	if second.UnitCostSnapshot != 5000 {
		t.Errorf("新寄样快照 = %d, 期望 5000", second.UnitCostSnapshot)
	}

	// 旧快照不回溯
	var reloaded model.SampleDispatchModel
	if err := db.First(&reloaded, "id = ?", first.Id).Error; err != nil {
		t.Fatalf("读取旧寄样失败: %v", err)
	}
	if reloaded.UnitCostSnapshot != 3000 || reloaded.TotalCost != 3000 {
		t.Errorf("旧寄样快照被改动: snapshot=%d total=%d", reloaded.UnitCostSnapshot, reloaded.TotalCost)
	}
}

func TestDispatchValidation(t *testing.T) {
	db := newTestDB(t)
	collab := seedCollaboration(t, db, "brand-1", "staff-a", model.StageQuoted, nil)
	samples := NewSampleLogic(db)
	dispatches := NewDispatchLogic(db)
	sample := createSample(t, samples, "brand-1", "SKU-001", 3000)

	var ve *bizerr.ValidationError
	if _, err := dispatches.Dispatch(DispatchInput{
		CollaborationId: collab.Id, SampleId: sample.Id, Quantity: 0,
	}); !errors.As(err, &ve) {
		t.Errorf("数量为0 error = %v, 期望 ValidationError", err)
	}
	if _, err := dispatches.Dispatch(DispatchInput{
		CollaborationId: collab.Id, SampleId: sample.Id, Quantity: 1, ShippingCost: -1,
	}); !errors.As(err, &ve) {
		t.Errorf("负快递费 error = %v, 期望 ValidationError", err)
	}

	var nf *bizerr.NotFoundError
	if _, err := dispatches.Dispatch(DispatchInput{
		CollaborationId: collab.Id, SampleId: "no-such-sample", Quantity: 1,
	}); !errors.As(err, &nf) {
		t.Errorf("未知样品 error = %v, 期望 NotFoundError", err)
	}
}

func TestConfirmReceiptIdempotent(t *testing.T) {
	db := newTestDB(t)
	collab := seedCollaboration(t, db, "brand-1", "staff-a", model.StageQuoted, nil)
	samples := NewSampleLogic(db)
	dispatches := NewDispatchLogic(db)
	sample := createSample(t, samples, "brand-1", "SKU-001", 3000)

	dispatch, err := dispatches.Dispatch(DispatchInput{
		CollaborationId: collab.Id, SampleId: sample.Id, Quantity: 1,
	})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	first, err := dispatches.ConfirmReceipt(dispatch.Id)
	if err != nil {
		t.Fatalf("ConfirmReceipt() error = %v", err)
	}
	if first.ReceivedStatus != model.ReceivedStatusReceived || first.ReceivedAt == nil {
		t.Fatalf("签收状态 = %s, ReceivedAt = %v", first.ReceivedStatus, first.ReceivedAt)
	}

	second, err := dispatches.ConfirmReceipt(dispatch.Id)
	if err != nil {
		t.Fatalf("重复 ConfirmReceipt() error = %v", err)
	}
	if second.ReceivedStatus != model.ReceivedStatusReceived {
		t.Errorf("重复签收后状态 = %s", second.ReceivedStatus)
	}

	// 已签收不能再标记丢失
	var ve *bizerr.ValidationError
	if _, err := dispatches.MarkLost(dispatch.Id); !errors.As(err, &ve) {
		t.Errorf("签收后 MarkLost() error = %v, 期望 ValidationError", err)
	}
}

func TestMarkLostTerminal(t *testing.T) {
	db := newTestDB(t)
	collab := seedCollaboration(t, db, "brand-1", "staff-a", model.StageQuoted, nil)
	samples := NewSampleLogic(db)
	dispatches := NewDispatchLogic(db)
	sample := createSample(t, samples, "brand-1", "SKU-001", 3000)

	dispatch, err := dispatches.Dispatch(DispatchInput{
		CollaborationId: collab.Id, SampleId: sample.Id, Quantity: 1,
	})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	lost, err := dispatches.MarkLost(dispatch.Id)
	if err != nil {
		t.Fatalf("MarkLost() error = %v", err)
	}
	if lost.ReceivedStatus != model.ReceivedStatusLost {
		t.Fatalf("状态 = %s, 期望 LOST", lost.ReceivedStatus)
	}
	// 重复标记幂等
	if _, err := dispatches.MarkLost(dispatch.Id); err != nil {
		t.Fatalf("重复 MarkLost() error = %v", err)
	}

	var ve *bizerr.ValidationError
	if _, err := dispatches.ConfirmReceipt(dispatch.Id); !errors.As(err, &ve) {
		t.Errorf("丢失后 ConfirmReceipt() error = %v, 期望 ValidationError", err)
	}
}

func TestReceiptAndLostRaceSingleWinner(t *testing.T) {
	db := newSharedTestDB(t, "receipt_race")
	collab := seedCollaboration(t, db, "brand-1", "staff-a", model.StageQuoted, nil)
	samples := NewSampleLogic(db)
	dispatches := NewDispatchLogic(db)
	sample := createSample(t, samples, "brand-1", "SKU-001", 3000)

	dispatch, err := dispatches.Dispatch(DispatchInput{
		CollaborationId: collab.Id, SampleId: sample.Id, Quantity: 1,
	})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	// 签收和丢失同时到达，只能有一个落地，输家拿到校验错误而不是假成功
	errs := make(chan error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := dispatches.ConfirmReceipt(dispatch.Id)
		errs <- err
	}()
	go func() {
		defer wg.Done()
		_, err := dispatches.MarkLost(dispatch.Id)
		errs <- err
	}()
	wg.Wait()
	close(errs)

	var wins int
	for err := range errs {
		if err == nil {
			wins++
			continue
		}
		var ve *bizerr.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("并发 error = %v, 期望 ValidationError", err)
		}
	}
	if wins != 1 {
		t.Fatalf("成功数 = %d, 期望恰好 1", wins)
	}

	reloaded, err := dispatches.ListByCollaboration(collab.Id)
	if err != nil {
		t.Fatalf("ListByCollaboration() error = %v", err)
	}
	status := reloaded[0].ReceivedStatus
	if status != model.ReceivedStatusReceived && status != model.ReceivedStatusLost {
		t.Errorf("终态 = %s, 期望 RECEIVED 或 LOST", status)
	}
}

func TestSetOnboardStatus(t *testing.T) {
	db := newTestDB(t)
	collab := seedCollaboration(t, db, "brand-1", "staff-a", model.StageQuoted, nil)
	samples := NewSampleLogic(db)
	dispatches := NewDispatchLogic(db)
	sample := createSample(t, samples, "brand-1", "SKU-001", 3000)

	dispatch, err := dispatches.Dispatch(DispatchInput{
		CollaborationId: collab.Id, SampleId: sample.Id, Quantity: 1,
	})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	updated, err := dispatches.SetOnboardStatus(dispatch.Id, model.OnboardStatusOnboard)
	if err != nil {
		t.Fatalf("SetOnboardStatus() error = %v", err)
	}
	if updated.OnboardStatus != model.OnboardStatusOnboard {
		t.Errorf("OnboardStatus = %s, 期望 ONBOARD", updated.OnboardStatus)
	}

	var ve *bizerr.ValidationError
	if _, err := dispatches.SetOnboardStatus(dispatch.Id, "MAYBE"); !errors.As(err, &ve) {
		t.Errorf("非法状态 error = %v, 期望 ValidationError", err)
	}
}

func TestCreateSampleDuplicateSku(t *testing.T) {
	db := newTestDB(t)
	samples := NewSampleLogic(db)

	createSample(t, samples, "brand-1", "SKU-001", 3000)
	_, err := samples.CreateSample(CreateSampleInput{
		BrandId: "brand-1", Sku: "SKU-001", Name: "同款", UnitCost: 100,
	})
	var ve *bizerr.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("重复SKU error = %v, 期望 ValidationError", err)
	}

	// 不同品牌下同一 SKU 不冲突
	if _, err := samples.CreateSample(CreateSampleInput{
		BrandId: "brand-2", Sku: "SKU-001", Name: "同款", UnitCost: 100,
	}); err != nil {
		t.Errorf("跨品牌同SKU error = %v", err)
	}
}

func TestListByCollaboration(t *testing.T) {
	db := newTestDB(t)
	collab := seedCollaboration(t, db, "brand-1", "staff-a", model.StageQuoted, nil)
	samples := NewSampleLogic(db)
	dispatches := NewDispatchLogic(db)
	sample := createSample(t, samples, "brand-1", "SKU-001", 3000)

	for i := 0; i < 3; i++ {
		if _, err := dispatches.Dispatch(DispatchInput{
			CollaborationId: collab.Id, SampleId: sample.Id, Quantity: 1,
		}); err != nil {
			t.Fatalf("Dispatch() error = %v", err)
		}
	}

	list, err := dispatches.ListByCollaboration(collab.Id)
	if err != nil {
		t.Fatalf("ListByCollaboration() error = %v", err)
	}
	if len(list) != 3 {
		t.Errorf("寄样记录数 = %d, 期望 3", len(list))
	}
}
