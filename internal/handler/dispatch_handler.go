package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/moka/kcs/internal/logic"
	"github.com/moka/kcs/internal/model"
	"gorm.io/gorm"
)

// DispatchHandler 样品与寄样接口
type DispatchHandler struct {
	sampleLogic   *logic.SampleLogic
	dispatchLogic *logic.DispatchLogic
}

// NewDispatchHandler 创建样品与寄样接口
func NewDispatchHandler(db *gorm.DB) *DispatchHandler {
	return &DispatchHandler{
		sampleLogic:   logic.NewSampleLogic(db),
		dispatchLogic: logic.NewDispatchLogic(db),
	}
}

// CreateSample 创建样品
func (h *DispatchHandler) CreateSample(c *gin.Context) {
	var input logic.CreateSampleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input.BrandId = brandId(c)

	sample, err := h.sampleLogic.CreateSample(input)
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "样品创建成功", sample)
}

// ListSamples 获取样品列表
func (h *DispatchHandler) ListSamples(c *gin.Context) {
	samples, err := h.sampleLogic.ListSamples(brandId(c))
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "", samples)
}

// UpdateUnitCost 调整样品现价
func (h *DispatchHandler) UpdateUnitCost(c *gin.Context) {
	var input struct {
		UnitCost int64 `json:"unit_cost"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sample, err := h.sampleLogic.UpdateUnitCost(c.Param("id"), input.UnitCost)
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "样品成本已更新", sample)
}

// DispatchSample 创建寄样记录
func (h *DispatchHandler) DispatchSample(c *gin.Context) {
	var input logic.DispatchInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input.StaffId = staffId(c)

	dispatch, err := h.dispatchLogic.Dispatch(input)
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "寄样成功", dispatch)
}

// ConfirmReceipt 确认签收
func (h *DispatchHandler) ConfirmReceipt(c *gin.Context) {
	dispatch, err := h.dispatchLogic.ConfirmReceipt(c.Param("id"))
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "签收成功", dispatch)
}

// MarkLost 标记丢失
func (h *DispatchHandler) MarkLost(c *gin.Context) {
	dispatch, err := h.dispatchLogic.MarkLost(c.Param("id"))
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "已标记丢失", dispatch)
}

// SetOnboardStatus 更新上车状态
func (h *DispatchHandler) SetOnboardStatus(c *gin.Context) {
	var input struct {
		OnboardStatus model.OnboardStatus `json:"onboard_status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dispatch, err := h.dispatchLogic.SetOnboardStatus(c.Param("id"), input.OnboardStatus)
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "上车状态已更新", dispatch)
}

// ListDispatches 获取合作下的寄样记录
func (h *DispatchHandler) ListDispatches(c *gin.Context) {
	dispatches, err := h.dispatchLogic.ListByCollaboration(c.Query("collaboration_id"))
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "", dispatches)
}
