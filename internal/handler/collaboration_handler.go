package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/moka/kcs/internal/logic"
	"github.com/moka/kcs/internal/model"
	"gorm.io/gorm"
)

// CollaborationHandler 合作管道接口
type CollaborationHandler struct {
	pipelineLogic *logic.PipelineLogic
}

// NewCollaborationHandler 创建合作管道接口
func NewCollaborationHandler(db *gorm.DB) *CollaborationHandler {
	return &CollaborationHandler{
		pipelineLogic: logic.NewPipelineLogic(db),
	}
}

// CreateCollaboration 创建合作记录
func (h *CollaborationHandler) CreateCollaboration(c *gin.Context) {
	var input struct {
		BrandInfluencerId string     `json:"brand_influencer_id" binding:"required"`
		Deadline          *time.Time `json:"deadline"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	collab, err := h.pipelineLogic.CreateCollaboration(input.BrandInfluencerId, staffId(c), input.Deadline)
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "合作记录创建成功", collab)
}

// GetCollaboration 获取合作详情
func (h *CollaborationHandler) GetCollaboration(c *gin.Context) {
	collab, err := h.pipelineLogic.GetCollaboration(c.Param("id"))
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "", collab)
}

// AdvanceStage 正向推进阶段
func (h *CollaborationHandler) AdvanceStage(c *gin.Context) {
	var input struct {
		Stage model.PipelineStage `json:"stage" binding:"required"`
		Notes string              `json:"notes"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	collab, err := h.pipelineLogic.Advance(c.Param("id"), input.Stage, input.Notes)
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "阶段推进成功", collab)
}

// CancelCollaboration 取消合作
func (h *CollaborationHandler) CancelCollaboration(c *gin.Context) {
	var input struct {
		Reason model.BlockReason `json:"reason"`
		Notes  string            `json:"notes"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	collab, err := h.pipelineLogic.Cancel(c.Param("id"), input.Reason, input.Notes)
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "合作已取消", collab)
}

// BlockCollaboration 卡点合作
func (h *CollaborationHandler) BlockCollaboration(c *gin.Context) {
	var input struct {
		Reason model.BlockReason `json:"reason"`
		Notes  string            `json:"notes"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	collab, err := h.pipelineLogic.Block(c.Param("id"), input.Reason, input.Notes)
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "合作已卡点", collab)
}

// ReopenCollaboration 恢复取消/卡点的合作
func (h *CollaborationHandler) ReopenCollaboration(c *gin.Context) {
	var input struct {
		Notes string `json:"notes"`
	}
	_ = c.ShouldBindJSON(&input)

	collab, err := h.pipelineLogic.Reopen(c.Param("id"), input.Notes)
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "合作已恢复", collab)
}

// SetDeadline 设置截止时间
func (h *CollaborationHandler) SetDeadline(c *gin.Context) {
	var input struct {
		Deadline *time.Time `json:"deadline"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	collab, err := h.pipelineLogic.SetDeadline(c.Param("id"), input.Deadline)
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "截止时间已更新", collab)
}

// GetPipelineView 管道视图，按阶段分组
func (h *CollaborationHandler) GetPipelineView(c *gin.Context) {
	view, err := h.pipelineLogic.GetPipelineView(brandId(c))
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "", view)
}
