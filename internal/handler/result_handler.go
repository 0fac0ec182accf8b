package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/moka/kcs/internal/config"
	"github.com/moka/kcs/internal/logic"
	"gorm.io/gorm"
)

// ResultHandler 合作结果接口
type ResultHandler struct {
	resultLogic *logic.ResultLogic
}

// NewResultHandler 创建合作结果接口
func NewResultHandler(db *gorm.DB, cfg config.EngineConfig) *ResultHandler {
	return &ResultHandler{
		resultLogic: logic.NewResultLogic(db, logic.RoiThresholds{
			BreakEven:  cfg.RoiBreakEven,
			Profit:     cfg.RoiProfit,
			HighProfit: cfg.RoiHighProfit,
		}),
	}
}

// FinalizeResult 录入合作结果并把合作推进到 REVIEWED
func (h *ResultHandler) FinalizeResult(c *gin.Context) {
	var input logic.FinalizeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.resultLogic.Finalize(input)
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "合作结果录入成功", result)
}

// GetResult 获取合作结果
func (h *ResultHandler) GetResult(c *gin.Context) {
	result, err := h.resultLogic.GetResult(c.Param("collaborationId"))
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "", result)
}
