package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/moka/kcs/internal/config"
	"github.com/moka/kcs/internal/logic"
	"gorm.io/gorm"
)

// InfluencerHandler 达人身份与撞单保护接口
type InfluencerHandler struct {
	resolverLogic *logic.ResolverLogic
	claimLogic    *logic.ClaimLogic
	engineConfig  config.EngineConfig
}

// NewInfluencerHandler 创建达人接口
func NewInfluencerHandler(db *gorm.DB, cfg config.EngineConfig) *InfluencerHandler {
	return &InfluencerHandler{
		resolverLogic: logic.NewResolverLogic(db),
		claimLogic:    logic.NewClaimLogic(db),
		engineConfig:  cfg,
	}
}

// ResolveIdentity 身份归一：查找或创建全局达人档案
func (h *InfluencerHandler) ResolveIdentity(c *gin.Context) {
	var input logic.ResolveInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	influencer, err := h.resolverLogic.Resolve(input)
	if err != nil {
		ErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "达人身份归一成功", influencer)
}

// GetInfluencer 获取全局达人档案
func (h *InfluencerHandler) GetInfluencer(c *gin.Context) {
	influencer, err := h.resolverLogic.GetInfluencer(c.Param("id"))
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "", influencer)
}

// LinkBrandInfluencer 建立品牌与达人的工作关系
func (h *InfluencerHandler) LinkBrandInfluencer(c *gin.Context) {
	var input struct {
		InfluencerId string `json:"influencer_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	link, err := h.resolverLogic.LinkBrandInfluencer(brandId(c), input.InfluencerId, staffId(c))
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "品牌达人关系建立成功", link)
}

// AcquireClaim 获取达人占用（撞单保护）
func (h *InfluencerHandler) AcquireClaim(c *gin.Context) {
	var input struct {
		InfluencerId string `json:"influencer_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	claim, err := h.claimLogic.Acquire(brandId(c), input.InfluencerId, staffId(c),
		h.engineConfig.ProtectionWindow())
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "达人占用成功", claim)
}

// ReleaseClaim 释放达人占用
func (h *InfluencerHandler) ReleaseClaim(c *gin.Context) {
	if err := h.claimLogic.Release(c.Param("id")); err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "占用已释放", nil)
}

// GetClaim 查询达人当前占用状态
func (h *InfluencerHandler) GetClaim(c *gin.Context) {
	claim, err := h.claimLogic.GetLiveClaim(brandId(c), c.Query("influencer_id"))
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "", claim)
}
