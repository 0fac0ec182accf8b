package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/moka/kcs/internal/bizerr"
)

// Response 通用响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// SuccessResponse 成功响应
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 错误响应，业务错误映射到对应的 HTTP 状态码
func ErrorResponse(c *gin.Context, err error) {
	var conflict *bizerr.ConflictError
	if errors.As(err, &conflict) {
		c.JSON(http.StatusConflict, Response{
			Success: false,
			Message: conflict.Error(),
			Data:    conflict,
		})
		return
	}

	var stale *bizerr.StaleStageError
	if errors.As(err, &stale) {
		c.JSON(http.StatusConflict, Response{Success: false, Message: stale.Error(), Data: stale})
		return
	}

	var finalized *bizerr.AlreadyFinalizedError
	if errors.As(err, &finalized) {
		c.JSON(http.StatusConflict, Response{Success: false, Message: finalized.Error()})
		return
	}

	var transition *bizerr.InvalidTransitionError
	if errors.As(err, &transition) {
		c.JSON(http.StatusUnprocessableEntity, Response{Success: false, Message: transition.Error()})
		return
	}

	var notFound *bizerr.NotFoundError
	if errors.As(err, &notFound) {
		c.JSON(http.StatusNotFound, Response{Success: false, Message: notFound.Error()})
		return
	}

	var validation *bizerr.ValidationError
	if errors.As(err, &validation) {
		c.JSON(http.StatusBadRequest, Response{Success: false, Message: validation.Error()})
		return
	}

	c.JSON(http.StatusInternalServerError, Response{Success: false, Message: err.Error()})
}

// staffId 从请求头取操作人，认证由外部网关负责
func staffId(c *gin.Context) string {
	return c.GetHeader("X-Staff-Id")
}

// brandId 从请求头取品牌
func brandId(c *gin.Context) string {
	return c.GetHeader("X-Brand-Id")
}
