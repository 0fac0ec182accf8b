package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/moka/kcs/internal/bizerr"
)

func TestErrorResponseStatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"撞单冲突", &bizerr.ConflictError{HeldBy: "staff-a"}, http.StatusConflict},
		{"并发修改", &bizerr.StaleStageError{CollaborationId: "c-1", Stage: "QUOTED"}, http.StatusConflict},
		{"重复录入", &bizerr.AlreadyFinalizedError{CollaborationId: "c-1"}, http.StatusConflict},
		{"非法流转", &bizerr.InvalidTransitionError{From: "LEAD", To: "QUOTED"}, http.StatusUnprocessableEntity},
		{"不存在", &bizerr.NotFoundError{Entity: "合作记录"}, http.StatusNotFound},
		{"校验失败", &bizerr.ValidationError{Field: "quantity", Message: "必须大于0"}, http.StatusBadRequest},
		{"包装后的业务错误", fmt.Errorf("处理失败: %w", &bizerr.NotFoundError{Entity: "样品"}), http.StatusNotFound},
		{"未知错误", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			ErrorResponse(c, tc.err)
			if w.Code != tc.want {
				t.Errorf("状态码 = %d, 期望 %d", w.Code, tc.want)
			}
		})
	}
}
