package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/mfs/internal/apperr"
	"github.com/gin-gonic/gin"
)

// SuccessResponse 成功响应
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
		Data:    nil,
	})
}

// StatusOf 错误类别对应的 HTTP 状态码
func StatusOf(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindInvalidStateTransition, apperr.KindAlreadyVoted, apperr.KindAlreadySubmitted:
		return http.StatusConflict
	case apperr.KindUnauthorized:
		return http.StatusForbidden
	case apperr.KindInsufficientFunds, apperr.KindOverTarget:
		return http.StatusUnprocessableEntity
	case apperr.KindInvalidArgument:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Fail 按错误类别返回错误响应，内部错误不暴露细节
func Fail(c *gin.Context, err error) {
	status := StatusOf(err)
	if status == http.StatusInternalServerError {
		ErrorResponse(c, status, "internal error")
		return
	}
	ErrorResponse(c, status, err.Error())
}

// projectID 解析路径中的项目 id
func projectID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		ErrorResponse(c, http.StatusBadRequest, "invalid project id")
		return 0, false
	}
	return id, true
}
