package response

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/cloudwego/hertz/pkg/app"

	"BloodConnect/pkg/errors"
)

// ErrorResponse 统一的错误响应格式
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Details map[string]interface{} `json:"details,omitempty"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
}

// SuccessResponse 统一的成功响应格式
type SuccessResponse struct {
	Data interface{}            `json:"data"`
	Meta map[string]interface{} `json:"meta,omitempty"`
}

// StatusOf 根据错误码映射 HTTP 状态码
func StatusOf(err error) int {
	var def errors.Definition
	if !stderrors.As(err, &def) {
		return http.StatusInternalServerError
	}

	switch def.Code {
	case "INVALID_REQUEST", "INVALID_BLOOD_GROUP", "INVALID_DISTRICT", "INVALID_PHONE",
		"INVALID_EMAIL", "INVALID_DONATION_STATUS", "INVALID_URGENCY",
		"INVALID_REQUEST_STATUS", "DISPATCH_CHANNEL_UNKNOWN":
		return http.StatusBadRequest
	case "UNAUTHORIZED", "ADMIN_CREDENTIALS_INVALID":
		return http.StatusUnauthorized
	case "FORBIDDEN":
		return http.StatusForbidden
	case "DONOR_NOT_FOUND", "EMERGENCY_NOT_FOUND", "DISPATCH_PENDING":
		return http.StatusNotFound
	case "DONOR_ALREADY_REGISTERED":
		return http.StatusConflict
	case "TOO_MANY_REQUESTS":
		return http.StatusTooManyRequests
	case "WHATSAPP_NOT_READY", "DISPATCH_QUEUE_FULL":
		return http.StatusServiceUnavailable
	case "WHATSAPP_FAILED", "SMS_FAILED", "EMAIL_FAILED":
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func detailOf(err error) (code, message string) {
	var def errors.Definition
	if stderrors.As(err, &def) {
		return def.Code, def.Message
	}
	// 非业务错误不把内部信息暴露给调用方
	return errors.InternalError.Code, errors.InternalError.Message
}

// Error 返回错误响应
func Error(ctx context.Context, c *app.RequestContext, err error) {
	ErrorWithDetails(ctx, c, err, nil)
}

func ErrorWithDetails(ctx context.Context, c *app.RequestContext, err error, details map[string]interface{}) {
	code, message := detailOf(err)
	c.JSON(StatusOf(err), ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

func Success(ctx context.Context, c *app.RequestContext, data interface{}) {
	c.JSON(http.StatusOK, SuccessResponse{
		Data: data,
	})
}

// Created 返回 201
func Created(ctx context.Context, c *app.RequestContext, data interface{}) {
	c.JSON(http.StatusCreated, SuccessResponse{
		Data: data,
	})
}

// Accepted 异步受理（紧急请求创建后通知在后台进行）
func Accepted(ctx context.Context, c *app.RequestContext, data interface{}) {
	c.JSON(http.StatusAccepted, SuccessResponse{
		Data: data,
	})
}

func SuccessWithMeta(ctx context.Context, c *app.RequestContext, data interface{}, meta map[string]interface{}) {
	c.JSON(http.StatusOK, SuccessResponse{
		Data: data,
		Meta: meta,
	})
}

func BindError(ctx context.Context, c *app.RequestContext, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error: ErrorDetail{
			Code:    errors.InvalidRequest.Code,
			Message: err.Error(),
		},
	})
}

// NoContent 返回 204 No Content（用于 DELETE 等操作）
func NoContent(ctx context.Context, c *app.RequestContext) {
	c.Status(http.StatusNoContent)
}
