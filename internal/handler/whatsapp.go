package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"BloodConnect/internal/model/dto"
	"BloodConnect/internal/service"
	"BloodConnect/pkg/response"
)

// GetWhatsAppStatus 未初始化时会在后台触发初始化
// GET /v1/admin/whatsapp/status
func GetWhatsAppStatus(ctx context.Context, c *app.RequestContext) {
	st, err := service.WhatsApp().Status(ctx)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, st)
}

// InitializeWhatsApp
// POST /v1/admin/whatsapp/initialize
func InitializeWhatsApp(ctx context.Context, c *app.RequestContext) {
	if err := service.WhatsApp().Initialize(ctx); err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Accepted(ctx, c, map[string]string{"message": "Initialization started, scan the QR code when it appears"})
}

// LogoutWhatsApp
// DELETE /v1/admin/whatsapp/session
func LogoutWhatsApp(ctx context.Context, c *app.RequestContext) {
	if err := service.WhatsApp().Logout(ctx); err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.NoContent(ctx, c)
}

// SendWhatsApp 单条发送，未就绪时 503
// POST /v1/admin/whatsapp/send
func SendWhatsApp(ctx context.Context, c *app.RequestContext) {
	var req dto.WhatsAppSendRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	id, err := service.WhatsApp().Send(ctx, req.PhoneNumber, req.Message)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, map[string]string{"message_id": id})
}
