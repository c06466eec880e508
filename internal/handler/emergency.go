package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"BloodConnect/internal/model/dto"
	"BloodConnect/internal/service"
	"BloodConnect/pkg/errors"
	"BloodConnect/pkg/response"
)

// CreateEmergencyRequest 保存请求后立即返回 202，通知在后台发送
// POST /v1/emergency-requests
func CreateEmergencyRequest(ctx context.Context, c *app.RequestContext) {
	var req dto.CreateEmergencyRequest
	if err := c.BindJSON(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	resp, err := service.Emergency().Create(ctx, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Accepted(ctx, c, resp)
}

// GetDispatchSummary 轮询后台分发结果，只返回计数；未完成时 404 DISPATCH_PENDING
// GET /v1/emergency-requests/:id/dispatch
func GetDispatchSummary(ctx context.Context, c *app.RequestContext) {
	id, ok := pathID(c, "id")
	if !ok {
		response.Error(ctx, c, errors.InvalidRequest.WithMessage("invalid request id"))
		return
	}

	counts, err := service.Emergency().DispatchCounts(ctx, id)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, counts)
}

// AdminGetDispatchSummary 含每个收件人的发送结果
// GET /v1/admin/emergency-requests/:id/dispatch
func AdminGetDispatchSummary(ctx context.Context, c *app.RequestContext) {
	id, ok := pathID(c, "id")
	if !ok {
		response.Error(ctx, c, errors.InvalidRequest.WithMessage("invalid request id"))
		return
	}

	summary, err := service.Emergency().Summary(ctx, id)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, summary)
}

// AdminListEmergencyRequests
// GET /v1/admin/emergency-requests?status=open
func AdminListEmergencyRequests(ctx context.Context, c *app.RequestContext) {
	var q dto.ListEmergencyQuery
	if err := c.BindQuery(&q); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	items, err := service.Emergency().List(ctx, q.Status)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.SuccessWithMeta(ctx, c, items, map[string]interface{}{"count": len(items)})
}

// AdminUpdateEmergencyStatus
// PATCH /v1/admin/emergency-requests/:id/status
func AdminUpdateEmergencyStatus(ctx context.Context, c *app.RequestContext) {
	id, ok := pathID(c, "id")
	if !ok {
		response.Error(ctx, c, errors.InvalidRequest.WithMessage("invalid request id"))
		return
	}

	var req dto.UpdateEmergencyStatusRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	if err := service.Emergency().UpdateStatus(ctx, id, req.Status); err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.NoContent(ctx, c)
}

// AdminBroadcast 同步广播并返回汇总
// POST /v1/admin/broadcast
func AdminBroadcast(ctx context.Context, c *app.RequestContext) {
	var req dto.BroadcastRequest
	if err := c.BindJSON(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	summary, err := service.Notification().Broadcast(ctx, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, summary)
}
