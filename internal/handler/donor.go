package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"BloodConnect/internal/model/dto"
	"BloodConnect/internal/service"
	"BloodConnect/pkg/errors"
	"BloodConnect/pkg/response"
)

// RegisterDonor 献血者登记
// POST /v1/donors
func RegisterDonor(ctx context.Context, c *app.RequestContext) {
	var req dto.RegisterDonorRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	item, err := service.Donor().Register(ctx, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Created(ctx, c, item)
}

// SearchDonors 公开查询可用献血者
// GET /v1/donors?blood_group=&district=
func SearchDonors(ctx context.Context, c *app.RequestContext) {
	searchDonors(ctx, c, false)
}

// AdminListDonors 管理员查询，包含不可用献血者和完整联系方式
// GET /v1/admin/donors
func AdminListDonors(ctx context.Context, c *app.RequestContext) {
	searchDonors(ctx, c, true)
}

func searchDonors(ctx context.Context, c *app.RequestContext, admin bool) {
	var q dto.SearchDonorsQuery
	if err := c.BindQuery(&q); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	items, err := service.Donor().Search(ctx, q, admin)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.SuccessWithMeta(ctx, c, items, map[string]interface{}{"count": len(items)})
}

// UpdateDonorAvailability
// PATCH /v1/admin/donors/:id/availability
func UpdateDonorAvailability(ctx context.Context, c *app.RequestContext) {
	id, ok := pathID(c, "id")
	if !ok {
		response.Error(ctx, c, errors.InvalidRequest.WithMessage("invalid donor id"))
		return
	}

	var req dto.UpdateAvailabilityRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	if err := service.Donor().SetAvailability(ctx, id, *req.IsAvailable); err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.NoContent(ctx, c)
}

// UpdateDonationStatus
// PATCH /v1/admin/donors/:id/donation-status
func UpdateDonationStatus(ctx context.Context, c *app.RequestContext) {
	id, ok := pathID(c, "id")
	if !ok {
		response.Error(ctx, c, errors.InvalidRequest.WithMessage("invalid donor id"))
		return
	}

	var req dto.UpdateDonationStatusRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	if err := service.Donor().SetDonationStatus(ctx, id, req.DonationStatus); err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.NoContent(ctx, c)
}

// DeleteDonor
// DELETE /v1/admin/donors/:id
func DeleteDonor(ctx context.Context, c *app.RequestContext) {
	id, ok := pathID(c, "id")
	if !ok {
		response.Error(ctx, c, errors.InvalidRequest.WithMessage("invalid donor id"))
		return
	}

	if err := service.Donor().Delete(ctx, id); err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.NoContent(ctx, c)
}
