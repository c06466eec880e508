package handler

import (
	"context"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"

	"BloodConnect/internal/model"
	"BloodConnect/internal/model/dto"
	"BloodConnect/pkg/errors"
	"BloodConnect/pkg/response"
)

// Health 存活检查
// GET /healthz
func Health(ctx context.Context, c *app.RequestContext) {
	response.Success(ctx, c, map[string]string{"status": "ok"})
}

// GetMeta 表单参考数据
// GET /v1/meta
func GetMeta(ctx context.Context, c *app.RequestContext) {
	meta := dto.MetaResponse{
		Districts: model.Districts,
	}
	for _, g := range model.BloodGroups {
		meta.BloodGroups = append(meta.BloodGroups, string(g))
	}
	for _, u := range model.Urgencies {
		meta.Urgencies = append(meta.Urgencies, string(u))
	}
	response.Success(ctx, c, meta)
}

// GetCompatibility 血型相容性，仅供展示，分发匹配不使用
// GET /v1/blood-groups/:group/compatibility
func GetCompatibility(ctx context.Context, c *app.RequestContext) {
	group := model.BloodGroup(strings.ToUpper(strings.TrimSpace(c.Param("group"))))
	compat, ok := model.CompatibilityOf(group)
	if !ok {
		response.Error(ctx, c, errors.InvalidBloodGroup)
		return
	}
	response.Success(ctx, c, compat)
}
