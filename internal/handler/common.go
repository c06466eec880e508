package handler

import (
	"github.com/cloudwego/hertz/pkg/app"

	"BloodConnect/pkg/snowflake"
)

// pathID 解析路径中的 PublicID
func pathID(c *app.RequestContext, name string) (int64, bool) {
	return snowflake.ParseID(c.Param(name))
}
