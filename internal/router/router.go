package router

import (
	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"

	"BloodConnect/internal/handler"
	"BloodConnect/internal/middleware"
)

// Register 注册所有路由；tracing 为 hertz-contrib 的 server tracer 中间件，可为 nil
func Register(h *server.Hertz, tracing app.HandlerFunc) {
	h.Use(middleware.RecoverMiddleware())
	h.Use(middleware.CORSMiddleware())
	if tracing != nil {
		h.Use(tracing)
	}
	h.Use(middleware.OpenTelemetryMiddleware())

	h.GET("/healthz", handler.Health)

	v1 := h.Group("/v1")
	v1.Use(middleware.GeneralRateLimitMiddleware())

	// 公开接口
	v1.GET("/meta", handler.GetMeta)
	v1.GET("/blood-groups/:group/compatibility", handler.GetCompatibility)

	donors := v1.Group("/donors")
	{
		donors.GET("", handler.SearchDonors)
		donors.POST("", middleware.DonorRegisterRateLimitMiddleware(), handler.RegisterDonor)
	}

	emergency := v1.Group("/emergency-requests")
	{
		emergency.POST("", middleware.EmergencyRateLimitMiddleware(), handler.CreateEmergencyRequest)
		emergency.GET("/:id/dispatch", handler.GetDispatchSummary)
	}

	// 管理员登录
	admin := v1.Group("/admin")
	admin.POST("/login", middleware.AdminLoginRateLimitMiddleware(), handler.AdminLogin)
	admin.POST("/token/refresh", middleware.AdminLoginRateLimitMiddleware(), handler.RefreshToken)

	// 需要管理员鉴权
	authed := admin.Group("", middleware.AuthMiddleware())
	{
		authed.POST("/logout", handler.AdminLogout)
		authed.GET("/channels", handler.GetChannels)
		authed.POST("/broadcast", middleware.BroadcastRateLimitMiddleware(), handler.AdminBroadcast)

		authed.GET("/donors", handler.AdminListDonors)
		authed.PATCH("/donors/:id/availability", handler.UpdateDonorAvailability)
		authed.PATCH("/donors/:id/donation-status", handler.UpdateDonationStatus)
		authed.DELETE("/donors/:id", handler.DeleteDonor)

		authed.GET("/emergency-requests", handler.AdminListEmergencyRequests)
		authed.PATCH("/emergency-requests/:id/status", handler.AdminUpdateEmergencyStatus)
		authed.GET("/emergency-requests/:id/dispatch", handler.AdminGetDispatchSummary)

		authed.GET("/whatsapp/status", handler.GetWhatsAppStatus)
		authed.POST("/whatsapp/initialize", handler.InitializeWhatsApp)
		authed.DELETE("/whatsapp/session", handler.LogoutWhatsApp)
		authed.POST("/whatsapp/send", handler.SendWhatsApp)
	}
}
