package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"fintrack/api"
	"fintrack/config"
	_ "fintrack/docs"
	"fintrack/middleware"
)

// Handlers 路由依赖的全部处理器
type Handlers struct {
	Auth        *api.AuthHandler
	Goal        *api.GoalHandler
	Achievement *api.AchievementHandler
	Expense     *api.ExpenseHandler
	Income      *api.IncomeHandler
	Summary     *api.SummaryHandler
	Export      *api.ExportHandler
}

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, h Handlers) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogging())
	r.Use(CORSMiddleware())

	// Swagger 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	v1 := r.Group("/api/v1")
	{
		// 认证相关路由（无需登录）
		auth := v1.Group("/auth")
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", middleware.LoginRateLimit(10, time.Minute), h.Auth.Login)
		}

		// 类别（无需登录）
		v1.GET("/categories", h.Expense.GetCategories)
		v1.GET("/income-categories", h.Income.GetIncomeCategories)

		// 需要 JWT 认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth())
		{
			authorized.GET("/auth/profile", h.Auth.GetProfile)
			authorized.PUT("/auth/password", h.Auth.ChangePassword)

			// 储蓄目标
			goals := authorized.Group("/goals")
			{
				goals.POST("", h.Goal.Create)
				goals.GET("", h.Goal.List)
				goals.GET("/:id", h.Goal.Get)
				goals.PUT("/:id", h.Goal.Update)
				goals.DELETE("/:id", h.Goal.Delete)
				goals.POST("/:id/contribute", middleware.UserRateLimit(60, time.Minute), h.Goal.Contribute)
				goals.PUT("/:id/status", h.Goal.UpdateStatus)
				goals.POST("/:id/milestones", h.Goal.AddMilestone)
			}

			// 成就
			achievements := authorized.Group("/achievements")
			{
				achievements.GET("", h.Achievement.List)
				achievements.POST("/check", middleware.UserRateLimit(30, time.Minute), h.Achievement.Check)
				achievements.GET("/leaderboard", h.Achievement.Leaderboard)
			}

			// 消费记录
			expenses := authorized.Group("/expenses")
			{
				expenses.POST("", h.Expense.Create)
				expenses.GET("", h.Expense.List)
				expenses.GET("/statistics", h.Expense.GetStatistics)
				expenses.GET("/:id", h.Expense.Get)
				expenses.PUT("/:id", h.Expense.Update)
				expenses.DELETE("/:id", h.Expense.Delete)
			}

			// 收入
			incomes := authorized.Group("/incomes")
			{
				incomes.POST("", h.Income.Create)
				incomes.GET("", h.Income.List)
				incomes.GET("/:id", h.Income.Get)
				incomes.PUT("/:id", h.Income.Update)
				incomes.DELETE("/:id", h.Income.Delete)
			}

			authorized.GET("/statistics/summary", h.Summary.GetIncomeExpenseSummary)

			// 导出
			export := authorized.Group("/export")
			{
				export.GET("/csv", h.Export.ExportCSV)
				export.GET("/json", h.Export.ExportJSON)
				export.GET("/goals", h.Export.ExportGoals)
			}
		}
	}

	return r
}

// CORSMiddleware CORS 跨域中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
