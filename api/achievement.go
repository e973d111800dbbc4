package api

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"fintrack/middleware"
	"fintrack/service"
)

// AchievementHandler 成就处理器
type AchievementHandler struct {
	achievements *service.AchievementService
}

// NewAchievementHandler 创建成就处理器
func NewAchievementHandler(achievements *service.AchievementService) *AchievementHandler {
	return &AchievementHandler{achievements: achievements}
}

// Check 立即评估当前用户的成就
// @Summary 检查成就
// @Description 同步评估当前用户尚未获得的成就，返回本次新解锁的成就与累计积分
// @Tags 成就
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=service.EvaluationResult} "评估完成"
// @Failure 500 {object} Response "服务器错误"
// @Router /api/v1/achievements/check [post]
func (h *AchievementHandler) Check(c *gin.Context) {
	result, err := h.achievements.Evaluate(c.Request.Context(), middleware.GetCurrentUserID(c))
	if err != nil {
		ServiceError(c, err, "成就评估失败")
		return
	}

	message := "暂无新成就"
	if n := len(result.NewlyUnlocked); n > 0 {
		message = fmt.Sprintf("解锁 %d 个新成就", n)
	}
	SuccessWithMessage(c, message, result)
}

// List 成就列表
// @Summary 成就列表
// @Description 全部成就及当前用户的解锁状态
// @Tags 成就
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]service.AchievementStatus} "获取成功"
// @Router /api/v1/achievements [get]
func (h *AchievementHandler) List(c *gin.Context) {
	statuses, err := h.achievements.Catalog(c.Request.Context(), middleware.GetCurrentUserID(c))
	if err != nil {
		ServiceError(c, err, "查询成就失败")
		return
	}
	Success(c, statuses)
}

// Leaderboard 积分排行榜
// @Summary 成就排行榜
// @Description 按总积分降序，积分相同按成就数量降序
// @Tags 成就
// @Produce json
// @Security BearerAuth
// @Param limit query int false "返回条数" default(10)
// @Success 200 {object} Response{data=[]models.LeaderboardEntry} "获取成功"
// @Router /api/v1/achievements/leaderboard [get]
func (h *AchievementHandler) Leaderboard(c *gin.Context) {
	// 非数字的 limit 按 0 处理，由服务层取默认值
	limit, _ := strconv.Atoi(c.Query("limit"))
	entries, err := h.achievements.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		ServiceError(c, err, "查询排行榜失败")
		return
	}
	Success(c, entries)
}
