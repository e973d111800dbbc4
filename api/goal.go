package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"fintrack/middleware"
	"fintrack/service"
)

// GoalHandler 储蓄目标处理器
type GoalHandler struct {
	goals *service.GoalService
}

// NewGoalHandler 创建目标处理器
func NewGoalHandler(goals *service.GoalService) *GoalHandler {
	return &GoalHandler{goals: goals}
}

// MilestoneRequest 里程碑
type MilestoneRequest struct {
	Amount      decimal.Decimal `json:"amount" swaggertype:"number" example:"500"`
	Description string          `json:"description" binding:"max=255" example:"完成一半"`
}

// CreateGoalRequest 创建目标请求
type CreateGoalRequest struct {
	Title         string             `json:"title" binding:"required,max=100" example:"买新电脑"`
	Description   string             `json:"description" binding:"max=1000" example:""`
	TargetAmount  decimal.Decimal    `json:"target_amount" swaggertype:"number" example:"8000"`
	CurrentAmount *decimal.Decimal   `json:"current_amount" swaggertype:"number" example:"0"`
	Category      string             `json:"category" example:"purchase"`
	Priority      string             `json:"priority" example:"medium"`
	TargetDate    string             `json:"target_date" binding:"required" example:"2026-12-31"`
	Milestones    []MilestoneRequest `json:"milestones"`
}

// UpdateGoalRequest 修改目标请求，未传字段保持不变
type UpdateGoalRequest struct {
	Title        *string          `json:"title" binding:"omitempty,max=100"`
	Description  *string          `json:"description" binding:"omitempty,max=1000"`
	TargetAmount *decimal.Decimal `json:"target_amount" swaggertype:"number"`
	Category     *string          `json:"category"`
	Priority     *string          `json:"priority"`
	TargetDate   *string          `json:"target_date" example:"2026-12-31"`
}

// ContributionRequest 存入请求
type ContributionRequest struct {
	Amount decimal.Decimal `json:"amount" swaggertype:"number" example:"200"`
	Source string          `json:"source" example:"manual"`
	Note   string          `json:"note" binding:"max=255" example:"工资结余"`
}

// UpdateStatusRequest 修改状态请求
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required" example:"paused"`
}

// parseTargetDate 支持 RFC3339 或 YYYY-MM-DD，后者取当天结束时刻
func parseTargetDate(s string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t.AddDate(0, 0, 1).Add(-time.Second), true
}

// Create 创建目标
// @Summary 创建储蓄目标
// @Description 新目标状态为 active；初始金额达到目标金额时不会自动完成
// @Tags 储蓄目标
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateGoalRequest true "目标信息"
// @Success 200 {object} Response{data=models.Goal} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/goals [post]
func (h *GoalHandler) Create(c *gin.Context) {
	var req CreateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}
	targetDate, ok := parseTargetDate(req.TargetDate)
	if !ok {
		BadRequest(c, "目标日期格式错误，应为: 2006-01-02")
		return
	}

	in := service.CreateGoalInput{
		Title:         req.Title,
		Description:   req.Description,
		TargetAmount:  req.TargetAmount,
		CurrentAmount: req.CurrentAmount,
		Category:      req.Category,
		Priority:      req.Priority,
		TargetDate:    targetDate,
	}
	for _, m := range req.Milestones {
		in.Milestones = append(in.Milestones, service.MilestoneInput{Amount: m.Amount, Description: m.Description})
	}

	goal, err := h.goals.Create(c.Request.Context(), middleware.GetCurrentUserID(c), in)
	if err != nil {
		ServiceError(c, err, "创建目标失败")
		return
	}
	SuccessWithMessage(c, "创建成功", goal)
}

// List 获取目标列表
// @Summary 获取储蓄目标列表
// @Tags 储蓄目标
// @Produce json
// @Security BearerAuth
// @Param status query string false "状态筛选" Enums(active,completed,paused,cancelled)
// @Success 200 {object} Response{data=[]models.Goal} "获取成功"
// @Router /api/v1/goals [get]
func (h *GoalHandler) List(c *gin.Context) {
	goals, err := h.goals.List(c.Request.Context(), middleware.GetCurrentUserID(c), c.Query("status"))
	if err != nil {
		ServiceError(c, err, "查询目标失败")
		return
	}
	Success(c, goals)
}

// Get 获取目标详情
// @Summary 获取储蓄目标详情
// @Description 含里程碑与存入记录
// @Tags 储蓄目标
// @Produce json
// @Security BearerAuth
// @Param id path int true "目标ID"
// @Success 200 {object} Response{data=models.Goal} "获取成功"
// @Failure 404 {object} Response "目标不存在"
// @Router /api/v1/goals/{id} [get]
func (h *GoalHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	goal, err := h.goals.Get(c.Request.Context(), id, middleware.GetCurrentUserID(c))
	if err != nil {
		ServiceError(c, err, "查询目标失败")
		return
	}
	Success(c, goal)
}

// Update 修改目标
// @Summary 修改储蓄目标
// @Tags 储蓄目标
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "目标ID"
// @Param request body UpdateGoalRequest true "目标信息"
// @Success 200 {object} Response{data=models.Goal} "更新成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 404 {object} Response "目标不存在"
// @Router /api/v1/goals/{id} [put]
func (h *GoalHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req UpdateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	in := service.UpdateGoalInput{
		Title:        req.Title,
		Description:  req.Description,
		TargetAmount: req.TargetAmount,
		Category:     req.Category,
		Priority:     req.Priority,
	}
	if req.TargetDate != nil {
		t, ok := parseTargetDate(*req.TargetDate)
		if !ok {
			BadRequest(c, "目标日期格式错误，应为: 2006-01-02")
			return
		}
		in.TargetDate = &t
	}

	goal, err := h.goals.Update(c.Request.Context(), id, middleware.GetCurrentUserID(c), in)
	if err != nil {
		ServiceError(c, err, "更新目标失败")
		return
	}
	SuccessWithMessage(c, "更新成功", goal)
}

// Delete 删除目标
// @Summary 删除储蓄目标
// @Tags 储蓄目标
// @Produce json
// @Security BearerAuth
// @Param id path int true "目标ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "目标不存在"
// @Router /api/v1/goals/{id} [delete]
func (h *GoalHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.goals.Delete(c.Request.Context(), id, middleware.GetCurrentUserID(c)); err != nil {
		ServiceError(c, err, "删除目标失败")
		return
	}
	SuccessWithMessage(c, "删除成功", nil)
}

// Contribute 向目标存入
// @Summary 向储蓄目标存入
// @Description 仅 active 目标可存入；累计金额达到目标金额时自动完成
// @Tags 储蓄目标
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "目标ID"
// @Param request body ContributionRequest true "存入信息"
// @Success 200 {object} Response{data=models.Goal} "存入成功"
// @Failure 400 {object} Response "金额无效或目标不可存入"
// @Failure 404 {object} Response "目标不存在"
// @Router /api/v1/goals/{id}/contribute [post]
func (h *GoalHandler) Contribute(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req ContributionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	goal, err := h.goals.AddContribution(c.Request.Context(), id, middleware.GetCurrentUserID(c), req.Amount, req.Source, req.Note)
	if err != nil {
		ServiceError(c, err, "存入失败")
		return
	}
	SuccessWithMessage(c, "存入成功", goal)
}

// UpdateStatus 修改目标状态
// @Summary 修改储蓄目标状态
// @Description 状态可在 active/completed/paused/cancelled 之间任意切换
// @Tags 储蓄目标
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "目标ID"
// @Param request body UpdateStatusRequest true "目标状态"
// @Success 200 {object} Response{data=models.Goal} "更新成功"
// @Failure 400 {object} Response "无效的状态"
// @Failure 404 {object} Response "目标不存在"
// @Router /api/v1/goals/{id}/status [put]
func (h *GoalHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	goal, err := h.goals.UpdateStatus(c.Request.Context(), id, middleware.GetCurrentUserID(c), req.Status)
	if err != nil {
		ServiceError(c, err, "更新状态失败")
		return
	}
	SuccessWithMessage(c, "更新成功", goal)
}

// AddMilestone 追加里程碑
// @Summary 追加里程碑
// @Tags 储蓄目标
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "目标ID"
// @Param request body MilestoneRequest true "里程碑"
// @Success 200 {object} Response{data=models.Goal} "添加成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 404 {object} Response "目标不存在"
// @Router /api/v1/goals/{id}/milestones [post]
func (h *GoalHandler) AddMilestone(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req MilestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	goal, err := h.goals.AddMilestone(c.Request.Context(), id, middleware.GetCurrentUserID(c),
		service.MilestoneInput{Amount: req.Amount, Description: req.Description})
	if err != nil {
		ServiceError(c, err, "添加里程碑失败")
		return
	}
	SuccessWithMessage(c, "添加成功", goal)
}
