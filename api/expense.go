package api

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"fintrack/database"
	"fintrack/middleware"
	"fintrack/models"
	"fintrack/service"
)

// ExpenseHandler 消费记录处理器
// 写操作成功后通知 notifier，异步刷新余额并评估成就
type ExpenseHandler struct {
	notifier service.Notifier
}

// NewExpenseHandler 创建消费记录处理器
func NewExpenseHandler(notifier service.Notifier) *ExpenseHandler {
	return &ExpenseHandler{notifier: notifier}
}

func (h *ExpenseHandler) notify(userID uint) {
	if h.notifier != nil {
		h.notifier.Fire(userID)
	}
}

// CreateExpenseRequest 创建消费记录请求
type CreateExpenseRequest struct {
	Amount      decimal.Decimal `json:"amount" swaggertype:"number" example:"99.99"`
	Category    string          `json:"category" binding:"required" example:"餐饮"`
	Description string          `json:"description" binding:"max=255" example:"午餐"`
	ExpenseTime string          `json:"expense_time" binding:"required" example:"2024-01-15 12:30:00"`
}

// UpdateExpenseRequest 更新消费记录请求，未传字段保持不变
type UpdateExpenseRequest struct {
	Amount      *decimal.Decimal `json:"amount" swaggertype:"number" example:"99.99"`
	Category    string           `json:"category" example:"餐饮"`
	Description *string          `json:"description" example:"午餐"`
	ExpenseTime string           `json:"expense_time" example:"2024-01-15 12:30:00"`
}

// ExpenseListRequest 消费记录列表请求
type ExpenseListRequest struct {
	Page      int    `form:"page" example:"1"`
	PageSize  int    `form:"page_size" example:"10"`
	Category  string `form:"category" example:"餐饮"`
	StartTime string `form:"start_time" example:"2024-01-01"`
	EndTime   string `form:"end_time" example:"2024-12-31"`
}

// validExpenseCategory 类别需存在于 expense_categories
func validExpenseCategory(name string) bool {
	var cat models.ExpenseCategory
	return database.DB.Where("name = ?", name).First(&cat).Error == nil
}

// Create 创建消费记录
// @Summary 创建消费记录
// @Tags 消费记录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateExpenseRequest true "消费记录信息"
// @Success 200 {object} Response{data=models.Expense} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/expenses [post]
func (h *ExpenseHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}
	amount := req.Amount
	if msg := checkAmount(amount); msg != "" {
		BadRequest(c, msg)
		return
	}

	req.Category = strings.TrimSpace(req.Category)
	if req.Category == "" || !validExpenseCategory(req.Category) {
		BadRequest(c, "无效的消费类别")
		return
	}

	expenseTime, err := time.ParseInLocation(dateTimeLayout, req.ExpenseTime, time.Local)
	if err != nil {
		BadRequest(c, "时间格式错误，应为: 2006-01-02 15:04:05")
		return
	}

	expense := models.Expense{
		UserID:      userID,
		Amount:      amount,
		Category:    req.Category,
		Description: req.Description,
		ExpenseTime: expenseTime,
	}
	if err := database.DB.Create(&expense).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "创建消费记录失败"))
		return
	}

	h.notify(userID)
	SuccessWithMessage(c, "创建成功", expense)
}

// List 获取消费记录列表
// @Summary 获取消费记录列表
// @Description 支持分页、类别与时间范围筛选
// @Tags 消费记录
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Param category query string false "类别筛选"
// @Param start_time query string false "开始时间 (2024-01-01)"
// @Param end_time query string false "结束时间 (2024-12-31)"
// @Success 200 {object} Response{data=PageResponse{list=[]models.Expense}} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/expenses [get]
func (h *ExpenseHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req ExpenseListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}
	page, pageSize := pageParams(req.Page, req.PageSize)
	start, end, err := parseDateRange(req.StartTime, req.EndTime)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	query := database.DB.Model(&models.Expense{}).
		Where("user_id = ?", userID).
		Scopes(scopeTimeRange("expense_time", start, end))
	if req.Category != "" {
		query = query.Where("category = ?", req.Category)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	expenses := []models.Expense{}
	if err := query.Order("expense_time DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&expenses).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	Success(c, PageResponse{Total: total, Page: page, PageSize: pageSize, List: expenses})
}

func (h *ExpenseHandler) findOwned(c *gin.Context) (*models.Expense, bool) {
	id, ok := parseIDParam(c)
	if !ok {
		return nil, false
	}
	var expense models.Expense
	if err := database.DB.Where("id = ? AND user_id = ?", id, middleware.GetCurrentUserID(c)).First(&expense).Error; err != nil {
		NotFound(c, "记录不存在")
		return nil, false
	}
	return &expense, true
}

// Get 获取单条消费记录
// @Summary 获取单条消费记录
// @Tags 消费记录
// @Produce json
// @Security BearerAuth
// @Param id path int true "消费记录ID"
// @Success 200 {object} Response{data=models.Expense} "获取成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/expenses/{id} [get]
func (h *ExpenseHandler) Get(c *gin.Context) {
	expense, ok := h.findOwned(c)
	if !ok {
		return
	}
	Success(c, expense)
}

// Update 更新消费记录
// @Summary 更新消费记录
// @Tags 消费记录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "消费记录ID"
// @Param request body UpdateExpenseRequest true "消费记录信息"
// @Success 200 {object} Response{data=models.Expense} "更新成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/expenses/{id} [put]
func (h *ExpenseHandler) Update(c *gin.Context) {
	expense, ok := h.findOwned(c)
	if !ok {
		return
	}

	var req UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	updates := make(map[string]interface{})
	if req.Amount != nil {
		if msg := checkAmount(*req.Amount); msg != "" {
			BadRequest(c, msg)
			return
		}
		updates["amount"] = *req.Amount
	}
	if category := strings.TrimSpace(req.Category); category != "" {
		if !validExpenseCategory(category) {
			BadRequest(c, "无效的消费类别")
			return
		}
		updates["category"] = category
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.ExpenseTime != "" {
		expenseTime, err := time.ParseInLocation(dateTimeLayout, req.ExpenseTime, time.Local)
		if err != nil {
			BadRequest(c, "时间格式错误，应为: 2006-01-02 15:04:05")
			return
		}
		updates["expense_time"] = expenseTime
	}
	if len(updates) == 0 {
		Success(c, expense)
		return
	}

	if err := database.DB.Model(expense).Updates(updates).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "更新失败"))
		return
	}

	h.notify(expense.UserID)
	SuccessWithMessage(c, "更新成功", expense)
}

// Delete 删除消费记录
// @Summary 删除消费记录
// @Tags 消费记录
// @Produce json
// @Security BearerAuth
// @Param id path int true "消费记录ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/expenses/{id} [delete]
func (h *ExpenseHandler) Delete(c *gin.Context) {
	expense, ok := h.findOwned(c)
	if !ok {
		return
	}

	if err := database.DB.Delete(expense).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "删除失败"))
		return
	}

	h.notify(expense.UserID)
	SuccessWithMessage(c, "删除成功", nil)
}

// GetCategories 获取消费类别列表，按 sort、id 升序
// @Summary 获取消费类别列表
// @Tags 消费记录
// @Produce json
// @Success 200 {object} Response{data=[]models.ExpenseCategory} "获取成功"
// @Router /api/v1/categories [get]
func (h *ExpenseHandler) GetCategories(c *gin.Context) {
	list := []models.ExpenseCategory{}
	if err := database.DB.Order("sort ASC, id ASC").Find(&list).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}
	Success(c, list)
}

// CategoryStat 按类别汇总
type CategoryStat struct {
	Category   string          `json:"category"`
	Total      decimal.Decimal `json:"total" swaggertype:"number"`
	Count      int64           `json:"count"`
	Percentage float64         `json:"percentage"`
}

// GetStatistics 获取消费统计
// @Summary 获取消费统计
// @Description 指定时间范围内的消费总额与按类别汇总，percentage 为占比
// @Tags 消费记录
// @Produce json
// @Security BearerAuth
// @Param start_time query string false "开始时间 (2024-01-01)"
// @Param end_time query string false "结束时间 (2024-12-31)"
// @Success 200 {object} Response "获取成功"
// @Router /api/v1/expenses/statistics [get]
func (h *ExpenseHandler) GetStatistics(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	start, end, err := parseDateRange(c.Query("start_time"), c.Query("end_time"))
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	stats := []CategoryStat{}
	if err := database.DB.Model(&models.Expense{}).
		Select("category, COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Scopes(scopeTimeRange("expense_time", start, end)).
		Group("category").
		Order("total DESC").
		Scan(&stats).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	total := decimal.Zero
	for _, s := range stats {
		total = total.Add(s.Total)
	}
	if total.IsPositive() {
		for i := range stats {
			stats[i].Percentage = stats[i].Total.Mul(decimal.NewFromInt(100)).Div(total).Round(2).InexactFloat64()
		}
	}

	Success(c, gin.H{
		"total_amount":   total,
		"category_stats": stats,
	})
}
