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

// IncomeHandler 收入处理器
type IncomeHandler struct {
	notifier service.Notifier
}

func NewIncomeHandler(notifier service.Notifier) *IncomeHandler {
	return &IncomeHandler{notifier: notifier}
}

func (h *IncomeHandler) notify(userID uint) {
	if h.notifier != nil {
		h.notifier.Fire(userID)
	}
}

type CreateIncomeRequest struct {
	Amount     decimal.Decimal `json:"amount" swaggertype:"number" example:"5000.00"`
	Type       string          `json:"type" binding:"required" example:"工资"`
	IncomeTime string          `json:"income_time" binding:"required" example:"2024-01-15 09:00:00"`
}

type UpdateIncomeRequest struct {
	Amount     *decimal.Decimal `json:"amount" swaggertype:"number"`
	Type       string           `json:"type"`
	IncomeTime string           `json:"income_time"`
}

type IncomeListRequest struct {
	Page      int    `form:"page" example:"1"`
	PageSize  int    `form:"page_size" example:"10"`
	Type      string `form:"type" example:"工资"`
	StartTime string `form:"start_time" example:"2024-01-01"`
	EndTime   string `form:"end_time" example:"2024-12-31"`
}

// Create 创建收入
// @Summary 创建收入
// @Tags 收入
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateIncomeRequest true "收入信息"
// @Success 200 {object} Response{data=models.Income} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/incomes [post]
func (h *IncomeHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	var req CreateIncomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}
	amount := req.Amount
	if msg := checkAmount(amount); msg != "" {
		BadRequest(c, msg)
		return
	}
	t, err := time.ParseInLocation(dateTimeLayout, req.IncomeTime, time.Local)
	if err != nil {
		BadRequest(c, "时间格式错误，应为: 2006-01-02 15:04:05")
		return
	}

	in := models.Income{UserID: userID, Amount: amount, Type: strings.TrimSpace(req.Type), IncomeTime: t}
	if err := database.DB.Create(&in).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "创建收入失败"))
		return
	}

	h.notify(userID)
	SuccessWithMessage(c, "创建成功", in)
}

// List 获取收入列表
// @Summary 获取收入列表
// @Tags 收入
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Param type query string false "收入类型筛选"
// @Param start_time query string false "开始时间 (2024-01-01)"
// @Param end_time query string false "结束时间 (2024-12-31)"
// @Success 200 {object} Response{data=PageResponse{list=[]models.Income}} "获取成功"
// @Router /api/v1/incomes [get]
func (h *IncomeHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	var req IncomeListRequest
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

	query := database.DB.Model(&models.Income{}).
		Where("user_id = ?", userID).
		Scopes(scopeTimeRange("income_time", start, end))
	if req.Type != "" {
		query = query.Where("type = ?", req.Type)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}
	list := []models.Income{}
	if err := query.Order("income_time DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&list).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}
	Success(c, PageResponse{Total: total, Page: page, PageSize: pageSize, List: list})
}

func (h *IncomeHandler) findOwned(c *gin.Context) (*models.Income, bool) {
	id, ok := parseIDParam(c)
	if !ok {
		return nil, false
	}
	var in models.Income
	if err := database.DB.Where("id = ? AND user_id = ?", id, middleware.GetCurrentUserID(c)).First(&in).Error; err != nil {
		NotFound(c, "记录不存在")
		return nil, false
	}
	return &in, true
}

// Get 获取收入详情
// @Summary 获取收入详情
// @Tags 收入
// @Produce json
// @Security BearerAuth
// @Param id path int true "收入ID"
// @Success 200 {object} Response{data=models.Income} "获取成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/incomes/{id} [get]
func (h *IncomeHandler) Get(c *gin.Context) {
	in, ok := h.findOwned(c)
	if !ok {
		return
	}
	Success(c, in)
}

// Update 更新收入
// @Summary 更新收入
// @Tags 收入
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "收入ID"
// @Param request body UpdateIncomeRequest true "收入信息"
// @Success 200 {object} Response{data=models.Income} "更新成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/incomes/{id} [put]
func (h *IncomeHandler) Update(c *gin.Context) {
	in, ok := h.findOwned(c)
	if !ok {
		return
	}
	var req UpdateIncomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	updates := map[string]interface{}{}
	if req.Amount != nil {
		if msg := checkAmount(*req.Amount); msg != "" {
			BadRequest(c, msg)
			return
		}
		updates["amount"] = *req.Amount
	}
	if typ := strings.TrimSpace(req.Type); typ != "" {
		updates["type"] = typ
	}
	if req.IncomeTime != "" {
		t, err := time.ParseInLocation(dateTimeLayout, req.IncomeTime, time.Local)
		if err != nil {
			BadRequest(c, "时间格式错误，应为: 2006-01-02 15:04:05")
			return
		}
		updates["income_time"] = t
	}
	if len(updates) == 0 {
		Success(c, in)
		return
	}

	if err := database.DB.Model(in).Updates(updates).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "更新失败"))
		return
	}

	h.notify(in.UserID)
	SuccessWithMessage(c, "更新成功", in)
}

// Delete 删除收入
// @Summary 删除收入
// @Tags 收入
// @Produce json
// @Security BearerAuth
// @Param id path int true "收入ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/incomes/{id} [delete]
func (h *IncomeHandler) Delete(c *gin.Context) {
	in, ok := h.findOwned(c)
	if !ok {
		return
	}
	if err := database.DB.Delete(in).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "删除失败"))
		return
	}

	h.notify(in.UserID)
	SuccessWithMessage(c, "删除成功", nil)
}

// GetIncomeCategories 获取收入类别列表
// @Summary 获取收入类别列表
// @Tags 收入
// @Produce json
// @Success 200 {object} Response{data=[]models.IncomeCategory} "获取成功"
// @Router /api/v1/income-categories [get]
func (h *IncomeHandler) GetIncomeCategories(c *gin.Context) {
	list := []models.IncomeCategory{}
	if err := database.DB.Order("sort ASC, id ASC").Find(&list).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}
	Success(c, list)
}
