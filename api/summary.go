package api

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"fintrack/ledger"
	"fintrack/middleware"
)

// SummaryHandler 收支汇总处理器
type SummaryHandler struct {
	store ledger.Store
}

// NewSummaryHandler 创建汇总处理器
func NewSummaryHandler(store ledger.Store) *SummaryHandler {
	return &SummaryHandler{store: store}
}

// IncomeExpenseSummaryResponse 支出/收入汇总返回
type IncomeExpenseSummaryResponse struct {
	TotalExpense   decimal.Decimal `json:"total_expense" swaggertype:"number" example:"123.45"`
	TotalIncome    decimal.Decimal `json:"total_income" swaggertype:"number" example:"5000.00"`
	CurrentBalance decimal.Decimal `json:"current_balance" swaggertype:"number" example:"4876.55"` // 全部时间的余额
	SavingsRate    float64         `json:"savings_rate" example:"35.5"`                           // 本月储蓄率（百分比）
}

var (
	summaryFloor   = time.Date(1970, 1, 1, 0, 0, 0, 0, time.Local)
	summaryCeiling = time.Date(9999, 1, 1, 0, 0, 0, 0, time.Local)
)

// summaryRange 起止均为空时统计全部时间
func summaryRange(start, end *time.Time) *ledger.DateRange {
	if start == nil && end == nil {
		return nil
	}
	r := &ledger.DateRange{Start: summaryFloor, End: summaryCeiling}
	if start != nil {
		r.Start = *start
	}
	if end != nil {
		r.End = *end
	}
	return r
}

// GetIncomeExpenseSummary 获取支出和收入汇总
// @Summary 获取支出/收入汇总
// @Description 按时间范围统计当前用户的支出总和与收入总和，并附带当前余额与本月储蓄率。不传 start_time/end_time 则统计全部时间。
// @Tags 统计
// @Produce json
// @Security BearerAuth
// @Param start_time query string false "开始时间 (YYYY-MM-DD)，例如 2024-01-01"
// @Param end_time query string false "结束时间 (YYYY-MM-DD)，例如 2024-12-31"
// @Success 200 {object} Response{data=IncomeExpenseSummaryResponse} "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/statistics/summary [get]
func (h *SummaryHandler) GetIncomeExpenseSummary(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	ctx := c.Request.Context()

	start, end, err := parseDateRange(c.Query("start_time"), c.Query("end_time"))
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	r := summaryRange(start, end)

	totalExpense, err := h.store.SumAmounts(ctx, ledger.KindExpense, userID, r)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "统计支出失败"))
		return
	}
	totalIncome, err := h.store.SumAmounts(ctx, ledger.KindIncome, userID, r)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "统计收入失败"))
		return
	}
	agg, err := h.store.GetUserAggregate(ctx, userID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			NotFound(c, "用户不存在")
			return
		}
		InternalError(c, SafeErrorMessage(err, "查询用户失败"))
		return
	}

	Success(c, IncomeExpenseSummaryResponse{
		TotalExpense:   totalExpense,
		TotalIncome:    totalIncome,
		CurrentBalance: agg.CurrentBalance,
		SavingsRate:    agg.SavingsRate,
	})
}
