package api

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"fintrack/database"
	"fintrack/middleware"
	"fintrack/models"
	"fintrack/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler 导出处理器
type ExportHandler struct {
	goals *service.GoalService
}

// NewExportHandler 创建导出处理器
func NewExportHandler(goals *service.GoalService) *ExportHandler {
	return &ExportHandler{goals: goals}
}

// queryExportExpenses 解析必填的起止日期并查询消费记录，失败时已写入响应
func queryExportExpenses(c *gin.Context) ([]models.Expense, bool) {
	startStr, endStr := c.Query("start_time"), c.Query("end_time")
	if startStr == "" || endStr == "" {
		BadRequest(c, "请提供开始时间和结束时间")
		return nil, false
	}
	start, end, err := parseDateRange(startStr, endStr)
	if err != nil {
		BadRequest(c, err.Error())
		return nil, false
	}

	var expenses []models.Expense
	if err := database.DB.Where("user_id = ?", middleware.GetCurrentUserID(c)).
		Scopes(scopeTimeRange("expense_time", start, end)).
		Order("expense_time DESC").
		Find(&expenses).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询数据失败"))
		return nil, false
	}
	return expenses, true
}

// ExportCSV 导出消费记录为 CSV
// @Summary 导出消费记录
// @Description 根据时间范围导出消费记录为 CSV 文件
// @Tags 导出
// @Produce text/csv
// @Security BearerAuth
// @Param start_time query string true "开始时间 (2024-01-01)"
// @Param end_time query string true "结束时间 (2024-12-31)"
// @Success 200 {file} file "CSV 文件"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/export/csv [get]
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	expenses, ok := queryExportExpenses(c)
	if !ok {
		return
	}

	buf := new(bytes.Buffer)
	// BOM，Excel 打开时中文不乱码
	buf.WriteString("\xEF\xBB\xBF")
	writer := csv.NewWriter(buf)

	rows := [][]string{{"ID", "金额", "类别", "描述", "消费时间", "创建时间"}}
	for _, e := range expenses {
		rows = append(rows, []string{
			strconv.FormatUint(uint64(e.ID), 10),
			e.Amount.StringFixed(2),
			e.Category,
			e.Description,
			e.ExpenseTime.Format(dateTimeLayout),
			e.CreatedAt.Format(dateTimeLayout),
		})
	}
	if err := writer.WriteAll(rows); err != nil {
		InternalError(c, "生成 CSV 失败")
		return
	}

	filename := fmt.Sprintf("expenses_%s_%s.csv", c.Query("start_time"), c.Query("end_time"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// ExportJSON 导出消费记录为 JSON
// @Summary 导出消费记录为 JSON
// @Description 根据时间范围导出消费记录及合计
// @Tags 导出
// @Produce json
// @Security BearerAuth
// @Param start_time query string true "开始时间 (2024-01-01)"
// @Param end_time query string true "结束时间 (2024-12-31)"
// @Success 200 {object} Response "导出成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/export/json [get]
func (h *ExportHandler) ExportJSON(c *gin.Context) {
	expenses, ok := queryExportExpenses(c)
	if !ok {
		return
	}

	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}

	Success(c, gin.H{
		"start_time":   c.Query("start_time"),
		"end_time":     c.Query("end_time"),
		"total_count":  len(expenses),
		"total_amount": total,
		"expenses":     expenses,
	})
}

var goalStatusLabels = map[string]string{
	models.GoalStatusActive:    "进行中",
	models.GoalStatusCompleted: "已完成",
	models.GoalStatusPaused:    "已暂停",
	models.GoalStatusCancelled: "已取消",
}

func cellBorder() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
	}
}

// writeSheet 写入表头与数据行
func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]interface{}, headerStyle, dataStyle int) error {
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return err
		}
	}
	lastCol, _ := excelize.CoordinatesToCellName(len(headers), 1)
	f.SetCellStyle(sheet, "A1", lastCol, headerStyle)

	for r, row := range rows {
		for col, v := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, r+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	if len(rows) > 0 {
		end, _ := excelize.CoordinatesToCellName(len(headers), len(rows)+1)
		f.SetCellStyle(sheet, "A2", end, dataStyle)
	}
	return nil
}

// ExportGoals 导出储蓄目标与存入记录为 Excel
// @Summary 导出储蓄目标
// @Description 导出当前用户全部目标及其存入记录，两个工作表
// @Tags 导出
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Success 200 {file} file "Excel 文件"
// @Failure 401 {object} Response "未授权"
// @Failure 500 {object} Response "服务器错误"
// @Router /api/v1/export/goals [get]
func (h *ExportHandler) ExportGoals(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	ctx := c.Request.Context()

	goals, err := h.goals.List(ctx, userID, "")
	if err != nil {
		ServiceError(c, err, "查询目标失败")
		return
	}

	var goalRows, contribRows [][]interface{}
	for _, g := range goals {
		detail, err := h.goals.Get(ctx, g.ID, userID)
		if err != nil {
			ServiceError(c, err, "查询目标失败")
			return
		}
		completedAt := ""
		if detail.CompletedAt != nil {
			completedAt = detail.CompletedAt.Format(dateTimeLayout)
		}
		goalRows = append(goalRows, []interface{}{
			detail.ID,
			detail.Title,
			detail.Category,
			detail.TargetAmount.InexactFloat64(),
			detail.CurrentAmount.InexactFloat64(),
			detail.ProgressPercentage,
			goalStatusLabels[detail.Status],
			detail.TargetDate.Format(dateLayout),
			completedAt,
		})
		for _, ct := range detail.Contributions {
			contribRows = append(contribRows, []interface{}{
				detail.ID,
				detail.Title,
				ct.Amount.InexactFloat64(),
				ct.Source,
				ct.Note,
				ct.Date.Format(dateTimeLayout),
			})
		}
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    cellBorder(),
	})
	dataStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    cellBorder(),
	})

	const goalSheet, contribSheet = "储蓄目标", "存入记录"
	f.SetSheetName("Sheet1", goalSheet)
	if _, err := f.NewSheet(contribSheet); err != nil {
		InternalError(c, "生成 Excel 失败")
		return
	}
	f.SetColWidth(goalSheet, "B", "B", 30)
	f.SetColWidth(goalSheet, "D", "I", 16)
	f.SetColWidth(contribSheet, "B", "B", 30)
	f.SetColWidth(contribSheet, "E", "F", 22)

	if err := writeSheet(f, goalSheet,
		[]string{"ID", "目标", "类别", "目标金额", "已存金额", "进度(%)", "状态", "截止日期", "完成时间"},
		goalRows, headerStyle, dataStyle); err != nil {
		InternalError(c, "生成 Excel 失败")
		return
	}
	if err := writeSheet(f, contribSheet,
		[]string{"目标ID", "目标", "金额", "来源", "备注", "存入时间"},
		contribRows, headerStyle, dataStyle); err != nil {
		InternalError(c, "生成 Excel 失败")
		return
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		InternalError(c, "生成 Excel 失败")
		return
	}

	filename := fmt.Sprintf("goals_%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
