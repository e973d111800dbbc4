package api

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
)

// parseIDParam 解析路径中的 :id，失败时已写入 400
func parseIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		BadRequest(c, "无效的ID")
		return 0, false
	}
	return uint(id), true
}

// checkAmount 金额必须为正且最多两位小数，返回面向用户的提示
func checkAmount(amount decimal.Decimal) string {
	if !amount.Equal(amount.Round(2)) {
		return "金额最多两位小数"
	}
	if !amount.IsPositive() {
		return "金额必须大于 0"
	}
	return ""
}

// pageParams 分页参数，page_size 上限 100
func pageParams(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}

// parseDateRange 解析 YYYY-MM-DD 起止日期，结束日期包含当天
// 返回的 end 为次日零点，用于 < 比较
func parseDateRange(startStr, endStr string) (start, end *time.Time, err error) {
	if startStr != "" {
		t, err := time.ParseInLocation(dateLayout, startStr, time.Local)
		if err != nil {
			return nil, nil, errors.New("开始时间格式错误，应为: 2006-01-02")
		}
		start = &t
	}
	if endStr != "" {
		t, err := time.ParseInLocation(dateLayout, endStr, time.Local)
		if err != nil {
			return nil, nil, errors.New("结束时间格式错误，应为: 2006-01-02")
		}
		t = t.AddDate(0, 0, 1)
		end = &t
	}
	return start, end, nil
}

// scopeTimeRange 按时间列过滤
func scopeTimeRange(column string, start, end *time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if start != nil {
			db = db.Where(column+" >= ?", *start)
		}
		if end != nil {
			db = db.Where(column+" < ?", *end)
		}
		return db
	}
}
