package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	// UserStatusLocked 锁定：不可登录
	UserStatusLocked = "locked"
	// UserStatusActive 正常：可登录
	UserStatusActive = "active"
)

// User 用户模型
// CurrentBalance / SavingsRate 为聚合字段，由收支变动后刷新
type User struct {
	ID             uint            `json:"id" gorm:"primaryKey"`
	Username       string          `json:"username" gorm:"uniqueIndex;size:50;not null"`
	Password       string          `json:"-" gorm:"size:255;not null"`
	Email          string          `json:"email" gorm:"size:100"`
	Status         string          `json:"status" gorm:"size:20;default:active;index"` // 用户状态：locked/active
	CurrentBalance decimal.Decimal `json:"current_balance" gorm:"type:decimal(15,2);not null;default:0"`
	SavingsRate    float64         `json:"savings_rate" gorm:"type:decimal(10,2);not null;default:0"` // 本月储蓄率（百分比）
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `json:"-" gorm:"index"`
}

// TableName 设置表名
func (User) TableName() string {
	return "users"
}

// UserAggregate 用户财务聚合快照
type UserAggregate struct {
	CurrentBalance decimal.Decimal `json:"current_balance"`
	SavingsRate    float64         `json:"savings_rate"`
}
