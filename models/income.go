package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Income 收入记录模型
type Income struct {
	ID         uint            `json:"id" gorm:"primaryKey"`
	UserID     uint            `json:"user_id" gorm:"index;not null"`
	Amount     decimal.Decimal `json:"amount" gorm:"type:decimal(15,2);not null"`
	Type       string          `json:"type" gorm:"size:50;not null"` // 收入类型，对应 income_categories.name
	IncomeTime time.Time       `json:"income_time" gorm:"not null;index"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	DeletedAt  gorm.DeletedAt  `json:"-" gorm:"index"`
}

func (Income) TableName() string {
	return "incomes"
}
