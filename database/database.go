package database

import (
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"fintrack/config"
	"fintrack/models"
)

var DB *gorm.DB

// Dialector 按 database.driver 构建 GORM 方言
func Dialector(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=%s&parseTime=True&loc=Local",
			cfg.Username,
			cfg.Password,
			cfg.Host,
			cfg.Port,
			cfg.DBName,
			cfg.Charset,
		)
		return mysql.Open(dsn), nil
	case "postgres", "postgresql":
		sslMode := cfg.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=Local",
			cfg.Host,
			cfg.Port,
			cfg.Username,
			cfg.Password,
			cfg.DBName,
			sslMode,
		)
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("不支持的数据库类型: %s", cfg.Driver)
	}
}

// Init 初始化数据库连接
func Init(cfg *config.Config) error {
	dialector, err := Dialector(cfg.Database)
	if err != nil {
		return err
	}

	logLevel := logger.Info
	if cfg.IsRelease() {
		logLevel = logger.Warn
	}

	DB, err = gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return fmt.Errorf("连接数据库失败: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	if err := Migrate(DB); err != nil {
		return fmt.Errorf("数据库迁移失败: %w", err)
	}
	if err := SeedCategories(DB); err != nil {
		return fmt.Errorf("初始化类别失败: %w", err)
	}

	slog.Info("数据库初始化成功", "driver", cfg.Database.Driver, "host", cfg.Database.Host)
	return nil
}

// Migrate 自动迁移全部表
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Expense{},
		&models.Income{},
		&models.ExpenseCategory{},
		&models.IncomeCategory{},
		&models.Goal{},
		&models.GoalMilestone{},
		&models.GoalContribution{},
		&models.UserAchievement{},
	)
}

// 默认类别颜色与前端保持一致
var defaultExpenseColors = map[string]string{
	"餐饮": "#ef4444",
	"交通": "#3b82f6",
	"购物": "#a855f7",
	"娱乐": "#ec4899",
	"医疗": "#10b981",
	"教育": "#f59e0b",
	"住房": "#14b8a6",
	"其他": "#64748b",
}

var defaultIncomeCategories = []models.IncomeCategory{
	{Name: "工资", Sort: 10, Color: "#10b981"},
	{Name: "奖金", Sort: 20, Color: "#3b82f6"},
	{Name: "理财", Sort: 30, Color: "#a855f7"},
	{Name: "兼职", Sort: 40, Color: "#f59e0b"},
	{Name: "其他", Sort: 50, Color: "#64748b"},
}

// SeedCategories 表为空时写入默认收支类别
func SeedCategories(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.ExpenseCategory{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		var cats []models.ExpenseCategory
		for i, name := range models.GetCategories() {
			color := defaultExpenseColors[name]
			if color == "" {
				color = models.DefaultCategoryColor
			}
			cats = append(cats, models.ExpenseCategory{Name: name, Sort: (i + 1) * 10, Color: color})
		}
		if err := db.Create(&cats).Error; err != nil {
			return err
		}
	}

	if err := db.Model(&models.IncomeCategory{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		cats := append([]models.IncomeCategory(nil), defaultIncomeCategories...)
		if err := db.Create(&cats).Error; err != nil {
			return err
		}
	}
	return nil
}

// GetDB 获取数据库连接
func GetDB() *gorm.DB {
	return DB
}
