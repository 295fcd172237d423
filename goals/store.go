package goals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Categories 固定的目标分类集合
var Categories = []string{
	"Retirement",
	"Education",
	"House",
	"Emergency Fund",
	"Vacation",
	"Other",
}

// ErrGoalNotFound 目标不存在
var ErrGoalNotFound = errors.New("goal not found")

// Goal 储蓄目标
type Goal struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	Name                string    `gorm:"uniqueIndex;not null" json:"name"`
	Category            string    `gorm:"not null" json:"category"`
	TargetAmount        float64   `json:"target_amount"`
	CurrentAmount       float64   `json:"current_amount"`
	MonthlyContribution float64   `json:"monthly_contribution"`
	HorizonYears        int       `json:"horizon_years"`
	AnnualReturnPct     float64   `json:"annual_return_pct"`
	CreatedOn           time.Time `gorm:"autoCreateTime" json:"created_on"`
}

// Validate 检查字段合法性
func (g *Goal) Validate() error {
	if g.Name == "" {
		return fmt.Errorf("goal name is required")
	}
	if !validCategory(g.Category) {
		return fmt.Errorf("unknown category %q", g.Category)
	}
	if g.TargetAmount < 0 || g.CurrentAmount < 0 || g.MonthlyContribution < 0 {
		return fmt.Errorf("amounts must be non-negative")
	}
	if g.HorizonYears <= 0 {
		return fmt.Errorf("horizon must be at least one year")
	}
	return nil
}

// Schedule 返回该目标的逐月预测,从当前余额起步。
func (g *Goal) Schedule() []Point {
	return Projection(g.CurrentAmount, g.MonthlyContribution, g.HorizonYears*12, g.AnnualReturnPct)
}

func validCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

// Store 目标注册表,gorm + sqlite 持久化。
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Open 打开(或创建)目标数据库并完成迁移。path 传 ":memory:"
// 时为纯内存库,测试用。
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open goal database: %w", err)
	}

	if err := db.AutoMigrate(&Goal{}); err != nil {
		return nil, fmt.Errorf("migrate goal schema: %w", err)
	}

	return &Store{db: db, logger: logger.With(zap.String("component", "goal_store"))}, nil
}

// Create 新建目标。同名目标已存在时报错。
func (s *Store) Create(ctx context.Context, goal *Goal) error {
	if err := goal.Validate(); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Create(goal).Error; err != nil {
		return fmt.Errorf("create goal: %w", err)
	}

	s.logger.Info("goal created",
		zap.String("name", goal.Name),
		zap.String("category", goal.Category),
		zap.Float64("target", goal.TargetAmount))
	return nil
}

// Get 按名称取目标
func (s *Store) Get(ctx context.Context, name string) (*Goal, error) {
	var goal Goal
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&goal).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGoalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get goal: %w", err)
	}
	return &goal, nil
}

// List 按创建时间返回全部目标
func (s *Store) List(ctx context.Context) ([]Goal, error) {
	var goals []Goal
	if err := s.db.WithContext(ctx).Order("created_on, id").Find(&goals).Error; err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return goals, nil
}

// Update 按名称就地更新目标参数
func (s *Store) Update(ctx context.Context, goal *Goal) error {
	if err := goal.Validate(); err != nil {
		return err
	}

	result := s.db.WithContext(ctx).Model(&Goal{}).Where("name = ?", goal.Name).Updates(map[string]interface{}{
		"category":             goal.Category,
		"target_amount":        goal.TargetAmount,
		"current_amount":       goal.CurrentAmount,
		"monthly_contribution": goal.MonthlyContribution,
		"horizon_years":        goal.HorizonYears,
		"annual_return_pct":    goal.AnnualReturnPct,
	})
	if result.Error != nil {
		return fmt.Errorf("update goal: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrGoalNotFound
	}
	return nil
}

// Delete 按名称删除目标
func (s *Store) Delete(ctx context.Context, name string) error {
	result := s.db.WithContext(ctx).Where("name = ?", name).Delete(&Goal{})
	if result.Error != nil {
		return fmt.Errorf("delete goal: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrGoalNotFound
	}
	return nil
}

// Close 关闭底层连接
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
