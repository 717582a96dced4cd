package meal

import (
	"context"
	"fmt"
	"time"

	"smartchef/internal/core/applog"
	"smartchef/internal/core/ingredient"
	"smartchef/internal/core/user"
	"smartchef/internal/infrastructure/metrics"
	"smartchef/internal/pkg/common"

	"go.uber.org/zap"
)

// MaxCalorieTarget 目標熱量上限
const MaxCalorieTarget = 20000

// GenerateInput 外部傳入的生成請求
type GenerateInput struct {
	Ingredients          []common.IngredientInput `json:"ingredients" binding:"dive"`
	CalorieTarget        float64                  `json:"calorie_target" binding:"min=0,max=20000"`
	UseUserCalorieTarget bool                     `json:"use_user_calorie_target"`
	UserID               string                   `json:"-"`
}

// ModeInfo 模式說明與設定警告
type ModeInfo struct {
	Mode     Mode     `json:"mode"`
	Title    string   `json:"title"`
	Subtitle string   `json:"subtitle"`
	Warnings []string `json:"warnings,omitempty"`
}

// Service 生成入口：解析一次模式後交給對應策略
type Service struct {
	generators map[Mode]Generator
	users      user.Directory
	sink       applog.Sink
	warnings   map[Mode][]string
}

// NewService 創建服務
func NewService(users user.Directory, sink applog.Sink, generators ...Generator) *Service {
	s := &Service{
		generators: make(map[Mode]Generator, len(generators)),
		users:      users,
		sink:       sink,
		warnings:   make(map[Mode][]string),
	}
	for _, g := range generators {
		s.generators[g.Mode()] = g
	}
	return s
}

// AddWarning 登記某模式的設定警告，供介面顯示
func (s *Service) AddWarning(mode Mode, warning string) {
	s.warnings[mode] = append(s.warnings[mode], warning)
}

// ModeInfo 取得模式說明
func (s *Service) ModeInfo(mode Mode) ModeInfo {
	info := ModeInfo{
		Mode:     mode,
		Title:    "Quick Meal",
		Subtitle: "Fast, deterministic meals built from your ingredients and nutrition data.",
	}
	if mode == ModeChef {
		info.Title = "ChefAI"
		info.Subtitle = "Chef-style meals enhanced with AI creativity when available."
	}
	info.Warnings = append([]string(nil), s.warnings[mode]...)
	return info
}

// Generate 驗證輸入、補上使用者目標熱量後依模式生成
func (s *Service) Generate(ctx context.Context, mode Mode, in GenerateInput) (*common.GeneratedMeal, error) {
	start := time.Now()

	gen, ok := s.generators[mode]
	if !ok {
		return nil, common.ErrUnsupportedMealMode.Wrap(fmt.Errorf("mode %q is not registered", mode))
	}

	list, err := ingredient.Validate(in.Ingredients)
	if err != nil {
		metrics.RecordMeal(string(mode), "invalid", time.Since(start))
		return nil, err
	}
	if in.CalorieTarget < 0 || in.CalorieTarget > MaxCalorieTarget {
		metrics.RecordMeal(string(mode), "invalid", time.Since(start))
		return nil, common.NewValidationError(fmt.Sprintf("Calorie target must be between 0 and %d.", MaxCalorieTarget))
	}

	target := s.calorieTarget(ctx, in)

	meal, err := gen.Generate(ctx, Request{Ingredients: list, CalorieTarget: target})
	if err != nil {
		metrics.RecordMeal(string(mode), "error", time.Since(start))
		if common.IsCancellation(err) {
			common.LogWarn("Meal generation cancelled", zap.String("mode", string(mode)), zap.Error(err))
		} else {
			applog.SafeLog(ctx, s.sink, applog.Error, fmt.Sprintf("Meal generation in %s mode failed: %v", mode, err))
		}
		return nil, err
	}

	metrics.RecordMeal(string(mode), "ok", time.Since(start))
	applog.SafeLog(ctx, s.sink, applog.Information,
		fmt.Sprintf("Generated %s meal %q with %d ingredients and %s calories.",
			mode, meal.Title, len(meal.Ingredients), common.FormatAmount(meal.Nutrition.TotalCalories)))
	common.LogInfo("Meal generated",
		zap.String("mode", string(mode)),
		zap.String("meal_id", meal.ID),
		zap.Bool("ai_enhanced", meal.AIEnhanced),
		zap.Duration("elapsed", time.Since(start)),
	)
	return meal, nil
}

// calorieTarget 使用者選擇沿用個人目標且目標為正時取代請求中的值
func (s *Service) calorieTarget(ctx context.Context, in GenerateInput) float64 {
	if !in.UseUserCalorieTarget || in.UserID == "" || s.users == nil {
		return in.CalorieTarget
	}

	target, err := s.users.CalorieTarget(ctx, in.UserID)
	if err != nil {
		applog.SafeLog(ctx, s.sink, applog.Warning,
			fmt.Sprintf("Could not read calorie target for user %s: %v", in.UserID, err))
		return in.CalorieTarget
	}
	if target > 0 {
		return float64(target)
	}
	return in.CalorieTarget
}
