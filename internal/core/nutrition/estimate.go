package nutrition

import (
	"unicode/utf16"

	"smartchef/internal/infrastructure/config"
	"smartchef/internal/pkg/common"
)

// 預設的備援估算基準
var (
	DemoProfile = config.FallbackProfile{Base: 120, Span: 150}
	LiveProfile = config.FallbackProfile{Base: 90, Span: 120}
)

// 目標熱量無法由食材推得時使用的佔位食材
const PlaceholderName = "Balanced macros (auto)"

// StableHash 32 位元多項式雜湊（種子 23、乘數 31），以 UTF-16 code unit 計算後取絕對值。
// 結果與執行環境無關，同一名稱永遠得到相同估算。
func StableHash(name string) int64 {
	var h int32 = 23
	for _, unit := range utf16.Encode([]rune(name)) {
		h = h*31 + int32(unit)
	}
	abs := int64(h)
	if abs < 0 {
		abs = -abs
	}
	return abs
}

// Estimate 依名稱產生可重現的合成營養資料。
// 熱量 30/40/30 分配到蛋白質、碳水、脂肪，分別以 4/4/9 kcal/g 換算。
func Estimate(in common.IngredientInput, profile config.FallbackProfile) common.IngredientNutrition {
	base := float64(int64(profile.Base) + StableHash(in.Name)%int64(profile.Span))
	calories := common.Round2(base * QuantityScale(in.Quantity))

	return common.IngredientNutrition{
		Name:              in.Name,
		Calories:          calories,
		ProteinGrams:      common.Round2(calories * 0.3 / 4),
		CarbohydrateGrams: common.Round2(calories * 0.4 / 4),
		FatGrams:          common.Round2(calories * 0.3 / 9),
	}
}

// TargetSummary 以目標熱量合成營養摘要，35/40/25 分配
func TargetSummary(target float64) common.NutritionSummary {
	return common.NutritionSummary{
		TotalCalories:          common.Round2(target),
		TotalProteinGrams:      common.Round2(target * 0.35 / 4),
		TotalCarbohydrateGrams: common.Round2(target * 0.4 / 4),
		TotalFatGrams:          common.Round2(target * 0.25 / 9),
	}
}
