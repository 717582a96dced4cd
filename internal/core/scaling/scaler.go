package scaling

import (
	"smartchef/internal/infrastructure/config"
	"smartchef/internal/pkg/common"
)

// Factor 計算縮放倍率，目標或總熱量不為正時回傳 (1, false)
func Factor(totalCalories, target float64, b config.Bounds) (float64, bool) {
	if target <= 0 || totalCalories <= 0 {
		return 1, false
	}
	factor := target / totalCalories
	if factor < b.Low {
		factor = b.Low
	}
	if factor > b.High {
		factor = b.High
	}
	return factor, true
}

// Scale 將彙總與每項食材的營養依倍率縮放，每次相乘後四捨五入到兩位小數
func Scale(summary *common.NutritionSummary, items []common.IngredientNutrition, target float64, b config.Bounds) (float64, bool) {
	factor, ok := Factor(summary.TotalCalories, target, b)
	if !ok {
		return factor, false
	}

	summary.TotalCalories = common.Round2(summary.TotalCalories * factor)
	summary.TotalProteinGrams = common.Round2(summary.TotalProteinGrams * factor)
	summary.TotalCarbohydrateGrams = common.Round2(summary.TotalCarbohydrateGrams * factor)
	summary.TotalFatGrams = common.Round2(summary.TotalFatGrams * factor)

	for i := range items {
		items[i].Calories = common.Round2(items[i].Calories * factor)
		items[i].ProteinGrams = common.Round2(items[i].ProteinGrams * factor)
		items[i].CarbohydrateGrams = common.Round2(items[i].CarbohydrateGrams * factor)
		items[i].FatGrams = common.Round2(items[i].FatGrams * factor)
	}

	return factor, true
}
