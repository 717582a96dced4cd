package common

import "time"

// IngredientInput 使用者輸入的單一食材
type IngredientInput struct {
	Name     string   `json:"name"` // 長度限制以修剪後為準，由 ingredient.Validate 檢查
	Quantity *float64 `json:"quantity,omitempty" binding:"omitempty,min=0,max=100000"`
	Unit     string   `json:"unit,omitempty"`
}

// IngredientNutrition 單一食材解析後的營養資料
type IngredientNutrition struct {
	Name              string  `json:"name"`
	Calories          float64 `json:"calories"`
	ProteinGrams      float64 `json:"protein_grams"`
	CarbohydrateGrams float64 `json:"carbohydrate_grams"`
	FatGrams          float64 `json:"fat_grams"`
}

// NutritionSummary 整份餐點的營養總和
type NutritionSummary struct {
	TotalCalories          float64 `json:"total_calories"`
	TotalProteinGrams      float64 `json:"total_protein_grams"`
	TotalCarbohydrateGrams float64 `json:"total_carbohydrate_grams"`
	TotalFatGrams          float64 `json:"total_fat_grams"`
}

// Add 累加一筆食材營養
func (s *NutritionSummary) Add(item IngredientNutrition) {
	s.TotalCalories += item.Calories
	s.TotalProteinGrams += item.ProteinGrams
	s.TotalCarbohydrateGrams += item.CarbohydrateGrams
	s.TotalFatGrams += item.FatGrams
}

// AIMealIdea AI 回傳的餐點構想，所有欄位皆可能為空
type AIMealIdea struct {
	Title        string             `json:"title,omitempty"`
	Description  string             `json:"description,omitempty"`
	Instructions []string           `json:"instructions,omitempty"`
	Ingredients  []AIMealIngredient `json:"ingredients,omitempty"`
}

// AIMealIngredient AI 建議的食材
type AIMealIngredient struct {
	Name   string   `json:"name"`
	Amount *float64 `json:"amount,omitempty"`
	Unit   string   `json:"unit,omitempty"`
}

// MealIngredient 最終餐點中的食材列
type MealIngredient struct {
	Name     string   `json:"name"`
	Amount   *float64 `json:"amount,omitempty"`
	Unit     string   `json:"unit,omitempty"`
	Calories *float64 `json:"calories,omitempty"`
}

// MealInstruction 料理步驟
type MealInstruction struct {
	StepNumber int    `json:"step_number"`
	Text       string `json:"text"`
}

// GeneratedMeal 生成完成的餐點
type GeneratedMeal struct {
	ID           string            `json:"id"`
	Mode         string            `json:"mode"`
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	InputSummary string            `json:"input_summary"`
	Nutrition    NutritionSummary  `json:"nutrition"`
	Ingredients  []MealIngredient  `json:"ingredients"`
	Instructions []MealInstruction `json:"instructions"`
	AIEnhanced   bool              `json:"ai_enhanced"`
	GeneratedAt  time.Time         `json:"generated_at"`
}
