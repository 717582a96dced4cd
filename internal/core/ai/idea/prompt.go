package idea

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"smartchef/internal/pkg/common"
)

const promptTemplate = `Respond with only a valid JSON object. Do not wrap it in markdown and do not add commentary.
The JSON object must have exactly this shape:
{"title": string, "description": string, "ingredients": [{"name": string, "amount": number, "unit": string}], "instructions": [string]}

Design one creative, cookable meal that uses the user's ingredients, respects the calorie target when one is given, and keeps the macros close to the approximation.

EXAMPLE INPUT:
Ingredients: Chicken breast 150 g, Quinoa 100 g, Broccoli 75 g
Target calories: 600
Approximate macros: calories=612, protein=54g, carbs=58g, fat=14g

EXAMPLE OUTPUT:
{"title": "Lemon Herb Chicken Quinoa Bowl", "description": "Seared chicken over fluffy quinoa with charred broccoli and a bright lemon dressing.", "ingredients": [{"name": "Chicken breast", "amount": 150, "unit": "g"}, {"name": "Quinoa", "amount": 100, "unit": "g"}, {"name": "Broccoli", "amount": 75, "unit": "g"}, {"name": "Lemon juice", "amount": 1, "unit": "tbsp"}], "instructions": ["Rinse and simmer the quinoa for 15 minutes.", "Season and sear the chicken until golden, then slice.", "Char the broccoli in the same pan.", "Toss everything with lemon juice and serve."]}

USER INPUT:
Ingredients: %s
Target calories: %s
Approximate macros: %s`

// BuildPrompt 組合傳給模型的提示
func BuildPrompt(ingredients []common.IngredientInput, nutrition common.NutritionSummary, calorieTarget float64) string {
	return fmt.Sprintf(promptTemplate,
		formatIngredients(ingredients),
		formatTarget(calorieTarget),
		formatMacros(nutrition),
	)
}

// formatIngredients 以 "名稱 數量 單位" 列出食材
func formatIngredients(ingredients []common.IngredientInput) string {
	items := make([]string, 0, len(ingredients))
	for _, in := range ingredients {
		parts := []string{in.Name}
		if in.Quantity != nil {
			parts = append(parts, common.FormatAmount(*in.Quantity))
		}
		if in.Unit != "" {
			parts = append(parts, in.Unit)
		}
		items = append(items, strings.TrimSpace(strings.Join(parts, " ")))
	}
	return strings.Join(items, ", ")
}

func formatTarget(target float64) string {
	if target <= 0 {
		return "auto"
	}
	return strconv.FormatFloat(math.Round(target), 'f', 0, 64)
}

func formatMacros(n common.NutritionSummary) string {
	return fmt.Sprintf("calories=%s, protein=%sg, carbs=%sg, fat=%sg",
		common.FormatAmount(n.TotalCalories),
		common.FormatAmount(n.TotalProteinGrams),
		common.FormatAmount(n.TotalCarbohydrateGrams),
		common.FormatAmount(n.TotalFatGrams),
	)
}
