package meal

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"smartchef/internal/core/nutrition"
	"smartchef/internal/core/scaling"
	"smartchef/internal/infrastructure/config"
	"smartchef/internal/pkg/common"
)

// Mode 生成模式
type Mode string

const (
	ModeSimple Mode = "simple"
	ModeChef   Mode = "chef"
)

// ParseMode 解析模式字串，只有 chef 會選到主廚模式，其餘一律為 simple
func ParseMode(s string) Mode {
	if strings.EqualFold(strings.TrimSpace(s), string(ModeChef)) {
		return ModeChef
	}
	return ModeSimple
}

// Request 已清理的生成請求
type Request struct {
	Ingredients   []common.IngredientInput
	CalorieTarget float64
}

// Generator 生成策略
type Generator interface {
	Mode() Mode
	Generate(ctx context.Context, req Request) (*common.GeneratedMeal, error)
}

// NutritionResolver 營養解析
type NutritionResolver interface {
	Resolve(ctx context.Context, ingredients []common.IngredientInput, calorieTarget float64) (nutrition.Result, error)
}

// IdeaSource AI 構想來源，失敗時回傳 nil
type IdeaSource interface {
	Generate(ctx context.Context, ingredients []common.IngredientInput, nutrition common.NutritionSummary, calorieTarget float64) *common.AIMealIdea
}

// complement 單一食材時補上的配菜
type complement struct {
	name     string
	quantity float64
	unit     string
	calories float64
	protein  float64
	carbs    float64
	fat      float64
}

var complementSets = [][]complement{
	{
		{"Herbed Quinoa (AI addition)", 1, "cup cooked", 215, 8, 39, 3},
		{"Roasted Seasonal Vegetables (AI addition)", 1, "cup", 85, 3, 14, 3},
	},
	{
		{"Garlic Brown Rice (AI addition)", 0.75, "cup cooked", 170, 4, 35, 2},
		{"Steamed Broccoli & Carrots (AI addition)", 1, "cup", 55, 3, 11, 1},
	},
	{
		{"Wholegrain Pasta (AI addition)", 1, "cup cooked", 210, 7, 40, 3},
		{"Mixed Leaf Salad with Olive Oil (AI addition)", 1, "cup", 95, 2, 7, 6},
	},
}

var simpleStyles = []string{"Power Bowl", "Balanced Plate", "Chef's Special"}

var simpleAlignment = alignment{
	tolerance: 50,
	above:     "slightly above",
	below:     "slightly below",
	aligned:   "aligned with",
}

// SimpleGenerator 確定性的簡易模式，不呼叫 AI
type SimpleGenerator struct {
	resolver    NutritionResolver
	bounds      config.Bounds
	composer    *Composer
	rng         RandomSource
	complements bool
}

// NewSimpleGenerator 創建簡易模式
func NewSimpleGenerator(resolver NutritionResolver, bounds config.Bounds, composer *Composer, rng RandomSource, complements bool) *SimpleGenerator {
	return &SimpleGenerator{
		resolver:    resolver,
		bounds:      bounds,
		composer:    composer,
		rng:         rng,
		complements: complements,
	}
}

// Mode 模式
func (g *SimpleGenerator) Mode() Mode { return ModeSimple }

// Generate 生成餐點
func (g *SimpleGenerator) Generate(ctx context.Context, req Request) (*common.GeneratedMeal, error) {
	res, err := g.resolver.Resolve(ctx, req.Ingredients, req.CalorieTarget)
	if err != nil {
		return nil, err
	}

	ingredients := append([]common.IngredientInput(nil), req.Ingredients...)
	if g.complements && len(ingredients) == 1 {
		ingredients = g.addComplements(ingredients, &res)
	}

	scaling.Scale(&res.Summary, res.Ingredients, req.CalorieTarget, g.bounds)

	primary := ingredients[0].Name
	steps := []string{
		"Prep all ingredients by washing, chopping, or measuring as needed.",
		fmt.Sprintf("Heat a pan over medium heat and start with the base ingredient: %s.", primary),
		"Combine remaining ingredients gradually, adjusting seasoning to taste.",
		"Simmer until flavors meld and textures reach your preference.",
		"Serve warm and garnish with fresh herbs or a squeeze of citrus.",
	}
	if len(ingredients) > 3 {
		steps = slices.Insert(steps, 2, "Layer in supporting ingredients to build complexity.")
	}

	description := "A wholesome meal tailored to your inputs."
	if req.CalorieTarget > 0 {
		description = fmt.Sprintf("A wholesome meal tailored to your inputs and %s your calorie target.",
			simpleAlignment.phrase(res.Summary.TotalCalories, req.CalorieTarget))
	}

	return g.composer.Compose(draft{
		mode:        ModeSimple,
		title:       primary + " " + simpleStyles[g.rng.Intn(len(simpleStyles))],
		description: description,
		steps:       steps,
		ingredients: ingredients,
		nutrition:   res.Ingredients,
		summary:     res.Summary,
	}), nil
}

// addComplements 隨機挑一組配菜加入食材與營養
func (g *SimpleGenerator) addComplements(ingredients []common.IngredientInput, res *nutrition.Result) []common.IngredientInput {
	set := complementSets[g.rng.Intn(len(complementSets))]
	for _, c := range set {
		ingredients = append(ingredients, common.IngredientInput{
			Name:     c.name,
			Quantity: common.Float64Ptr(c.quantity),
			Unit:     c.unit,
		})
		item := common.IngredientNutrition{
			Name:              c.name,
			Calories:          c.calories,
			ProteinGrams:      c.protein,
			CarbohydrateGrams: c.carbs,
			FatGrams:          c.fat,
		}
		res.Ingredients = append(res.Ingredients, item)
	}
	res.Summary = nutrition.Aggregate(res.Ingredients)
	return ingredients
}

var chefAlignment = alignment{
	tolerance: 75,
	above:     "with extra energy for your goal",
	below:     "with a lighter finish than requested",
	aligned:   "aligned closely with your calorie target",
}

// ChefGenerator 主廚模式，基礎餐點可被 AI 構想覆蓋
type ChefGenerator struct {
	resolver NutritionResolver
	ideas    IdeaSource
	bounds   config.Bounds
	composer *Composer
}

// NewChefGenerator 創建主廚模式
func NewChefGenerator(resolver NutritionResolver, ideas IdeaSource, bounds config.Bounds, composer *Composer) *ChefGenerator {
	return &ChefGenerator{
		resolver: resolver,
		ideas:    ideas,
		bounds:   bounds,
		composer: composer,
	}
}

// Mode 模式
func (g *ChefGenerator) Mode() Mode { return ModeChef }

// chefSuffix 依食材數量決定標題後綴
func chefSuffix(count int) string {
	switch {
	case count <= 2:
		return "Gourmet Plate"
	case count <= 4:
		return "Chef Crafted Bowl"
	default:
		return "Signature Tasting"
	}
}

// Generate 生成餐點
func (g *ChefGenerator) Generate(ctx context.Context, req Request) (*common.GeneratedMeal, error) {
	res, err := g.resolver.Resolve(ctx, req.Ingredients, req.CalorieTarget)
	if err != nil {
		return nil, err
	}

	scaling.Scale(&res.Summary, res.Ingredients, req.CalorieTarget, g.bounds)

	primary := req.Ingredients[0].Name
	description := "ChefAI curated meal balancing your inputs with smart nutrition insights."
	if req.CalorieTarget > 0 {
		description = fmt.Sprintf("ChefAI curated meal balancing your inputs with smart nutrition insights, %s.",
			chefAlignment.phrase(res.Summary.TotalCalories, req.CalorieTarget))
	}

	meal := g.composer.Compose(draft{
		mode:        ModeChef,
		title:       primary + " " + chefSuffix(len(req.Ingredients)),
		description: description,
		steps: []string{
			"Prep all fresh ingredients carefully, focusing on even cuts for consistent cooking.",
			fmt.Sprintf("Sear or cook the hero ingredient (%s) to capture flavor.", primary),
			"Layer supporting ingredients, starting with aromatics and finishing with delicate items.",
			"Deglaze or moisten the pan as needed, tasting and adjusting seasoning thoughtfully.",
			"Plate with intention: balance textures, add a finishing drizzle, and garnish for color.",
		},
		ingredients: req.Ingredients,
		nutrition:   res.Ingredients,
		summary:     res.Summary,
	})

	if g.ideas != nil {
		idea := g.ideas.Generate(ctx, req.Ingredients, res.Summary, req.CalorieTarget)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		Overlay(meal, idea)
	}

	return meal, nil
}
