package meal

import (
	"context"
	"errors"
	"strings"
	"testing"

	"smartchef/internal/core/nutrition"
	"smartchef/internal/infrastructure/config"
	"smartchef/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	simpleBounds = config.Bounds{Low: 0.5, High: 1.5}
	chefBounds   = config.Bounds{Low: 0.6, High: 1.4}
)

// fixedRand 永遠回傳同一個索引
type fixedRand struct{ n int }

func (f fixedRand) Intn(n int) int { return f.n % n }

// fakeResolver 每個食材固定回傳相同熱量
type fakeResolver struct {
	perItem float64
	err     error
}

func (f fakeResolver) Resolve(_ context.Context, list []common.IngredientInput, _ float64) (nutrition.Result, error) {
	if f.err != nil {
		return nutrition.Result{}, f.err
	}
	items := make([]common.IngredientNutrition, 0, len(list))
	for _, in := range list {
		items = append(items, common.IngredientNutrition{
			Name:              in.Name,
			Calories:          f.perItem,
			ProteinGrams:      f.perItem * 0.1,
			CarbohydrateGrams: f.perItem * 0.1,
			FatGrams:          f.perItem * 0.05,
		})
	}
	return nutrition.Result{Summary: nutrition.Aggregate(items), Ingredients: items}, nil
}

// fakeIdeas 回傳固定構想，可在回傳前執行 hook
type fakeIdeas struct {
	idea  *common.AIMealIdea
	hook  func()
	calls int
}

func (f *fakeIdeas) Generate(context.Context, []common.IngredientInput, common.NutritionSummary, float64) *common.AIMealIdea {
	f.calls++
	if f.hook != nil {
		f.hook()
	}
	return f.idea
}

func names(list ...string) []common.IngredientInput {
	out := make([]common.IngredientInput, 0, len(list))
	for _, n := range list {
		out = append(out, common.IngredientInput{Name: n})
	}
	return out
}

func TestParseMode(t *testing.T) {
	assert.Equal(t, ModeChef, ParseMode("chef"))
	assert.Equal(t, ModeChef, ParseMode(" CHEF "))
	assert.Equal(t, ModeSimple, ParseMode("simple"))
	assert.Equal(t, ModeSimple, ParseMode(""))
	assert.Equal(t, ModeSimple, ParseMode("gourmet"))
}

func TestSimpleGenerator(t *testing.T) {
	ctx := context.Background()

	t.Run("title steps and scaling", func(t *testing.T) {
		g := NewSimpleGenerator(fakeResolver{perItem: 500}, simpleBounds, fixedComposer(), fixedRand{1}, false)

		meal, err := g.Generate(ctx, Request{Ingredients: names("Chicken breast", "Rice"), CalorieTarget: 600})
		require.NoError(t, err)

		assert.Equal(t, "simple", meal.Mode)
		assert.Equal(t, "Chicken breast Balanced Plate", meal.Title)
		assert.Equal(t, 600.0, meal.Nutrition.TotalCalories)
		assert.Equal(t, 300.0, *meal.Ingredients[0].Calories)
		assert.Equal(t, "A wholesome meal tailored to your inputs and aligned with your calorie target.", meal.Description)
		require.Len(t, meal.Instructions, 5)
		assert.Contains(t, meal.Instructions[1].Text, "Chicken breast")
		assert.False(t, meal.AIEnhanced)
	})

	t.Run("clamped factor leaves the meal above target", func(t *testing.T) {
		g := NewSimpleGenerator(fakeResolver{perItem: 1000}, simpleBounds, fixedComposer(), fixedRand{0}, false)

		meal, err := g.Generate(ctx, Request{Ingredients: names("Steak"), CalorieTarget: 300})
		require.NoError(t, err)

		assert.Equal(t, "Steak Power Bowl", meal.Title)
		assert.Equal(t, 500.0, meal.Nutrition.TotalCalories)
		assert.Contains(t, meal.Description, "slightly above")
	})

	t.Run("no target keeps base description", func(t *testing.T) {
		g := NewSimpleGenerator(fakeResolver{perItem: 100}, simpleBounds, fixedComposer(), fixedRand{2}, false)

		meal, err := g.Generate(ctx, Request{Ingredients: names("Tofu"), CalorieTarget: 0})
		require.NoError(t, err)

		assert.Equal(t, "Tofu Chef's Special", meal.Title)
		assert.Equal(t, "A wholesome meal tailored to your inputs.", meal.Description)
		assert.Equal(t, 100.0, meal.Nutrition.TotalCalories)
		assert.Len(t, meal.Ingredients, 1)
	})

	t.Run("more than three ingredients adds a layering step", func(t *testing.T) {
		g := NewSimpleGenerator(fakeResolver{perItem: 100}, simpleBounds, fixedComposer(), fixedRand{0}, false)

		meal, err := g.Generate(ctx, Request{Ingredients: names("a", "b", "c", "d")})
		require.NoError(t, err)

		require.Len(t, meal.Instructions, 6)
		assert.Equal(t, "Layer in supporting ingredients to build complexity.", meal.Instructions[2].Text)
		assert.Equal(t, 3, meal.Instructions[2].StepNumber)
		assert.Equal(t, 6, meal.Instructions[5].StepNumber)
	})

	t.Run("complements extend a single ingredient", func(t *testing.T) {
		g := NewSimpleGenerator(fakeResolver{perItem: 100}, simpleBounds, fixedComposer(), fixedRand{0}, true)

		meal, err := g.Generate(ctx, Request{Ingredients: names("Salmon")})
		require.NoError(t, err)

		require.Len(t, meal.Ingredients, 3)
		assert.Equal(t, "Herbed Quinoa (AI addition)", meal.Ingredients[1].Name)
		assert.Equal(t, 400.0, meal.Nutrition.TotalCalories)
		assert.Equal(t, 215.0, *meal.Ingredients[1].Calories)
		assert.True(t, strings.HasPrefix(meal.Title, "Salmon "))
	})

	t.Run("resolver errors propagate", func(t *testing.T) {
		g := NewSimpleGenerator(fakeResolver{err: context.Canceled}, simpleBounds, fixedComposer(), fixedRand{0}, false)

		_, err := g.Generate(ctx, Request{Ingredients: names("a")})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestChefSuffix(t *testing.T) {
	assert.Equal(t, "Gourmet Plate", chefSuffix(1))
	assert.Equal(t, "Gourmet Plate", chefSuffix(2))
	assert.Equal(t, "Chef Crafted Bowl", chefSuffix(3))
	assert.Equal(t, "Chef Crafted Bowl", chefSuffix(4))
	assert.Equal(t, "Signature Tasting", chefSuffix(5))
}

func TestChefGenerator(t *testing.T) {
	ctx := context.Background()

	t.Run("base meal without ideas", func(t *testing.T) {
		g := NewChefGenerator(fakeResolver{perItem: 500}, nil, chefBounds, fixedComposer())

		meal, err := g.Generate(ctx, Request{Ingredients: names("Duck", "Figs", "Kale"), CalorieTarget: 1000})
		require.NoError(t, err)

		assert.Equal(t, "chef", meal.Mode)
		assert.Equal(t, "Duck Chef Crafted Bowl", meal.Title)
		assert.Equal(t, 1000.0, meal.Nutrition.TotalCalories)
		assert.Equal(t, "ChefAI curated meal balancing your inputs with smart nutrition insights, aligned closely with your calorie target.", meal.Description)
		require.Len(t, meal.Instructions, 5)
		assert.Contains(t, meal.Instructions[1].Text, "(Duck)")
		assert.False(t, meal.AIEnhanced)
	})

	t.Run("factor 0.6 for 1000 kcal against 600", func(t *testing.T) {
		g := NewChefGenerator(fakeResolver{perItem: 1000}, nil, chefBounds, fixedComposer())

		meal, err := g.Generate(ctx, Request{Ingredients: names("Lasagna"), CalorieTarget: 600})
		require.NoError(t, err)
		assert.Equal(t, 600.0, meal.Nutrition.TotalCalories)
		assert.Equal(t, 600.0, *meal.Ingredients[0].Calories)
	})

	t.Run("idea overlays the base meal", func(t *testing.T) {
		ideas := &fakeIdeas{idea: &common.AIMealIdea{
			Title:        "Miso Glazed Salmon",
			Instructions: []string{"Glaze.", "Roast."},
			Ingredients:  []common.AIMealIngredient{{Name: "Salmon", Amount: common.Float64Ptr(200), Unit: "g"}, {Name: "Miso"}},
		}}
		g := NewChefGenerator(fakeResolver{perItem: 400}, ideas, chefBounds, fixedComposer())

		meal, err := g.Generate(ctx, Request{Ingredients: names("Salmon")})
		require.NoError(t, err)

		assert.Equal(t, 1, ideas.calls)
		assert.Equal(t, "Miso Glazed Salmon", meal.Title)
		assert.True(t, strings.HasPrefix(meal.Description, "ChefAI curated meal"))
		assert.Len(t, meal.Instructions, 2)
		require.Len(t, meal.Ingredients, 2)
		assert.Nil(t, meal.Ingredients[1].Calories)
		assert.Equal(t, 400.0, meal.Nutrition.TotalCalories)
		assert.True(t, meal.AIEnhanced)
	})

	t.Run("absent idea keeps the base meal", func(t *testing.T) {
		ideas := &fakeIdeas{}
		g := NewChefGenerator(fakeResolver{perItem: 400}, ideas, chefBounds, fixedComposer())

		meal, err := g.Generate(ctx, Request{Ingredients: names("Salmon", "Rice")})
		require.NoError(t, err)
		assert.Equal(t, "Salmon Gourmet Plate", meal.Title)
		assert.False(t, meal.AIEnhanced)
	})

	t.Run("cancellation during idea generation", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		ideas := &fakeIdeas{hook: cancel}
		g := NewChefGenerator(fakeResolver{perItem: 400}, ideas, chefBounds, fixedComposer())

		meal, err := g.Generate(cctx, Request{Ingredients: names("Salmon")})
		assert.Nil(t, meal)
		assert.True(t, errors.Is(err, context.Canceled))
	})
}
