package meal

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"smartchef/internal/core/ingredient"
	"smartchef/internal/pkg/common"
)

// RandomSource 可注入的亂數來源，測試時以固定種子取得可重現的結果
type RandomSource interface {
	Intn(n int) int
}

// lockedRand 讓 *rand.Rand 可被多個請求同時使用
type lockedRand struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandomSource 以種子建立亂數來源，種子為 0 時使用目前時間
func NewRandomSource(seed int64) RandomSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &lockedRand{rnd: rand.New(rand.NewSource(seed))}
}

func (r *lockedRand) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rnd.Intn(n)
}

// alignment 描述實際熱量相對於目標的三種狀態
type alignment struct {
	tolerance float64
	above     string
	below     string
	aligned   string
}

// phrase 依差值選出描述；差值超過容許範圍才算偏高或偏低
func (a alignment) phrase(total, target float64) string {
	diff := total - target
	switch {
	case diff > a.tolerance:
		return a.above
	case diff < -a.tolerance:
		return a.below
	default:
		return a.aligned
	}
}

// Composer 組合確定性的基礎餐點
type Composer struct {
	now   func() time.Time
	newID func() string
}

// NewComposer 創建組合器
func NewComposer() *Composer {
	return &Composer{now: time.Now, newID: common.GenerateUUID}
}

// draft 組合前的基礎內容
type draft struct {
	mode        Mode
	title       string
	description string
	steps       []string
	ingredients []common.IngredientInput
	nutrition   []common.IngredientNutrition
	summary     common.NutritionSummary
}

// Compose 產生基礎餐點，食材列的熱量取自同一索引的營養資料
func (c *Composer) Compose(d draft) *common.GeneratedMeal {
	rows := make([]common.MealIngredient, 0, len(d.ingredients))
	for i, in := range d.ingredients {
		calories := 0.0
		if i < len(d.nutrition) {
			calories = common.Round2(d.nutrition[i].Calories)
		}
		rows = append(rows, common.MealIngredient{
			Name:     in.Name,
			Amount:   in.Quantity,
			Unit:     in.Unit,
			Calories: common.Float64Ptr(calories),
		})
	}

	return &common.GeneratedMeal{
		ID:           c.newID(),
		Mode:         string(d.mode),
		Title:        d.title,
		Description:  d.description,
		InputSummary: ingredient.InputSummary(d.ingredients),
		Nutrition:    d.summary,
		Ingredients:  rows,
		Instructions: numberSteps(d.steps),
		GeneratedAt:  c.now().UTC(),
	}
}

// Overlay 以 AI 構想覆蓋基礎餐點：非空標題、描述取代原值，
// 非空步驟重新編號，非空食材清單整批取代且熱量為空
func Overlay(meal *common.GeneratedMeal, idea *common.AIMealIdea) {
	if meal == nil || idea == nil {
		return
	}

	applied := false
	if title := strings.TrimSpace(idea.Title); title != "" {
		meal.Title = title
		applied = true
	}
	if desc := strings.TrimSpace(idea.Description); desc != "" {
		meal.Description = desc
		applied = true
	}

	steps := make([]string, 0, len(idea.Instructions))
	for _, s := range idea.Instructions {
		if s = strings.TrimSpace(s); s != "" {
			steps = append(steps, s)
		}
	}
	if len(steps) > 0 {
		meal.Instructions = numberSteps(steps)
		applied = true
	}

	rows := make([]common.MealIngredient, 0, len(idea.Ingredients))
	for _, ing := range idea.Ingredients {
		name := strings.TrimSpace(ing.Name)
		if name == "" {
			continue
		}
		rows = append(rows, common.MealIngredient{
			Name:   name,
			Amount: ing.Amount,
			Unit:   strings.TrimSpace(ing.Unit),
		})
	}
	if len(rows) > 0 {
		meal.Ingredients = rows
		applied = true
	}

	meal.AIEnhanced = applied
}

func numberSteps(steps []string) []common.MealInstruction {
	out := make([]common.MealInstruction, 0, len(steps))
	for i, text := range steps {
		out = append(out, common.MealInstruction{StepNumber: i + 1, Text: text})
	}
	return out
}
