package nutrition

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"smartchef/internal/pkg/common"

	"github.com/go-resty/resty/v2"
)

// DemoSource 使用 DummyJSON 食譜搜尋作為免金鑰的營養資料來源
type DemoSource struct {
	client *resty.Client
}

// demoResponse DummyJSON recipes/search 回應
type demoResponse struct {
	Recipes []struct {
		Name               string  `json:"name"`
		Calories           float64 `json:"calories"`
		CaloriesPerServing float64 `json:"caloriesPerServing"`
		Protein            float64 `json:"protein"`
		Carbohydrates      float64 `json:"carbohydrates"`
		Fat                float64 `json:"fat"`
	} `json:"recipes"`
}

// NewDemoSource 創建 DummyJSON 來源
func NewDemoSource(baseURL string) *DemoSource {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Accept", "application/json")

	return &DemoSource{client: client}
}

// Name 來源名稱
func (s *DemoSource) Name() string { return "dummyjson" }

// Lookup 以食材名稱搜尋第一筆資料，數值視為每 100 克
func (s *DemoSource) Lookup(ctx context.Context, in common.IngredientInput) (Facts, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":     in.Name,
			"limit": "1",
		}).
		Get("/recipes/search")
	if err != nil {
		return Facts{}, fmt.Errorf("failed to query dummyjson: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return Facts{}, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode())
	}

	var result demoResponse
	if err := common.ParseJSONBytes(resp.Body(), &result); err != nil {
		return Facts{}, fmt.Errorf("failed to parse dummyjson response: %w", err)
	}

	if len(result.Recipes) == 0 {
		return Facts{}, ErrNoCandidates
	}

	first := result.Recipes[0]
	calories := first.Calories
	if calories <= 0 {
		calories = first.CaloriesPerServing
	}

	return Facts{
		Calories:          calories,
		ProteinGrams:      first.Protein,
		CarbohydrateGrams: first.Carbohydrates,
		FatGrams:          first.Fat,
	}, nil
}
