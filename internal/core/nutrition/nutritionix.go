package nutrition

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"smartchef/internal/infrastructure/config"
	"smartchef/internal/pkg/common"

	"github.com/go-resty/resty/v2"
)

// NutritionixSource 使用 Nutritionix natural language API
type NutritionixSource struct {
	client   *resty.Client
	endpoint string
}

// nutritionixResponse natural/nutrients 回應
type nutritionixResponse struct {
	Foods []struct {
		FoodName          string   `json:"food_name"`
		Calories          *float64 `json:"nf_calories"`
		Protein           *float64 `json:"nf_protein"`
		TotalCarbohydrate *float64 `json:"nf_total_carbohydrate"`
		TotalFat          *float64 `json:"nf_total_fat"`
	} `json:"foods"`
}

// NewNutritionixSource 創建 Nutritionix 來源
func NewNutritionixSource(cfg config.NutritionConfig) *NutritionixSource {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	if cfg.AppID != "" {
		client.SetHeader(headerOr(cfg.AppIDHeader, "x-app-id"), cfg.AppID)
	}
	if cfg.AppKey != "" {
		client.SetHeader(headerOr(cfg.AppKeyHeader, "x-app-key"), cfg.AppKey)
	}
	if cfg.BearerToken != "" {
		client.SetAuthToken(cfg.BearerToken)
	}

	endpoint := strings.Trim(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = "natural/nutrients"
	}

	return &NutritionixSource{client: client, endpoint: "/" + endpoint}
}

func headerOr(name, fallback string) string {
	if strings.TrimSpace(name) == "" {
		return fallback
	}
	return name
}

// Name 來源名稱
func (s *NutritionixSource) Name() string { return "nutritionix" }

// Query 自然語言查詢字串，例如 "150 g chicken breast"
func Query(in common.IngredientInput) string {
	qty := "1"
	if in.Quantity != nil {
		qty = common.FormatAmount(*in.Quantity)
	}
	unit := in.Unit
	if unit == "" {
		unit = "unit"
	}
	return strings.Join([]string{qty, unit, in.Name}, " ")
}

// Lookup 查詢單一食材，回傳值已包含數量
func (s *NutritionixSource) Lookup(ctx context.Context, in common.IngredientInput) (Facts, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"query": Query(in)}).
		Post(s.endpoint)
	if err != nil {
		return Facts{}, fmt.Errorf("failed to send request to nutritionix: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return Facts{}, fmt.Errorf("%w: %d %s", ErrUnexpectedStatus, resp.StatusCode(), common.Snippet(resp.String(), 200))
	}

	var result nutritionixResponse
	if err := common.ParseJSONBytes(resp.Body(), &result); err != nil {
		return Facts{}, fmt.Errorf("failed to parse nutritionix response: %w", err)
	}

	if len(result.Foods) == 0 {
		return Facts{}, ErrNoCandidates
	}

	food := result.Foods[0]
	return Facts{
		Calories:          valueOrZero(food.Calories),
		ProteinGrams:      valueOrZero(food.Protein),
		CarbohydrateGrams: valueOrZero(food.TotalCarbohydrate),
		FatGrams:          valueOrZero(food.TotalFat),
		QuantityApplied:   true,
	}, nil
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
