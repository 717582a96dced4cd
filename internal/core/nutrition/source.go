package nutrition

import (
	"context"
	"errors"
	"math"
	"strings"

	"smartchef/internal/pkg/common"
)

// 查詢失敗的分類
var (
	ErrNoCandidates     = errors.New("nutrition source returned no candidates")
	ErrZeroMacros       = errors.New("nutrition source returned empty or zeroed data")
	ErrUnexpectedStatus = errors.New("nutrition source returned unexpected status")
	ErrSourceDisabled   = errors.New("nutrition source is not configured")
)

// Facts 外部來源回傳的營養數值
type Facts struct {
	Calories          float64 `json:"calories"`
	ProteinGrams      float64 `json:"protein_grams"`
	CarbohydrateGrams float64 `json:"carbohydrate_grams"`
	FatGrams          float64 `json:"fat_grams"`
	// QuantityApplied 表示來源查詢已包含數量，不需再依數量縮放
	QuantityApplied bool `json:"quantity_applied"`
	// Cached 表示結果取自快取
	Cached bool `json:"-"`
}

// usable 至少一項巨量營養素大於 0 才可使用
func (f Facts) usable() error {
	if f.Calories > 0 || f.ProteinGrams > 0 || f.CarbohydrateGrams > 0 || f.FatGrams > 0 {
		return nil
	}
	return ErrZeroMacros
}

// Source 營養資料來源
type Source interface {
	// Name 用於日誌與指標的來源名稱
	Name() string
	// Lookup 查詢單一食材
	Lookup(ctx context.Context, in common.IngredientInput) (Facts, error)
}

// QuantityScale 數量為正時回傳 max(quantity/100, 0.1)，否則為 1
func QuantityScale(quantity *float64) float64 {
	if quantity == nil || *quantity <= 0 {
		return 1
	}
	return math.Max(*quantity/100, 0.1)
}

// lookupKey 用於快取的查詢鍵
func lookupKey(in common.IngredientInput) string {
	qty := ""
	if in.Quantity != nil {
		qty = common.FormatAmount(*in.Quantity)
	}
	return strings.ToLower(in.Name) + "|" + qty + "|" + strings.ToLower(in.Unit)
}

// OfflineSource 未設定來源時使用，所有查詢都走備援估算
type OfflineSource struct{}

// Name 來源名稱
func (OfflineSource) Name() string { return "offline" }

// Lookup 永遠回傳 ErrSourceDisabled
func (OfflineSource) Lookup(context.Context, common.IngredientInput) (Facts, error) {
	return Facts{}, ErrSourceDisabled
}
