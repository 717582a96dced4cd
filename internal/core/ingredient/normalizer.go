package ingredient

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"smartchef/internal/pkg/common"
)

// 輸入限制
const (
	MaxNameLength = 200
	MaxUnitLength = 50
	MaxQuantity   = 100000
)

// ErrNoIngredients 沒有任何有效食材時的訊息
const ErrNoIngredients = "Please provide at least one ingredient."

// Normalize 清理食材清單：去除空白名稱、修剪名稱與單位，數量保持不變。
// 沒有留下任何食材時 ok 為 false。
func Normalize(raw []common.IngredientInput) ([]common.IngredientInput, bool) {
	out := make([]common.IngredientInput, 0, len(raw))
	for _, in := range raw {
		name := strings.TrimSpace(in.Name)
		if name == "" {
			continue
		}
		out = append(out, common.IngredientInput{
			Name:     name,
			Quantity: in.Quantity,
			Unit:     strings.TrimSpace(in.Unit),
		})
	}
	return out, len(out) > 0
}

// Validate 檢查修剪後的長度與數量範圍，並回傳清理後的清單
func Validate(raw []common.IngredientInput) ([]common.IngredientInput, error) {
	for i, in := range raw {
		if utf8.RuneCountInString(strings.TrimSpace(in.Name)) > MaxNameLength {
			return nil, common.NewValidationError(fmt.Sprintf("ingredient %d: name exceeds %d characters", i+1, MaxNameLength))
		}
		if utf8.RuneCountInString(strings.TrimSpace(in.Unit)) > MaxUnitLength {
			return nil, common.NewValidationError(fmt.Sprintf("ingredient %d: unit exceeds %d characters", i+1, MaxUnitLength))
		}
		if in.Quantity != nil && (*in.Quantity < 0 || *in.Quantity > MaxQuantity) {
			return nil, common.NewValidationError(fmt.Sprintf("ingredient %d: quantity must be between 0 and %d", i+1, MaxQuantity))
		}
	}

	list, ok := Normalize(raw)
	if !ok {
		return nil, common.NewValidationError(ErrNoIngredients)
	}
	return list, nil
}

// Describe 以 "數量 單位 名稱" 描述單一食材，缺少的部分省略
func Describe(in common.IngredientInput) string {
	parts := make([]string, 0, 3)
	if in.Quantity != nil {
		parts = append(parts, common.FormatAmount(*in.Quantity))
		if in.Unit != "" {
			parts = append(parts, in.Unit)
		}
	}
	parts = append(parts, in.Name)
	return strings.Join(parts, " ")
}

// InputSummary 將整份清單組成一行摘要
func InputSummary(list []common.IngredientInput) string {
	items := make([]string, 0, len(list))
	for _, in := range list {
		items = append(items, Describe(in))
	}
	return strings.Join(items, ", ")
}
