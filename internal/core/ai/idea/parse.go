package idea

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"smartchef/internal/pkg/common"
)

// ErrEmptyIdea 回覆可解析但沒有任何可用欄位
var ErrEmptyIdea = errors.New("model reply contains no usable fields")

// amountExtractor 從食材物件取出數量
type amountExtractor func(map[string]any) (float64, bool)

// unitExtractor 從食材物件取出單位
type unitExtractor func(map[string]any) (string, bool)

// 依序嘗試，第一個成功者為準
var (
	amountExtractors = []amountExtractor{numberField("amount"), numberField("quantity")}
	unitExtractors   = []unitExtractor{textField("unit"), textField("measure"), textField("amountText")}
)

// Parse 解析模型回覆，容忍欄位別名與字串型數字。
// 單一食材缺少名稱時只捨棄該項。
func Parse(payload string) (*common.AIMealIdea, error) {
	root, err := decodeObject(payload)
	if err != nil {
		return nil, err
	}

	idea := &common.AIMealIdea{
		Instructions: parseInstructions(root["instructions"]),
		Ingredients:  parseIngredients(root["ingredients"]),
	}
	if s, ok := root["title"].(string); ok {
		idea.Title = strings.TrimSpace(s)
	}
	if s, ok := root["description"].(string); ok {
		idea.Description = strings.TrimSpace(s)
	}

	if idea.Title == "" && idea.Description == "" && len(idea.Instructions) == 0 && len(idea.Ingredients) == 0 {
		return nil, ErrEmptyIdea
	}
	return idea, nil
}

// decodeObject 解析 JSON 物件；整段失敗時退而擷取第一個 { 到最後一個 } 之間的內容
func decodeObject(payload string) (map[string]any, error) {
	var root map[string]any
	err := common.ParseJSON(payload, &root)
	if err == nil && root != nil {
		return root, nil
	}

	start := strings.IndexByte(payload, '{')
	end := strings.LastIndexByte(payload, '}')
	if start >= 0 && end > start {
		var inner map[string]any
		if innerErr := common.ParseJSON(payload[start:end+1], &inner); innerErr == nil && inner != nil {
			return inner, nil
		}
	}
	if err == nil {
		err = errors.New("reply is not a JSON object")
	}
	return nil, fmt.Errorf("invalid idea payload: %w", err)
}

func parseInstructions(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func parseIngredients(v any) []common.AIMealIngredient {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]common.AIMealIngredient, 0, len(list))
	for _, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		ing, ok := parseIngredient(obj)
		if !ok {
			continue
		}
		out = append(out, ing)
	}
	return out
}

func parseIngredient(obj map[string]any) (common.AIMealIngredient, bool) {
	name, _ := obj["name"].(string)
	name = strings.TrimSpace(name)
	if name == "" {
		return common.AIMealIngredient{}, false
	}

	ing := common.AIMealIngredient{Name: name}
	for _, extract := range amountExtractors {
		if amount, ok := extract(obj); ok {
			ing.Amount = common.Float64Ptr(amount)
			break
		}
	}
	for _, extract := range unitExtractors {
		if unit, ok := extract(obj); ok {
			ing.Unit = unit
			break
		}
	}

	if ing.Amount == nil && ing.Unit != "" {
		if amount, rest, ok := SplitQuantity(ing.Unit); ok {
			ing.Amount = common.Float64Ptr(amount)
			ing.Unit = rest
		}
	}
	return ing, true
}

// SplitQuantity 拆開 "150g"、"1,5 cups" 這類數量與單位合併的文字
func SplitQuantity(text string) (float64, string, bool) {
	text = strings.TrimSpace(text)
	i := 0
	for i < len(text) {
		c := text[i]
		if (c >= '0' && c <= '9') || c == '.' || c == ',' {
			i++
			continue
		}
		break
	}
	if i == 0 {
		return 0, text, false
	}

	amount, err := strconv.ParseFloat(strings.ReplaceAll(text[:i], ",", "."), 64)
	if err != nil {
		return 0, text, false
	}
	return amount, strings.TrimSpace(text[i:]), true
}

func numberField(key string) amountExtractor {
	return func(obj map[string]any) (float64, bool) {
		switch v := obj[key].(type) {
		case json.Number:
			f, err := v.Float64()
			return f, err == nil && validAmount(f)
		case float64:
			return v, validAmount(v)
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			return f, err == nil && validAmount(f)
		default:
			return 0, false
		}
	}
}

func validAmount(f float64) bool {
	return f >= 0 && !math.IsInf(f, 0)
}

func textField(key string) unitExtractor {
	return func(obj map[string]any) (string, bool) {
		s, ok := obj[key].(string)
		if !ok {
			return "", false
		}
		s = strings.TrimSpace(s)
		return s, s != ""
	}
}
