package common

import (
	"math"
	"strconv"

	"github.com/google/uuid"
)

// GenerateUUID 生成 UUID
func GenerateUUID() string {
	return uuid.New().String()
}

// Round2 四捨五入到小數點後兩位（遠離零）
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// FormatAmount 以最多兩位小數輸出數量，去除尾端的 0
func FormatAmount(v float64) string {
	return strconv.FormatFloat(Round2(v), 'f', -1, 64)
}

// Float64Ptr 回傳數值指標
func Float64Ptr(v float64) *float64 {
	return &v
}
