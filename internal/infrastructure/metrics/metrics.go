// Package metrics 定義 Prometheus 指標
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 營養查詢結果
const (
	LookupSuccess  = "success"
	LookupFallback = "fallback"
	LookupCached   = "cached"
	LookupFailed   = "failed"
)

// AI 構想結果
const (
	IdeaSuccess  = "success"
	IdeaDisabled = "disabled"
	IdeaAbsent   = "absent"
)

var (
	nutritionLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartchef_nutrition_lookups_total",
			Help: "Total number of per-ingredient nutrition lookups by source and outcome",
		},
		[]string{"source", "outcome"},
	)

	aiIdeas = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartchef_ai_ideas_total",
			Help: "Total number of AI meal idea requests by outcome",
		},
		[]string{"model", "outcome"},
	)

	mealsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartchef_meals_generated_total",
			Help: "Total number of generated meals by mode and result",
		},
		[]string{"mode", "result"},
	)

	generationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "smartchef_meal_generation_duration_seconds",
			Help:    "Meal generation duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
		},
		[]string{"mode"},
	)
)

// RecordLookup 記錄單次營養查詢
func RecordLookup(source, outcome string) {
	nutritionLookups.WithLabelValues(source, outcome).Inc()
}

// RecordIdea 記錄 AI 構想結果
func RecordIdea(model, outcome string) {
	aiIdeas.WithLabelValues(model, outcome).Inc()
}

// RecordMeal 記錄餐點生成結果與耗時
func RecordMeal(mode, result string, elapsed time.Duration) {
	mealsGenerated.WithLabelValues(mode, result).Inc()
	generationDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
}

// Handler 回傳 /metrics 處理器
func Handler() http.Handler {
	return promhttp.Handler()
}
