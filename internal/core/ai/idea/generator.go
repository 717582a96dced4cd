package idea

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"smartchef/internal/core/ai/gemini"
	"smartchef/internal/core/ai/provider"
	"smartchef/internal/core/applog"
	"smartchef/internal/core/cache"
	"smartchef/internal/infrastructure/config"
	"smartchef/internal/infrastructure/metrics"
	"smartchef/internal/pkg/common"

	"go.uber.org/zap"
)

const payloadSnippetLength = 500

// Options 生成參數
type Options struct {
	Temperature     float64
	MaxOutputTokens int
	SystemPrompt    string
}

// Generator 向文字模型索取餐點構想。任何失敗都回傳 nil，不向上拋出錯誤。
type Generator struct {
	model   provider.TextGenerator
	initErr error
	enabled bool
	opts    Options
	store   cache.Store
	sink    applog.Sink
}

// NewGenerator 依設定建立 Gemini 生成器；設定不完整時保留錯誤，於每次呼叫時回報
func NewGenerator(cfg config.GeminiConfig, store cache.Store, sink applog.Sink) *Generator {
	g := &Generator{
		enabled: cfg.Enabled,
		opts: Options{
			Temperature:     cfg.Temperature,
			MaxOutputTokens: cfg.MaxOutputTokens,
			SystemPrompt:    cfg.SystemPrompt,
		},
		sink: sink,
	}
	if cfg.CacheResponses {
		g.store = store
	}
	if !cfg.Enabled {
		return g
	}

	client, err := gemini.NewClient(cfg)
	if err != nil {
		g.initErr = err
		common.LogWarn("Gemini client not available", zap.Error(err))
		return g
	}
	g.model = client
	common.LogInfo("Gemini client initialized",
		zap.String("backend", cfg.Backend),
		zap.String("model", client.Model()),
	)
	return g
}

// NewGeneratorWithProvider 使用指定的模型
func NewGeneratorWithProvider(model provider.TextGenerator, opts Options, store cache.Store, sink applog.Sink) *Generator {
	return &Generator{
		model:   model,
		enabled: model != nil,
		opts:    opts,
		store:   store,
		sink:    sink,
	}
}

// Enabled 是否啟用
func (g *Generator) Enabled() bool {
	return g != nil && g.enabled
}

// Ready 是否啟用且設定完整
func (g *Generator) Ready() bool {
	return g.Enabled() && g.model != nil
}

// ConfigError 設定不完整的原因
func (g *Generator) ConfigError() error {
	if g == nil {
		return nil
	}
	return g.initErr
}

// Generate 產生構想；停用、設定不完整、呼叫失敗或回覆無法解析時回傳 nil
func (g *Generator) Generate(ctx context.Context, ingredients []common.IngredientInput, nutrition common.NutritionSummary, calorieTarget float64) *common.AIMealIdea {
	if !g.Enabled() {
		metrics.RecordIdea("none", metrics.IdeaDisabled)
		return nil
	}
	if g.model == nil {
		metrics.RecordIdea("none", metrics.IdeaAbsent)
		applog.SafeLog(ctx, g.sink, applog.Warning,
			fmt.Sprintf("Gemini configuration incomplete, skipping AI idea: %v", g.initErr))
		return nil
	}

	model := g.model.Model()
	prompt := BuildPrompt(ingredients, nutrition, calorieTarget)
	applog.SafeLog(ctx, g.sink, applog.Information,
		fmt.Sprintf("Gemini request started for %d ingredients.", len(ingredients)))

	key := cache.Key("ai", model, g.opts.SystemPrompt, prompt)
	payload, cached := g.cached(ctx, key)
	if !cached {
		var err error
		payload, err = g.request(ctx, prompt)
		if err != nil {
			metrics.RecordIdea(model, metrics.IdeaAbsent)
			applog.SafeLog(ctx, g.sink, applog.Warning, describeFailure(err))
			return nil
		}
	}

	idea, err := Parse(payload)
	if err != nil {
		metrics.RecordIdea(model, metrics.IdeaAbsent)
		applog.SafeLog(ctx, g.sink, applog.Warning,
			fmt.Sprintf("Failed to parse Gemini response: %v. Payload: %s", err, common.Snippet(payload, payloadSnippetLength)))
		return nil
	}

	if !cached && g.store != nil {
		if err := g.store.Set(ctx, key, payload); err != nil {
			common.LogDebug("AI cache write failed", zap.Error(err))
		}
	}

	metrics.RecordIdea(model, metrics.IdeaSuccess)
	applog.SafeLog(ctx, g.sink, applog.Information,
		fmt.Sprintf("Gemini idea received: %q with %d steps.", idea.Title, len(idea.Instructions)))
	return idea
}

// request 呼叫模型並清理回覆
func (g *Generator) request(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.Generate(ctx, &provider.Request{
		Prompt:           prompt,
		SystemPrompt:     g.opts.SystemPrompt,
		Temperature:      g.opts.Temperature,
		MaxOutputTokens:  g.opts.MaxOutputTokens,
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return "", err
	}

	payload := common.StripCodeFence(resp.Text)
	if strings.TrimSpace(payload) == "" {
		return "", provider.ErrEmptyText
	}
	return payload, nil
}

func (g *Generator) cached(ctx context.Context, key string) (string, bool) {
	if g.store == nil {
		return "", false
	}
	val, err := g.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, common.ErrCacheMiss) {
			common.LogDebug("AI cache read failed", zap.Error(err))
		}
		return "", false
	}
	common.LogCacheHit("ai")
	return val, true
}

func describeFailure(err error) string {
	switch {
	case errors.Is(err, provider.ErrNoCandidates):
		return "Gemini returned no candidates."
	case errors.Is(err, provider.ErrEmptyText):
		return "Gemini returned an empty payload."
	case common.IsCancellation(err):
		return fmt.Sprintf("Gemini request cancelled: %v", err)
	default:
		return fmt.Sprintf("Gemini request failed: %v", err)
	}
}
