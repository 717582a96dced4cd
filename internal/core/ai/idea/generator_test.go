package idea

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"smartchef/internal/core/ai/provider"
	"smartchef/internal/core/applog"
	"smartchef/internal/core/cache"
	"smartchef/internal/infrastructure/config"
	"smartchef/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeModel 回傳預先設定的文字或錯誤
type fakeModel struct {
	text    string
	err     error
	calls   atomic.Int32
	lastReq *provider.Request
}

func (f *fakeModel) Model() string { return "fake-model" }

func (f *fakeModel) Generate(_ context.Context, req *provider.Request) (*provider.Response, error) {
	f.calls.Add(1)
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &provider.Response{Text: f.text, FinishReason: "STOP"}, nil
}

var sampleIngredients = []common.IngredientInput{{Name: "Chicken breast", Quantity: common.Float64Ptr(150), Unit: "g"}}

func TestGenerator_Success(t *testing.T) {
	sink := &applog.MemorySink{}
	model := &fakeModel{text: "```json\n{\"title\":\"Citrus Chicken\",\"instructions\":[\"Sear.\",\"Serve.\"]}\n```"}
	g := NewGeneratorWithProvider(model, Options{Temperature: 0.2, MaxOutputTokens: 512, SystemPrompt: "You are ChefAI"}, nil, sink)

	idea := g.Generate(context.Background(), sampleIngredients, common.NutritionSummary{TotalCalories: 247.5}, 600)
	require.NotNil(t, idea)

	assert.Equal(t, "Citrus Chicken", idea.Title)
	assert.Equal(t, []string{"Sear.", "Serve."}, idea.Instructions)

	require.NotNil(t, model.lastReq)
	assert.Equal(t, "You are ChefAI", model.lastReq.SystemPrompt)
	assert.Equal(t, 0.2, model.lastReq.Temperature)
	assert.Equal(t, 512, model.lastReq.MaxOutputTokens)
	assert.Equal(t, "application/json", model.lastReq.ResponseMIMEType)
	assert.Contains(t, model.lastReq.Prompt, "Ingredients: Chicken breast 150 g")

	entries := sink.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "Gemini request started for 1 ingredients.", entries[0].Message)
	assert.Equal(t, applog.Information, entries[1].Level)
}

func TestGenerator_ReturnsNilOnFailure(t *testing.T) {
	tests := []struct {
		name    string
		model   *fakeModel
		wantLog string
	}{
		{"transport error", &fakeModel{err: errors.New("dial tcp: refused")}, "Gemini request failed"},
		{"no candidates", &fakeModel{err: provider.ErrNoCandidates}, "no candidates"},
		{"empty text", &fakeModel{text: "```json\n```"}, "empty payload"},
		{"malformed json", &fakeModel{text: "not json at all"}, "Failed to parse Gemini response"},
		{"empty object", &fakeModel{text: "{}"}, "Failed to parse Gemini response"},
		{"deadline", &fakeModel{err: context.DeadlineExceeded}, "cancelled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &applog.MemorySink{}
			g := NewGeneratorWithProvider(tt.model, Options{}, nil, sink)

			assert.Nil(t, g.Generate(context.Background(), sampleIngredients, common.NutritionSummary{}, 0))

			require.Equal(t, 1, sink.Count(applog.Warning))
			var warning string
			for _, e := range sink.Entries() {
				if e.Level == applog.Warning {
					warning = e.Message
				}
			}
			assert.Contains(t, warning, tt.wantLog)
		})
	}
}

func TestGenerator_ParseFailureLogsSnippet(t *testing.T) {
	sink := &applog.MemorySink{}
	long := strings.Repeat("x", 2000)
	g := NewGeneratorWithProvider(&fakeModel{text: long}, Options{}, nil, sink)

	assert.Nil(t, g.Generate(context.Background(), sampleIngredients, common.NutritionSummary{}, 0))

	for _, e := range sink.Entries() {
		if e.Level == applog.Warning {
			assert.Less(t, len(e.Message), 700)
			assert.Contains(t, e.Message, strings.Repeat("x", payloadSnippetLength)+"...")
		}
	}
}

func TestGenerator_CachesPayload(t *testing.T) {
	store := cache.NewManager(config.CacheConfig{MaxSize: 10, TTL: time.Hour})
	defer store.Close()

	model := &fakeModel{text: `{"title":"Cached Bowl"}`}
	g := NewGeneratorWithProvider(model, Options{SystemPrompt: "sys"}, store, nil)

	first := g.Generate(context.Background(), sampleIngredients, common.NutritionSummary{}, 500)
	second := g.Generate(context.Background(), sampleIngredients, common.NutritionSummary{}, 500)
	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), model.calls.Load())

	// 目標不同時提示不同，不可命中快取
	g.Generate(context.Background(), sampleIngredients, common.NutritionSummary{}, 700)
	assert.Equal(t, int32(2), model.calls.Load())
}

func TestGenerator_UnparseablePayloadIsNotCached(t *testing.T) {
	store := cache.NewManager(config.CacheConfig{MaxSize: 10, TTL: time.Hour})
	defer store.Close()

	model := &fakeModel{text: "oops"}
	g := NewGeneratorWithProvider(model, Options{}, store, nil)

	g.Generate(context.Background(), sampleIngredients, common.NutritionSummary{}, 0)
	g.Generate(context.Background(), sampleIngredients, common.NutritionSummary{}, 0)
	assert.Equal(t, int32(2), model.calls.Load())
}

func TestNewGenerator_Config(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		sink := &applog.MemorySink{}
		g := NewGenerator(config.GeminiConfig{Enabled: false, Model: "m", APIKey: "k"}, nil, sink)

		assert.False(t, g.Enabled())
		assert.False(t, g.Ready())
		assert.Nil(t, g.Generate(context.Background(), sampleIngredients, common.NutritionSummary{}, 0))
		assert.Empty(t, sink.Entries())
	})

	t.Run("enabled without credentials", func(t *testing.T) {
		t.Setenv("TEST_MISSING_KEY", "")
		sink := &applog.MemorySink{}
		g := NewGenerator(config.GeminiConfig{Enabled: true, Backend: "studio", Model: "m", APIKeyEnv: "TEST_MISSING_KEY"}, nil, sink)

		assert.True(t, g.Enabled())
		assert.False(t, g.Ready())
		assert.Error(t, g.ConfigError())
		assert.Nil(t, g.Generate(context.Background(), sampleIngredients, common.NutritionSummary{}, 0))
		assert.Equal(t, 1, sink.Count(applog.Warning))
	})

	t.Run("enabled with key", func(t *testing.T) {
		g := NewGenerator(config.GeminiConfig{Enabled: true, Backend: "studio", Model: "m", APIKey: "k"}, nil, nil)
		assert.True(t, g.Ready())
		assert.NoError(t, g.ConfigError())
	})

	t.Run("nil generator", func(t *testing.T) {
		var g *Generator
		assert.False(t, g.Enabled())
		assert.NoError(t, g.ConfigError())
	})
}
