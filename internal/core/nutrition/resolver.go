package nutrition

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"smartchef/internal/core/applog"
	"smartchef/internal/core/cache"
	"smartchef/internal/infrastructure/config"
	"smartchef/internal/infrastructure/metrics"
	"smartchef/internal/pkg/common"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Result 營養解析結果
type Result struct {
	Summary     common.NutritionSummary
	Ingredients []common.IngredientNutrition
	// Fallbacks 使用合成估算的食材數
	Fallbacks int
}

// Options 解析器設定
type Options struct {
	Profile        config.FallbackProfile
	FailurePolicy  string
	MaxConcurrency int
	Timeout        time.Duration
}

// Resolver 逐一查詢食材營養並彙總，查詢失敗時依策略改用合成估算
type Resolver struct {
	source Source
	opts   Options
	sink   applog.Sink
}

// NewResolver 創建解析器
func NewResolver(source Source, opts Options, sink applog.Sink) *Resolver {
	if source == nil {
		source = OfflineSource{}
	}
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = 1
	}
	if opts.Profile.Span <= 0 {
		opts.Profile = DemoProfile
	}
	if opts.FailurePolicy == "" {
		opts.FailurePolicy = config.FailurePolicyFallback
	}
	return &Resolver{source: source, opts: opts, sink: sink}
}

// NewResolverFromConfig 依設定選擇來源與備援基準
func NewResolverFromConfig(cfg config.NutritionConfig, store cache.Store, sink applog.Sink) *Resolver {
	var (
		source  Source
		profile config.FallbackProfile
	)
	switch {
	case cfg.UseRealAPI && cfg.BaseURL != "":
		source = NewNutritionixSource(cfg)
		profile = cfg.LiveFallback
	case cfg.DemoBaseURL != "":
		source = NewDemoSource(cfg.DemoBaseURL)
		profile = cfg.DemoFallback
	default:
		source = OfflineSource{}
		profile = cfg.DemoFallback
	}
	source = NewCachedSource(source, store)

	common.LogInfo("Nutrition resolver initialized",
		zap.String("source", source.Name()),
		zap.String("failure_policy", cfg.FailurePolicy),
		zap.Int("max_concurrency", cfg.MaxConcurrency),
	)

	return NewResolver(source, Options{
		Profile:        profile,
		FailurePolicy:  cfg.FailurePolicy,
		MaxConcurrency: cfg.MaxConcurrency,
		Timeout:        cfg.Timeout,
	}, sink)
}

// SourceName 目前使用的來源名稱
func (r *Resolver) SourceName() string {
	return r.source.Name()
}

// Resolve 解析整份清單。
// 只有呼叫端取消，或 propagate 策略下查詢失敗時才回傳錯誤；輸出順序與輸入相同。
func (r *Resolver) Resolve(ctx context.Context, ingredients []common.IngredientInput, calorieTarget float64) (Result, error) {
	items := make([]common.IngredientNutrition, len(ingredients))
	var fallbacks atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.MaxConcurrency)
	for i, in := range ingredients {
		i, in := i, in
		g.Go(func() error {
			item, fellBack, err := r.resolveOne(gctx, in)
			if err != nil {
				return err
			}
			items[i] = item
			if fellBack {
				fallbacks.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	summary := Aggregate(items)
	if (len(items) == 0 || summary.TotalCalories <= 0) && calorieTarget > 0 {
		summary = TargetSummary(calorieTarget)
		if len(items) == 0 {
			items = append(items, common.IngredientNutrition{
				Name:              PlaceholderName,
				Calories:          summary.TotalCalories,
				ProteinGrams:      summary.TotalProteinGrams,
				CarbohydrateGrams: summary.TotalCarbohydrateGrams,
				FatGrams:          summary.TotalFatGrams,
			})
		}
	}

	return Result{
		Summary:     summary,
		Ingredients: items,
		Fallbacks:   int(fallbacks.Load()),
	}, nil
}

// resolveOne 查詢單一食材，fellBack 表示使用了合成估算
func (r *Resolver) resolveOne(ctx context.Context, in common.IngredientInput) (common.IngredientNutrition, bool, error) {
	facts, err := r.lookup(ctx, in)
	if err == nil {
		err = facts.usable()
	}
	if err == nil {
		outcome := metrics.LookupSuccess
		if facts.Cached {
			outcome = metrics.LookupCached
		}
		metrics.RecordLookup(r.source.Name(), outcome)
		return fromFacts(in, facts), false, nil
	}

	// 呼叫端已取消時不可用估算取代
	if ctxErr := ctx.Err(); ctxErr != nil {
		return common.IngredientNutrition{}, false, ctxErr
	}

	if r.opts.FailurePolicy == config.FailurePolicyPropagate && !isEmptyResult(err) {
		metrics.RecordLookup(r.source.Name(), metrics.LookupFailed)
		applog.SafeLog(ctx, r.sink, applog.Error,
			fmt.Sprintf("Nutrition lookup for '%s' failed: %v", in.Name, err))
		return common.IngredientNutrition{}, false, common.ErrNutritionLookup.Wrap(fmt.Errorf("lookup %q: %w", in.Name, err))
	}

	metrics.RecordLookup(r.source.Name(), metrics.LookupFallback)
	applog.SafeLog(ctx, r.sink, applog.Warning,
		fmt.Sprintf("Nutrition lookup for '%s' via %s failed, using fallback estimate: %v", in.Name, r.source.Name(), err))
	return Estimate(in, r.opts.Profile), true, nil
}

// isEmptyResult 來源有回應但沒有可用資料，任何策略下都改用估算
func isEmptyResult(err error) bool {
	return errors.Is(err, ErrNoCandidates) || errors.Is(err, ErrZeroMacros)
}

func (r *Resolver) lookup(ctx context.Context, in common.IngredientInput) (Facts, error) {
	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}
	return r.source.Lookup(ctx, in)
}

// fromFacts 依數量縮放並四捨五入
func fromFacts(in common.IngredientInput, f Facts) common.IngredientNutrition {
	scale := 1.0
	if !f.QuantityApplied {
		scale = QuantityScale(in.Quantity)
	}
	return common.IngredientNutrition{
		Name:              in.Name,
		Calories:          common.Round2(math.Max(f.Calories, 0) * scale),
		ProteinGrams:      common.Round2(math.Max(f.ProteinGrams, 0) * scale),
		CarbohydrateGrams: common.Round2(math.Max(f.CarbohydrateGrams, 0) * scale),
		FatGrams:          common.Round2(math.Max(f.FatGrams, 0) * scale),
	}
}

// Aggregate 逐項加總，結果四捨五入到兩位小數
func Aggregate(items []common.IngredientNutrition) common.NutritionSummary {
	var s common.NutritionSummary
	for _, item := range items {
		s.Add(item)
	}
	s.TotalCalories = common.Round2(s.TotalCalories)
	s.TotalProteinGrams = common.Round2(s.TotalProteinGrams)
	s.TotalCarbohydrateGrams = common.Round2(s.TotalCarbohydrateGrams)
	s.TotalFatGrams = common.Round2(s.TotalFatGrams)
	return s
}
