package nutrition

import (
	"context"
	"encoding/json"
	"errors"

	"smartchef/internal/core/cache"
	"smartchef/internal/pkg/common"

	"go.uber.org/zap"
)

// CachedSource 將可用的查詢結果寫入快取
type CachedSource struct {
	next  Source
	store cache.Store
}

// NewCachedSource 以快取包裝來源，store 為 nil 時直接回傳原來源
func NewCachedSource(next Source, store cache.Store) Source {
	if store == nil {
		return next
	}
	return &CachedSource{next: next, store: store}
}

// Name 來源名稱
func (s *CachedSource) Name() string { return s.next.Name() }

// Lookup 先查快取，未命中才呼叫來源
func (s *CachedSource) Lookup(ctx context.Context, in common.IngredientInput) (Facts, error) {
	key := cache.Key("nutrition", s.next.Name(), lookupKey(in))

	if raw, err := s.store.Get(ctx, key); err == nil {
		var facts Facts
		if err := json.Unmarshal([]byte(raw), &facts); err == nil {
			common.LogCacheHit("nutrition")
			facts.Cached = true
			return facts, nil
		}
	} else if !errors.Is(err, common.ErrCacheMiss) {
		common.LogDebug("Nutrition cache read failed", zap.Error(err))
	}
	common.LogCacheMiss("nutrition")

	facts, err := s.next.Lookup(ctx, in)
	if err != nil {
		return facts, err
	}
	if facts.usable() != nil {
		return facts, nil
	}

	if data, err := json.Marshal(facts); err == nil {
		if err := s.store.Set(ctx, key, string(data)); err != nil {
			common.LogDebug("Nutrition cache write failed", zap.Error(err))
		}
	}
	return facts, nil
}
