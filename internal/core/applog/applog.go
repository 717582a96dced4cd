// Package applog 提供應用事件日誌，記錄營養備援與 AI 結果等業務事件。
package applog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"smartchef/internal/pkg/common"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Level 事件級別
type Level string

const (
	Information Level = "Information"
	Warning     Level = "Warning"
	Error       Level = "Error"
)

// Entry 持久化的事件
type Entry struct {
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Sink 事件日誌的寫入端
type Sink interface {
	Log(ctx context.Context, level Level, message string) error
}

// SafeLog 寫入事件，失敗只記錄 debug 不向上拋出
func SafeLog(ctx context.Context, sink Sink, level Level, message string) {
	if sink == nil {
		return
	}
	if err := sink.Log(ctx, level, message); err != nil {
		common.LogDebug("App log write failed", zap.Error(err), zap.String("level", string(level)))
	}
}

// ZapSink 將事件寫入 zap
type ZapSink struct{}

// Log 依級別輸出
func (ZapSink) Log(_ context.Context, level Level, message string) error {
	switch level {
	case Warning:
		common.LogWarn(message, zap.String("source", "applog"))
	case Error:
		common.LogError(message, zap.String("source", "applog"))
	default:
		common.LogInfo(message, zap.String("source", "applog"))
	}
	return nil
}

// RedisSink 將事件以 JSON 推入 Redis list，並保留最新 maxEntries 筆
type RedisSink struct {
	client     redis.Cmdable
	key        string
	maxEntries int64
	now        func() time.Time
}

// NewRedisSink 創建 Redis 事件日誌
func NewRedisSink(client redis.Cmdable, key string, maxEntries int64) *RedisSink {
	return &RedisSink{
		client:     client,
		key:        key,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Log 寫入一筆事件
func (s *RedisSink) Log(ctx context.Context, level Level, message string) error {
	data, err := json.Marshal(Entry{Level: level, Message: message, Timestamp: s.now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal app log entry: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, s.key, data)
	if s.maxEntries > 0 {
		pipe.LTrim(ctx, s.key, 0, s.maxEntries-1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("push app log entry: %w", err)
	}
	return nil
}

// Recent 讀取最新的 n 筆事件
func (s *RedisSink) Recent(ctx context.Context, n int64) ([]Entry, error) {
	if n <= 0 {
		return nil, nil
	}
	raw, err := s.client.LRange(ctx, s.key, 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("read app log entries: %w", err)
	}

	entries := make([]Entry, 0, len(raw))
	for _, item := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// MultiSink 同時寫入多個 Sink，所有錯誤合併回傳
type MultiSink []Sink

// Log 依序寫入
func (m MultiSink) Log(ctx context.Context, level Level, message string) error {
	var errs []error
	for _, s := range m {
		if err := s.Log(ctx, level, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// MemorySink 保存在記憶體的事件日誌
type MemorySink struct {
	mu      sync.Mutex
	entries []Entry
}

// Log 寫入一筆事件
func (m *MemorySink) Log(_ context.Context, level Level, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, Entry{Level: level, Message: message, Timestamp: time.Now().UTC()})
	return nil
}

// Entries 目前所有事件的副本
func (m *MemorySink) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Entry(nil), m.entries...)
}

// Count 指定級別的事件數
func (m *MemorySink) Count(level Level) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.entries {
		if e.Level == level {
			n++
		}
	}
	return n
}
