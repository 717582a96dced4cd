package user

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/go-redis/redis/v8"
)

// Directory 提供使用者每日熱量目標
type Directory interface {
	// CalorieTarget 回傳使用者的每日目標，未設定時為 0
	CalorieTarget(ctx context.Context, userID string) (int, error)
}

// StaticDirectory 記憶體版本
type StaticDirectory struct {
	mu      sync.RWMutex
	targets map[string]int
}

// NewStaticDirectory 創建記憶體使用者目錄
func NewStaticDirectory(targets map[string]int) *StaticDirectory {
	d := &StaticDirectory{targets: make(map[string]int, len(targets))}
	for id, t := range targets {
		d.targets[id] = t
	}
	return d
}

// CalorieTarget 查詢目標
func (d *StaticDirectory) CalorieTarget(_ context.Context, userID string) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.targets[userID], nil
}

// SetCalorieTarget 更新目標
func (d *StaticDirectory) SetCalorieTarget(userID string, target int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.targets[userID] = target
}

const calorieTargetField = "daily_calorie_target"

// RedisDirectory 從 Redis hash user:{id} 讀取目標
type RedisDirectory struct {
	client redis.Cmdable
}

// NewRedisDirectory 創建 Redis 使用者目錄
func NewRedisDirectory(client redis.Cmdable) *RedisDirectory {
	return &RedisDirectory{client: client}
}

func userKey(userID string) string {
	return "user:" + userID
}

// CalorieTarget 查詢目標
func (d *RedisDirectory) CalorieTarget(ctx context.Context, userID string) (int, error) {
	val, err := d.client.HGet(ctx, userKey(userID), calorieTargetField).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("read calorie target for %s: %w", userID, err)
	}

	target, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid calorie target %q for %s: %w", val, userID, err)
	}
	return target, nil
}

// SetCalorieTarget 寫入目標
func (d *RedisDirectory) SetCalorieTarget(ctx context.Context, userID string, target int) error {
	return d.client.HSet(ctx, userKey(userID), calorieTargetField, target).Err()
}
