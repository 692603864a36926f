package redis_limiter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// ErrNoSlot 槽位已满
var ErrNoSlot = errors.New("no free slot")

// 当前值未达上限时 INCR 并刷新过期时间，否则返回上限+1
var acquireScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
if current >= tonumber(ARGV[1]) then
	return current + 1
end
local n = redis.call('INCR', KEYS[1])
redis.call('EXPIRE', KEYS[1], tonumber(ARGV[2]))
return n`)

// DECR，归零时删除key
var releaseScript = redis.NewScript(`
local n = redis.call('DECR', KEYS[1])
if tonumber(n) <= 0 then
	redis.call('DEL', KEYS[1])
	return 0
end
redis.call('EXPIRE', KEYS[1], tonumber(ARGV[1]))
return n`)

// RedisLimiter 基于Redis的并发槽位，多个实例共享同一上限
type RedisLimiter struct {
	client        *redis.Client
	maxConcurrent int
	keyPrefix     string
	ttl           time.Duration
	logger        *logrus.Logger
}

// NewRedisLimiter 创建基于Redis的并发限制器
// ttl 兜底回收进程崩溃后未释放的槽位
func NewRedisLimiter(client *redis.Client, maxConcurrent int, keyPrefix string, ttl time.Duration, logger *logrus.Logger) *RedisLimiter {
	if ttl < time.Second {
		ttl = time.Second
	}
	return &RedisLimiter{
		client:        client,
		maxConcurrent: maxConcurrent,
		keyPrefix:     keyPrefix,
		ttl:           ttl,
		logger:        logger,
	}
}

// Acquire 获取并发槽位，已满时返回 ErrNoSlot
func (rl *RedisLimiter) Acquire(ctx context.Context, key string) error {
	redisKey := rl.keyPrefix + key

	n, err := acquireScript.Run(ctx, rl.client, []string{redisKey}, rl.maxConcurrent, int(rl.ttl.Seconds())).Int()
	if err != nil {
		return fmt.Errorf("获取槽位失败: %w", err)
	}

	if n > rl.maxConcurrent {
		rl.logger.WithFields(logrus.Fields{"key": key, "max": rl.maxConcurrent}).Warn("槽位已满")
		return ErrNoSlot
	}

	rl.logger.WithFields(logrus.Fields{"key": key, "in_use": n}).Debug("获取槽位")
	return nil
}

// Release 释放并发槽位，失败只记录日志
func (rl *RedisLimiter) Release(ctx context.Context, key string) {
	redisKey := rl.keyPrefix + key

	n, err := releaseScript.Run(ctx, rl.client, []string{redisKey}, int(rl.ttl.Seconds())).Int()
	if err != nil {
		rl.logger.WithError(err).WithField("key", key).Error("释放槽位失败")
		return
	}
	rl.logger.WithFields(logrus.Fields{"key": key, "in_use": n}).Debug("释放槽位")
}

// GetCurrent 获取当前并发数
func (rl *RedisLimiter) GetCurrent(ctx context.Context, key string) (int, error) {
	current, err := rl.client.Get(ctx, rl.keyPrefix+key).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("获取当前并发数失败: %w", err)
	}
	return current, nil
}

// GetMaxConcurrent 获取最大并发数
func (rl *RedisLimiter) GetMaxConcurrent() int {
	return rl.maxConcurrent
}
