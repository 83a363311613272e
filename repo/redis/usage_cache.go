package redis

import (
	"context"
	"errors"
	"strconv"

	"github.com/Xushengqwer/go-common/core"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Xushengqwer/autopost_service/constant"
	"github.com/Xushengqwer/autopost_service/models/enums"
	"github.com/Xushengqwer/autopost_service/myErrors"
)

// UsageCacheRepository 维度使用量的短 TTL 缓存。
// 计划选择器每次构建计划要取六个维度的 30 天使用量，MySQL 聚合不贵但频繁；
// 缓存几分钟内的旧值对权重微调没有实际影响。
type UsageCacheRepository interface {
	// Get 读取某维度的使用量缓存。
	// 缓存未命中返回 myErrors.ErrCacheMiss，调用方回源 MySQL 聚合。
	Get(ctx context.Context, dim enums.DimensionType) (map[string]int64, error)

	// Set 写入某维度的使用量缓存（整体覆盖，带 TTL）。
	Set(ctx context.Context, dim enums.DimensionType, usage map[string]int64) error
}

type usageCacheRepository struct {
	client *redis.Client
	logger *core.ZapLogger
}

// NewUsageCacheRepository 是 usageCacheRepository 的构造函数。
func NewUsageCacheRepository(client *redis.Client, logger *core.ZapLogger) UsageCacheRepository {
	return &usageCacheRepository{client: client, logger: logger}
}

func usageKey(dim enums.DimensionType) string {
	return constant.DimensionUsageKeyPrefix + string(dim)
}

func (r *usageCacheRepository) Get(ctx context.Context, dim enums.DimensionType) (map[string]int64, error) {
	key := usageKey(dim)
	fields, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, myErrors.ErrCacheMiss
		}
		r.logger.Error("读取使用量缓存失败", zap.Error(err), zap.String("key", key))
		return nil, err
	}
	// HGETALL 对不存在的 key 返回空 map，同样按未命中处理
	if len(fields) == 0 {
		return nil, myErrors.ErrCacheMiss
	}

	usage := make(map[string]int64, len(fields))
	for code, raw := range fields {
		count, parseErr := strconv.ParseInt(raw, 10, 64)
		if parseErr != nil {
			r.logger.Warn("使用量缓存包含非法数值，按未命中处理",
				zap.String("key", key),
				zap.String("field", code),
				zap.String("value", raw),
			)
			return nil, myErrors.ErrCacheMiss
		}
		usage[code] = count
	}
	return usage, nil
}

func (r *usageCacheRepository) Set(ctx context.Context, dim enums.DimensionType, usage map[string]int64) error {
	key := usageKey(dim)

	fields := make(map[string]interface{}, len(usage))
	for code, count := range usage {
		fields[code] = strconv.FormatInt(count, 10)
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, key)
	if len(fields) > 0 {
		pipe.HSet(ctx, key, fields)
	}
	pipe.Expire(ctx, key, constant.DimensionUsageTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("写入使用量缓存失败", zap.Error(err), zap.String("key", key))
		return err
	}
	return nil
}
