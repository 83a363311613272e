package redis

import (
	"context"

	"github.com/Xushengqwer/go-common/core"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Xushengqwer/autopost_service/constant"
)

// RecentTextRepository 近期已发布文案窗口。
// - 结构校验器用这个短窗口做字符集 Jaccard 近重复检查，
//   与相似度引擎的向量比对相互独立（后者用 MySQL 里的嵌入向量）。
// - 窗口存在 Redis List 中，LPUSH + LTRIM 保持定长；丢失可接受，
//   最坏情况是短时间内少一道近重复防线。
type RecentTextRepository interface {
	// Push 发布成功后把正文推入窗口头部并裁剪长度。
	Push(ctx context.Context, text string) error

	// Recent 取窗口中最近的 n 条正文（新到旧）。
	Recent(ctx context.Context, n int) ([]string, error)
}

type recentTextRepository struct {
	client *redis.Client
	logger *core.ZapLogger
}

// NewRecentTextRepository 是 recentTextRepository 的构造函数。
func NewRecentTextRepository(client *redis.Client, logger *core.ZapLogger) RecentTextRepository {
	return &recentTextRepository{client: client, logger: logger}
}

func (r *recentTextRepository) Push(ctx context.Context, text string) error {
	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, constant.RecentTextsKey, text)
	pipe.LTrim(ctx, constant.RecentTextsKey, 0, int64(constant.RecentTextsMaxLen-1))
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("推入近期文案窗口失败", zap.Error(err))
		return err
	}
	return nil
}

func (r *recentTextRepository) Recent(ctx context.Context, n int) ([]string, error) {
	if n <= 0 || n > constant.RecentTextsMaxLen {
		n = constant.RecentTextsMaxLen
	}
	texts, err := r.client.LRange(ctx, constant.RecentTextsKey, 0, int64(n-1)).Result()
	if err != nil {
		r.logger.Error("读取近期文案窗口失败", zap.Error(err))
		return nil, err
	}
	return texts, nil
}
