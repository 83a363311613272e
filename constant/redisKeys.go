package constant

import "time"

// Redis Key 相关常量 (导出)
const (
	// RecentTextsKey 是最近已发布文案窗口的 Key 名称。
	// 这是一个 List，LPUSH 最新发布的正文，LTRIM 保持固定长度，
	// 供结构校验器做字符集 Jaccard 近重复检查（§结构校验，非语义相似度）。
	// Redis 类型: List
	// 示例值: ["今天也要好好吃饭\n...", "降温了记得添衣\n..."]
	RecentTextsKey = "autopost:recent_texts"

	// DimensionUsageKeyPrefix 是维度选项 30 天使用量缓存的 Key 前缀。
	// 每个维度类型一个 Hash，field 为选项 code，value 为窗口内使用次数。
	// 由计划选择器在 MySQL 聚合之上做短 TTL 缓存，减少每次生成前的扫表。
	// 示例 Key: "autopost:dim_usage:tone"
	// Redis 类型: Hash
	DimensionUsageKeyPrefix = "autopost:dim_usage:"
)

// Redis 缓存 TTL
const (
	// DimensionUsageTTL 使用量缓存的过期时间。
	// 窗口按天滚动，缓存几分钟内的轻微滞后对权重调整没有实际影响。
	DimensionUsageTTL = 10 * time.Minute
)

// RecentTextsMaxLen 近期文案窗口在 Redis 中保留的最大条数。
const RecentTextsMaxLen = 20
