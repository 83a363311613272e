package service

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/Xushengqwer/go-common/core"
	"go.uber.org/zap"

	"github.com/Xushengqwer/autopost_service/dependencies"
	"github.com/Xushengqwer/autopost_service/models/entities"
	"github.com/Xushengqwer/autopost_service/repo/mysql"
)

// SimilarityService 定义了文本语义查重的接口。
// 生成编排器在接受一段候选文本前，用它对比最近发布的内容，
// 避免连续发出意思雷同的帖子。
type SimilarityService interface {
	// CheckText 计算候选文本与近期帖子的最大余弦相似度。
	// - 返回候选文本的向量（由调用方决定是否落库）、最大相似度与命中明细。
	// - 历史库为空时最大相似度为 0，视为通过。
	CheckText(ctx context.Context, text string) (vector []float64, maxScore float64, hits []entities.SimilarityHit, err error)

	// EmbedderName 返回产出向量的后端标识，落库时随向量一并记录。
	EmbedderName() string
}

// similarityService 是 SimilarityService 接口的具体实现。
// 向量始终由注册表的主后端计算: 不同模型的向量空间互不可比，
// 兜底后端生成的文本也必须用同一嵌入模型查重，否则查重形同虚设。
type similarityService struct {
	embeddingRepo mysql.PostEmbeddingRepository // 历史向量的 MySQL 操作
	registry      *dependencies.AIRegistry      // 主后端承担全部向量计算
	recentWindow  int                           // 参与对比的近期帖子条数
	logger        *core.ZapLogger
}

// NewSimilarityService 是 similarityService 的构造函数。
func NewSimilarityService(embeddingRepo mysql.PostEmbeddingRepository, registry *dependencies.AIRegistry, recentWindow int, logger *core.ZapLogger) SimilarityService {
	return &similarityService{
		embeddingRepo: embeddingRepo,
		registry:      registry,
		recentWindow:  recentWindow,
		logger:        logger,
	}
}

func (s *similarityService) EmbedderName() string {
	return s.registry.Primary().Name()
}

// CheckText 先取候选文本的向量，再与近期帖子的向量逐一比对。
func (s *similarityService) CheckText(ctx context.Context, text string) ([]float64, float64, []entities.SimilarityHit, error) {
	vector, err := s.registry.Primary().Embed(ctx, text)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("计算候选文本向量失败: %w", err)
	}

	recent, err := s.embeddingRepo.ListRecent(ctx, s.recentWindow)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("加载近期帖子向量失败: %w", err)
	}

	var maxScore float64
	hits := make([]entities.SimilarityHit, 0, len(recent))
	for _, emb := range recent {
		// 嵌入模型换代后的历史向量维度不同，跨模型对比没有意义，直接跳过
		if len(emb.Vector) != len(vector) {
			continue
		}
		score := cosineSimilarity(vector, emb.Vector)
		hits = append(hits, entities.SimilarityHit{PostID: emb.PostID, Score: score})
		if score > maxScore {
			maxScore = score
		}
	}

	// 命中按相似度降序，便于审核页直接展示最接近的几条
	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > 5 {
		hits = hits[:5]
	}

	s.logger.Debug("语义查重完成",
		zap.Int("compared", len(recent)),
		zap.Float64("maxScore", maxScore),
	)
	return vector, maxScore, hits, nil
}

// cosineSimilarity 计算两个等长向量的余弦相似度。
// 任一向量为零向量时返回 0。
func cosineSimilarity(a, b []float64) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
