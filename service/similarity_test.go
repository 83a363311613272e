package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xushengqwer/autopost_service/dependencies"
	"github.com/Xushengqwer/autopost_service/models/entities"
)

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float64{1, 2, 3}, []float64{1, 2, 3}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float64{1, 0}, []float64{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, cosineSimilarity([]float64{1, 0}, []float64{-1, 0}), 1e-9)

	// 零向量恒为 0
	assert.Equal(t, 0.0, cosineSimilarity([]float64{0, 0}, []float64{1, 1}))
}

func embeddingFor(postID uint64, vector []float64) *entities.PostEmbedding {
	return &entities.PostEmbedding{
		PostID: postID,
		Dim:    len(vector),
		Vector: vector,
	}
}

// newTestSimilarity 用指定的嵌入后端作为注册表主后端组装查重服务。
func newTestSimilarity(t *testing.T, repo *fakeEmbeddingRepo, embedder *fakeBackend) SimilarityService {
	t.Helper()
	registry := dependencies.NewAIRegistry([]dependencies.AIBackend{embedder}, embedder.name, "")
	return NewSimilarityService(repo, registry, 10, testLogger(t))
}

func TestCheckText_MaxScoreAndHits(t *testing.T) {
	repo := &fakeEmbeddingRepo{
		recent: []*entities.PostEmbedding{
			embeddingFor(1, []float64{1, 0}),
			embeddingFor(2, []float64{0, 1}),
			embeddingFor(3, []float64{1, 1, 1}), // 维度不一致，跳过
		},
	}
	svc := newTestSimilarity(t, repo, &fakeBackend{name: "qwen", embedding: []float64{1, 0}})

	vector, maxScore, hits, err := svc.CheckText(context.Background(), "候选文本")
	require.NoError(t, err)

	assert.Equal(t, []float64{1, 0}, vector)
	assert.InDelta(t, 1.0, maxScore, 1e-9)

	// 维度不一致的记录不参与比对
	require.Len(t, hits, 2)
	// 命中按相似度降序
	assert.Equal(t, uint64(1), hits[0].PostID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
	assert.Equal(t, uint64(2), hits[1].PostID)
}

func TestCheckText_EmptyHistoryPasses(t *testing.T) {
	svc := newTestSimilarity(t, &fakeEmbeddingRepo{}, &fakeBackend{name: "qwen", embedding: []float64{1, 0}})

	_, maxScore, hits, err := svc.CheckText(context.Background(), "候选文本")
	require.NoError(t, err)
	assert.Equal(t, 0.0, maxScore)
	assert.Empty(t, hits)
}

func TestCheckText_HitsTruncatedToFive(t *testing.T) {
	repo := &fakeEmbeddingRepo{}
	for i := uint64(1); i <= 8; i++ {
		repo.recent = append(repo.recent, embeddingFor(i, []float64{1, float64(i)}))
	}
	svc := newTestSimilarity(t, repo, &fakeBackend{name: "qwen", embedding: []float64{1, 2}})

	_, _, hits, err := svc.CheckText(context.Background(), "候选文本")
	require.NoError(t, err)
	assert.Len(t, hits, 5)
}

func TestCheckText_EmbedFailure(t *testing.T) {
	svc := newTestSimilarity(t, &fakeEmbeddingRepo{}, &fakeBackend{name: "qwen", embedErr: assert.AnError})

	_, _, _, err := svc.CheckText(context.Background(), "候选文本")
	assert.Error(t, err)
}

func TestEmbedderName(t *testing.T) {
	svc := newTestSimilarity(t, &fakeEmbeddingRepo{}, &fakeBackend{name: "qwen", embedding: []float64{1}})
	assert.Equal(t, "qwen", svc.EmbedderName())
}
