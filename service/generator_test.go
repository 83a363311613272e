package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appConfig "github.com/Xushengqwer/autopost_service/config"
	"github.com/Xushengqwer/autopost_service/dependencies"
	"github.com/Xushengqwer/autopost_service/models/dto"
	"github.com/Xushengqwer/autopost_service/models/entities"
	"github.com/Xushengqwer/autopost_service/models/enums"
	"github.com/Xushengqwer/autopost_service/myErrors"
)

// fakeChecker 按预设序列返回校验结论，序列耗尽后重复最后一个。
type fakeChecker struct {
	results []*CheckResult
	calls   int
}

func (f *fakeChecker) Check(string, *dto.Plan, []string) *CheckResult {
	idx := f.calls
	if idx >= len(f.results) {
		idx = len(f.results) - 1
	}
	f.calls++
	return f.results[idx]
}

func (f *fakeChecker) BuildFixPrompt(*CheckResult) string {
	return "修复指令"
}

func passingChecker() *fakeChecker {
	return &fakeChecker{results: []*CheckResult{{Passed: true}}}
}

func failingChecker() *fakeChecker {
	return &fakeChecker{results: []*CheckResult{{
		Passed:    false,
		Issues:    []string{"正文没有换行"},
		RiskFlags: []string{FlagNoLineBreak},
	}}}
}

type generatorFixture struct {
	svc        GenerationService
	postRepo   *fakePostRepo
	revisions  *fakeRevisionRepo
	embeddings *fakeEmbeddingRepo
	templates  *fakeTemplateRepo
	planSvc    *fakePlanService
	reviewSvc  *fakeReviewService
}

func newGeneratorFixture(
	t *testing.T,
	registry *dependencies.AIRegistry,
	checker PostChecker,
	similarity SimilarityService,
	cfg appConfig.GenerationConfig,
) *generatorFixture {
	t.Helper()

	post := &entities.Post{Status: enums.StatusDraft}
	post.ID = 1

	fixture := &generatorFixture{
		postRepo:   &fakePostRepo{post: post},
		revisions:  &fakeRevisionRepo{},
		embeddings: &fakeEmbeddingRepo{},
		templates:  &fakeTemplateRepo{templates: map[uint64]*entities.ContentTemplate{}},
		planSvc:    &fakePlanService{plan: lengthPlan(4, 20)},
		reviewSvc:  &fakeReviewService{},
	}
	fixture.svc = NewGenerationService(
		testDB(t),
		fixture.postRepo,
		fixture.revisions,
		fixture.embeddings,
		fixture.templates,
		&fakeOptionRepo{},
		&fakeRecentTexts{},
		fixture.planSvc,
		similarity,
		checker,
		fixture.reviewSvc,
		registry,
		cfg,
		testLogger(t),
	)
	return fixture
}

func defaultGenerationConfig() appConfig.GenerationConfig {
	return appConfig.GenerationConfig{
		MaxRetries:          2,
		MaxFixRetries:       1,
		SimilarityThreshold: 0.6,
		RecentWindow:        10,
		MaxTokens:           800,
	}
}

func TestGenerate_CleanDraftAccepted(t *testing.T) {
	primary := &fakeBackend{name: "qwen", texts: []string{validText}}
	registry := dependencies.NewAIRegistry([]dependencies.AIBackend{primary}, "qwen", "")
	similarity := &fakeSimilarityService{vector: []float64{1, 0}, maxScore: 0.2}

	fixture := newGeneratorFixture(t, registry, passingChecker(), similarity, defaultGenerationConfig())

	result, err := fixture.svc.Generate(context.Background(), 1, nil)
	require.NoError(t, err)

	assert.Equal(t, validText, result.Text)
	assert.Equal(t, "qwen", result.BackendUsed)
	assert.False(t, result.FromFallback)
	assert.False(t, result.SimilarityOver)
	assert.Equal(t, 1, result.RevisionNo)

	// DRAFT → GENERATING → PENDING_REVIEW
	require.Len(t, fixture.postRepo.transitions, 2)
	assert.Equal(t, enums.StatusGenerating, fixture.postRepo.transitions[0].to)
	assert.Equal(t, enums.StatusPendingReview, fixture.postRepo.transitions[1].to)

	// 修订与向量都已落库，审核请求未带相似度标记
	require.Len(t, fixture.revisions.revisions, 1)
	assert.Equal(t, fixture.planSvc.plan.Module.Code, fixture.revisions.revisions[0].Params.ModuleCode)
	require.Len(t, fixture.embeddings.stored, 1)
	assert.Equal(t, []float64{1, 0}, fixture.embeddings.stored[0].Vector)
	require.Len(t, fixture.reviewSvc.requests, 1)
	assert.False(t, fixture.reviewSvc.requests[0].similarityFlagged)
}

func TestGenerate_RevisionNumbersIncrease(t *testing.T) {
	primary := &fakeBackend{name: "qwen", texts: []string{validText}}
	registry := dependencies.NewAIRegistry([]dependencies.AIBackend{primary}, "qwen", "")
	similarity := &fakeSimilarityService{vector: []float64{1, 0}, maxScore: 0.2}

	fixture := newGeneratorFixture(t, registry, passingChecker(), similarity, defaultGenerationConfig())

	first, err := fixture.svc.Generate(context.Background(), 1, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, first.RevisionNo)

	// 重新生成: PENDING_REVIEW → GENERATING 合法，修订号继续递增
	second, err := fixture.svc.Generate(context.Background(), 1, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, second.RevisionNo)

	// 第二轮复用上一修订的参数，不再重建计划
	assert.Equal(t, 1, fixture.planSvc.calls)
}

func TestGenerate_RegenerateReplacesEmbedding(t *testing.T) {
	primary := &fakeBackend{name: "qwen", texts: []string{validText}}
	registry := dependencies.NewAIRegistry([]dependencies.AIBackend{primary}, "qwen", "")
	similarity := &fakeSimilarityService{vector: []float64{1, 0}, maxScore: 0.2}

	fixture := newGeneratorFixture(t, registry, passingChecker(), similarity, defaultGenerationConfig())

	_, err := fixture.svc.Generate(context.Background(), 1, nil)
	require.NoError(t, err)

	// 再生成不能被 post_id 唯一约束挡下来: 第二轮必须成功，
	// 向量按帖子覆盖更新而不是新增一行
	similarity.vector = []float64{0, 1}
	second, err := fixture.svc.Generate(context.Background(), 1, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, second.RevisionNo)

	require.Len(t, fixture.embeddings.stored, 1)
	assert.Equal(t, []float64{0, 1}, fixture.embeddings.stored[0].Vector)
	assert.Equal(t, enums.StatusPendingReview, fixture.postRepo.post.Status)
}

func TestGenerate_SimilarityAtThresholdAccepted(t *testing.T) {
	// 阈值是含边界的可接受上限: 恰好等于阈值的文本必须被接受
	cfg := defaultGenerationConfig()
	primary := &fakeBackend{name: "qwen", texts: []string{validText}}
	registry := dependencies.NewAIRegistry([]dependencies.AIBackend{primary}, "qwen", "")
	similarity := &fakeSimilarityService{vector: []float64{1, 0}, maxScore: cfg.SimilarityThreshold}

	fixture := newGeneratorFixture(t, registry, passingChecker(), similarity, cfg)

	result, err := fixture.svc.Generate(context.Background(), 1, nil)
	require.NoError(t, err)

	assert.False(t, result.SimilarityOver)
	assert.False(t, result.FromFallback)
	assert.Len(t, primary.prompts, 1)

	last := fixture.postRepo.lastTransition()
	require.NotNil(t, last)
	assert.Equal(t, enums.StatusPendingReview, last.to)
}

func TestGenerate_FallbackAcceptsOverThreshold(t *testing.T) {
	// 主后端始终故障，兜底后端产出相似度超标的文本: 接受但打标
	primary := &fakeBackend{name: "qwen", genErr: errors.New("上游超时")}
	fallback := &fakeBackend{name: "deepseek", texts: []string{validText}}
	registry := dependencies.NewAIRegistry([]dependencies.AIBackend{primary, fallback}, "qwen", "deepseek")
	similarity := &fakeSimilarityService{vector: []float64{1, 0}, maxScore: 0.9}

	fixture := newGeneratorFixture(t, registry, passingChecker(), similarity, defaultGenerationConfig())

	result, err := fixture.svc.Generate(context.Background(), 1, nil)
	require.NoError(t, err)

	assert.True(t, result.FromFallback)
	assert.True(t, result.SimilarityOver)
	assert.InDelta(t, 0.9, result.MaxSimilarity, 1e-9)
	assert.Equal(t, "deepseek", result.BackendUsed)

	// 相似度打标进 ACTION_REQUIRED，但不属于错误，不写错误表面
	last := fixture.postRepo.lastTransition()
	require.NotNil(t, last)
	assert.Equal(t, enums.StatusActionRequired, last.to)
	assert.NotContains(t, last.updates, "last_error_code")
	assert.NotContains(t, last.updates, "last_error_message")

	require.Len(t, fixture.revisions.revisions, 1)
	assert.True(t, fixture.revisions.revisions[0].FromFallback)
	assert.InDelta(t, 0.9, fixture.revisions.revisions[0].SimilarityMax, 1e-9)

	// 审核请求带上相似度标记，自动审批通道对其关闭
	require.Len(t, fixture.reviewSvc.requests, 1)
	assert.True(t, fixture.reviewSvc.requests[0].similarityFlagged)
}

func TestGenerate_SimilarityRejectionConsumesAttempts(t *testing.T) {
	// 主后端正常产文但相似度始终超标: 每次拒绝消耗一次尝试，最终走兜底
	primary := &fakeBackend{name: "qwen", texts: []string{validText}}
	fallback := &fakeBackend{name: "deepseek", texts: []string{validText}}
	registry := dependencies.NewAIRegistry([]dependencies.AIBackend{primary, fallback}, "qwen", "deepseek")
	similarity := &fakeSimilarityService{vector: []float64{1, 0}, maxScore: 0.7}

	fixture := newGeneratorFixture(t, registry, passingChecker(), similarity, defaultGenerationConfig())

	result, err := fixture.svc.Generate(context.Background(), 1, nil)
	require.NoError(t, err)

	// 主后端消耗满 maxRetries 次尝试后才轮到兜底
	assert.Len(t, primary.prompts, 2)
	assert.True(t, result.FromFallback)
	assert.True(t, result.SimilarityOver)
}

func TestGenerate_AllBackendsExhausted(t *testing.T) {
	primary := &fakeBackend{name: "qwen", genErr: errors.New("上游超时")}
	registry := dependencies.NewAIRegistry([]dependencies.AIBackend{primary}, "qwen", "")
	similarity := &fakeSimilarityService{}

	fixture := newGeneratorFixture(t, registry, passingChecker(), similarity, defaultGenerationConfig())

	_, err := fixture.svc.Generate(context.Background(), 1, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, myErrors.ErrAllBackendsExhausted))

	// 帖子带着最近错误进入 ACTION_REQUIRED
	last := fixture.postRepo.lastTransition()
	require.NotNil(t, last)
	assert.Equal(t, enums.StatusActionRequired, last.to)
	assert.Equal(t, "ALL_BACKENDS_EXHAUSTED", last.updates["last_error_code"])
	assert.NotEmpty(t, last.updates["last_error_message"])

	// 没有任何修订落库
	assert.Empty(t, fixture.revisions.revisions)
}

func TestGenerate_FixRetryEscalation(t *testing.T) {
	primary := &fakeBackend{name: "qwen", texts: []string{"只有一行的内容"}}
	registry := dependencies.NewAIRegistry([]dependencies.AIBackend{primary}, "qwen", "")
	similarity := &fakeSimilarityService{}

	fixture := newGeneratorFixture(t, registry, failingChecker(), similarity, defaultGenerationConfig())

	result, err := fixture.svc.Generate(context.Background(), 1, nil)
	require.NoError(t, err)
	require.NotNil(t, result)

	// 修复预算 1 次: 初稿 + 一次修正重试，第二次提示词里带修复指令
	require.Len(t, primary.prompts, 2)
	assert.NotContains(t, primary.prompts[0], "修复指令")
	assert.Contains(t, primary.prompts[1], "修复指令")

	// 末稿保留下来供人工修订，帖子升级 ACTION_REQUIRED 并写入校验错误
	require.Len(t, fixture.revisions.revisions, 1)
	assert.Equal(t, "只有一行的内容", fixture.revisions.revisions[0].Content)
	last := fixture.postRepo.lastTransition()
	require.NotNil(t, last)
	assert.Equal(t, enums.StatusActionRequired, last.to)
	assert.Equal(t, "VALIDATION_EXHAUSTED", last.updates["last_error_code"])
}

func TestGenerate_FixedTextShortCircuit(t *testing.T) {
	primary := &fakeBackend{name: "qwen", texts: []string{validText}}
	registry := dependencies.NewAIRegistry([]dependencies.AIBackend{primary}, "qwen", "")
	similarity := &fakeSimilarityService{}

	fixture := newGeneratorFixture(t, registry, passingChecker(), similarity, defaultGenerationConfig())
	template := &entities.ContentTemplate{FixedText: "固定的文案内容", Enabled: true}
	template.ID = 7
	fixture.templates.templates[7] = template

	result, err := fixture.svc.Generate(context.Background(), 1, &dto.GenerateOptions{TemplateID: 7})
	require.NoError(t, err)

	// 字面模板直通: 不走计划、不调后端、不做相似度比对
	assert.Equal(t, "固定的文案内容", result.Text)
	assert.Equal(t, "fixed", result.BackendUsed)
	assert.Equal(t, 0, fixture.planSvc.calls)
	assert.Empty(t, primary.prompts)
	assert.Empty(t, fixture.embeddings.stored)

	last := fixture.postRepo.lastTransition()
	require.NotNil(t, last)
	assert.Equal(t, enums.StatusPendingReview, last.to)
}

func TestGenerate_PlanOverrideWins(t *testing.T) {
	primary := &fakeBackend{name: "qwen", texts: []string{validText}}
	registry := dependencies.NewAIRegistry([]dependencies.AIBackend{primary}, "qwen", "")
	similarity := &fakeSimilarityService{vector: []float64{1, 0}, maxScore: 0.1}

	fixture := newGeneratorFixture(t, registry, passingChecker(), similarity, defaultGenerationConfig())

	override := lengthPlan(10, 30)
	override.Module = dto.PlanOption{Code: "question", Name: "提问互动"}

	_, err := fixture.svc.Generate(context.Background(), 1, &dto.GenerateOptions{PlanOverride: override})
	require.NoError(t, err)

	assert.Equal(t, 0, fixture.planSvc.calls)
	require.Len(t, fixture.revisions.revisions, 1)
	assert.Equal(t, "question", fixture.revisions.revisions[0].Params.ModuleCode)
}

func TestGenerate_BackendHintOverridesPrimary(t *testing.T) {
	primary := &fakeBackend{name: "qwen", texts: []string{validText}}
	other := &fakeBackend{name: "deepseek", texts: []string{validText}}
	registry := dependencies.NewAIRegistry([]dependencies.AIBackend{primary, other}, "qwen", "")
	similarity := &fakeSimilarityService{vector: []float64{1, 0}, maxScore: 0.1}

	fixture := newGeneratorFixture(t, registry, passingChecker(), similarity, defaultGenerationConfig())

	result, err := fixture.svc.Generate(context.Background(), 1, &dto.GenerateOptions{BackendHint: "deepseek"})
	require.NoError(t, err)
	assert.Equal(t, "deepseek", result.BackendUsed)
	assert.Empty(t, primary.prompts)

	// 未注册的后端标识直接报错
	_, err = fixture.svc.Generate(context.Background(), 1, &dto.GenerateOptions{BackendHint: "unknown"})
	assert.Error(t, err)
}

func TestTruncateError(t *testing.T) {
	assert.Equal(t, "短消息", truncateError("短消息"))

	// 中文错误信息按字符截断，不能把多字节字符拦腰斩断
	long := strings.Repeat("错", 600)
	truncated := truncateError(long)
	assert.Equal(t, 512, len([]rune(truncated)))
	assert.True(t, utf8.ValidString(truncated))
}
