package service

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/Xushengqwer/go-common/commonerrors"
	sharedConfig "github.com/Xushengqwer/go-common/config"
	"github.com/Xushengqwer/go-common/core"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	gormMysql "gorm.io/driver/mysql"

	"github.com/Xushengqwer/autopost_service/models/dto"
	"github.com/Xushengqwer/autopost_service/models/entities"
	"github.com/Xushengqwer/autopost_service/models/enums"
	"github.com/Xushengqwer/autopost_service/myErrors"
	"github.com/Xushengqwer/autopost_service/repo/mysql"
	redisRepo "github.com/Xushengqwer/autopost_service/repo/redis"
)

// testLogger 构造测试用的 ZapLogger。
func testLogger(t *testing.T) *core.ZapLogger {
	t.Helper()
	logger, err := core.NewZapLogger(sharedConfig.ZapConfig{})
	require.NoError(t, err)
	return logger
}

// --- 无操作 SQL 驱动 ---
// 服务层测试里仓库全部是假实现，事务只需要 Begin/Commit 能走通，
// 不需要任何真实 SQL 执行。

type nopTx struct{}

func (nopTx) Commit() error   { return nil }
func (nopTx) Rollback() error { return nil }

type nopConn struct{}

func (nopConn) Prepare(string) (driver.Stmt, error) { return nil, driver.ErrSkip }
func (nopConn) Close() error                        { return nil }
func (nopConn) Begin() (driver.Tx, error)           { return nopTx{}, nil }

type nopConnector struct{}

func (nopConnector) Connect(context.Context) (driver.Conn, error) { return nopConn{}, nil }
func (nopConnector) Driver() driver.Driver                        { return nopDriver{} }

type nopDriver struct{}

func (nopDriver) Open(string) (driver.Conn, error) { return nopConn{}, nil }

// testDB 构造一个能走通事务回调但不执行任何 SQL 的 *gorm.DB。
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	sqlDB := sql.OpenDB(nopConnector{})
	db, err := gorm.Open(gormMysql.New(gormMysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		DisableAutomaticPing: true,
	})
	require.NoError(t, err)
	return db
}

// --- 仓库与服务的假实现 ---
// 嵌入接口只覆盖被测路径用到的方法，未覆盖的方法被调用时直接空指针崩溃，
// 测试会立刻暴露出意料之外的调用。

type statusTransition struct {
	from    enums.PostStatus
	to      enums.PostStatus
	updates map[string]interface{}
}

type fakePostRepo struct {
	mysql.PostRepository
	post        *entities.Post
	transitions []statusTransition
	usage       map[string]int64
}

func (f *fakePostRepo) GetPostByID(_ context.Context, id uint64) (*entities.Post, error) {
	if f.post == nil || f.post.ID != id {
		return nil, commonerrors.ErrRepoNotFound
	}
	return f.post, nil
}

func (f *fakePostRepo) TransitionStatus(_ context.Context, _ *gorm.DB, _ uint64, from, to enums.PostStatus, updates map[string]interface{}) error {
	if !from.CanTransitionTo(to) {
		return myErrors.ErrInvalidTransition
	}
	f.transitions = append(f.transitions, statusTransition{from: from, to: to, updates: updates})
	f.post.Status = to
	return nil
}

func (f *fakePostRepo) lastTransition() *statusTransition {
	if len(f.transitions) == 0 {
		return nil
	}
	return &f.transitions[len(f.transitions)-1]
}

type fakeRevisionRepo struct {
	mysql.PostRevisionRepository
	revisions []*entities.PostRevision
}

func (f *fakeRevisionRepo) CreateNextRevision(_ context.Context, _ *gorm.DB, revision *entities.PostRevision) error {
	revision.ID = uint64(len(f.revisions) + 1)
	revision.RevisionNo = len(f.revisions) + 1
	f.revisions = append(f.revisions, revision)
	return nil
}

func (f *fakeRevisionRepo) GetLatestRevision(_ context.Context, postID uint64) (*entities.PostRevision, error) {
	var latest *entities.PostRevision
	for _, revision := range f.revisions {
		if revision.PostID == postID && (latest == nil || revision.RevisionNo > latest.RevisionNo) {
			latest = revision
		}
	}
	if latest == nil {
		return nil, commonerrors.ErrRepoNotFound
	}
	return latest, nil
}

type fakeEmbeddingRepo struct {
	mysql.PostEmbeddingRepository
	recent []*entities.PostEmbedding
	stored []*entities.PostEmbedding
}

func (f *fakeEmbeddingRepo) Upsert(_ context.Context, _ *gorm.DB, embedding *entities.PostEmbedding) error {
	for i, existing := range f.stored {
		if existing.PostID == embedding.PostID {
			f.stored[i] = embedding
			return nil
		}
	}
	f.stored = append(f.stored, embedding)
	return nil
}

func (f *fakeEmbeddingRepo) ListRecent(_ context.Context, n int) ([]*entities.PostEmbedding, error) {
	if len(f.recent) > n {
		return f.recent[:n], nil
	}
	return f.recent, nil
}

type fakeTemplateRepo struct {
	mysql.ContentTemplateRepository
	templates map[uint64]*entities.ContentTemplate
}

func (f *fakeTemplateRepo) GetByID(_ context.Context, id uint64) (*entities.ContentTemplate, error) {
	template, ok := f.templates[id]
	if !ok {
		return nil, commonerrors.ErrRepoNotFound
	}
	return template, nil
}

func (f *fakeTemplateRepo) ListEnabled(_ context.Context) ([]*entities.ContentTemplate, error) {
	var enabled []*entities.ContentTemplate
	for _, template := range f.templates {
		if template.Enabled {
			enabled = append(enabled, template)
		}
	}
	return enabled, nil
}

func (f *fakeTemplateRepo) TotalTrials(_ context.Context) (int64, error) {
	var total int64
	for _, template := range f.templates {
		if template.Enabled {
			total += template.Trials
		}
	}
	return total, nil
}

type fakeDecisionRepo struct {
	mysql.BanditDecisionRepository
	occupied int64
}

func (f *fakeDecisionRepo) CountForDate(_ context.Context, _ time.Time) (int64, error) {
	return f.occupied, nil
}

type fakeOptionRepo struct {
	mysql.DimensionOptionRepository
	byType map[enums.DimensionType][]*entities.DimensionOption
}

func (f *fakeOptionRepo) ListEnabledByType(_ context.Context, dim enums.DimensionType) ([]*entities.DimensionOption, error) {
	return f.byType[dim], nil
}

func (f *fakeOptionRepo) ListAll(_ context.Context) ([]*entities.DimensionOption, error) {
	var all []*entities.DimensionOption
	for _, options := range f.byType {
		all = append(all, options...)
	}
	return all, nil
}

type fakeUsageCache struct {
	redisRepo.UsageCacheRepository
	usage map[enums.DimensionType]map[string]int64
}

func (f *fakeUsageCache) Get(_ context.Context, dim enums.DimensionType) (map[string]int64, error) {
	if usage, ok := f.usage[dim]; ok {
		return usage, nil
	}
	return map[string]int64{}, nil
}

func (f *fakeUsageCache) Set(_ context.Context, _ enums.DimensionType, _ map[string]int64) error {
	return nil
}

type fakeRecentTexts struct {
	redisRepo.RecentTextRepository
	texts []string
}

func (f *fakeRecentTexts) Recent(_ context.Context, n int) ([]string, error) {
	if len(f.texts) > n {
		return f.texts[:n], nil
	}
	return f.texts, nil
}

type fakePlanService struct {
	plan  *dto.Plan
	calls int
}

func (f *fakePlanService) SelectOption(context.Context, enums.DimensionType, string) (*dto.PlanOption, *entities.DimensionOption, error) {
	panic("SelectOption 不应被调用")
}

func (f *fakePlanService) BuildPlan(context.Context) (*dto.Plan, error) {
	f.calls++
	return f.plan, nil
}

type fakeSimilarityService struct {
	vector   []float64
	maxScore float64
	hits     []entities.SimilarityHit
	err      error
}

func (f *fakeSimilarityService) CheckText(context.Context, string) ([]float64, float64, []entities.SimilarityHit, error) {
	return f.vector, f.maxScore, f.hits, f.err
}

func (f *fakeSimilarityService) EmbedderName() string { return "embed-test" }

type reviewRequest struct {
	postID            uint64
	revisionID        uint64
	similarityFlagged bool
	maxSimilarity     float64
}

type fakeReviewService struct {
	ReviewService
	requests []reviewRequest
}

func (f *fakeReviewService) RequestReview(_ context.Context, postID, revisionID uint64, _ string, similarityFlagged bool, maxSimilarity float64) error {
	f.requests = append(f.requests, reviewRequest{
		postID:            postID,
		revisionID:        revisionID,
		similarityFlagged: similarityFlagged,
		maxSimilarity:     maxSimilarity,
	})
	return nil
}

// fakeBackend 可编程的生成后端。
type fakeBackend struct {
	name       string
	texts      []string
	genErr     error
	embedding  []float64
	embedErr   error
	prompts    []string
	generation int
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) Generate(_ context.Context, prompt, _ string, _ int) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.genErr != nil {
		return "", f.genErr
	}
	text := f.texts[f.generation%len(f.texts)]
	f.generation++
	return text, nil
}

func (f *fakeBackend) Embed(_ context.Context, _ string) ([]float64, error) {
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	return f.embedding, nil
}
