package consumer

import (
	"context"
	"encoding/json"
	"testing"

	sharedConfig "github.com/Xushengqwer/go-common/config"
	"github.com/Xushengqwer/go-common/core"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xushengqwer/autopost_service/models/events"
	"github.com/Xushengqwer/autopost_service/repo/mysql"
)

func testLogger(t *testing.T) *core.ZapLogger {
	t.Helper()
	logger, err := core.NewZapLogger(sharedConfig.ZapConfig{})
	require.NoError(t, err)
	return logger
}

type statsCall struct {
	templateID             uint64
	trials, views, engaged int64
}

type fakeTemplateRepo struct {
	mysql.ContentTemplateRepository
	calls []statsCall
}

func (f *fakeTemplateRepo) AddEngagement(_ context.Context, id uint64, trials, views, engaged int64) error {
	f.calls = append(f.calls, statsCall{templateID: id, trials: trials, views: views, engaged: engaged})
	return nil
}

func statsMessage(t *testing.T, event events.EngagementStatsEvent) kafka.Message {
	t.Helper()
	value, err := json.Marshal(event)
	require.NoError(t, err)
	return kafka.Message{Value: value}
}

func TestEngagementStatsHandler_AccumulatesArmStats(t *testing.T) {
	repo := &fakeTemplateRepo{}
	handler := NewEngagementStatsHandler(testLogger(t), repo)

	// 臂统计只走这条消费路径: 首份同步带 trials=1，试验数随真实互动一起入账
	msg := statsMessage(t, events.EngagementStatsEvent{
		PostID:     11,
		TemplateID: 3,
		Trials:     1,
		Views:      500,
		Engaged:    40,
	})
	require.NoError(t, handler.Handle(context.Background(), msg))

	require.Len(t, repo.calls, 1)
	assert.Equal(t, uint64(3), repo.calls[0].templateID)
	assert.Equal(t, int64(1), repo.calls[0].trials)
	assert.Equal(t, int64(500), repo.calls[0].views)
	assert.Equal(t, int64(40), repo.calls[0].engaged)

	// 后续增量同步 trials=0，不重复计入试验
	msg = statsMessage(t, events.EngagementStatsEvent{
		PostID:     11,
		TemplateID: 3,
		Views:      120,
		Engaged:    8,
	})
	require.NoError(t, handler.Handle(context.Background(), msg))
	require.Len(t, repo.calls, 2)
	assert.Equal(t, int64(0), repo.calls[1].trials)
}

func TestEngagementStatsHandler_SkipsUnlinkedPost(t *testing.T) {
	repo := &fakeTemplateRepo{}
	handler := NewEngagementStatsHandler(testLogger(t), repo)

	// 人工帖子没有关联臂，统计不落库
	msg := statsMessage(t, events.EngagementStatsEvent{PostID: 12, Views: 100})
	require.NoError(t, handler.Handle(context.Background(), msg))
	assert.Empty(t, repo.calls)
}

func TestEngagementStatsHandler_DropsMalformedMessage(t *testing.T) {
	repo := &fakeTemplateRepo{}
	handler := NewEngagementStatsHandler(testLogger(t), repo)

	// 坏消息不可恢复，直接丢弃而不是无限重投
	err := handler.Handle(context.Background(), kafka.Message{Value: []byte("not-json")})
	require.NoError(t, err)
	assert.Empty(t, repo.calls)
}
