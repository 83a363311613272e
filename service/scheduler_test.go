package service

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appConfig "github.com/Xushengqwer/autopost_service/config"
	"github.com/Xushengqwer/autopost_service/models/entities"
	"github.com/Xushengqwer/autopost_service/myErrors"
)

func newTestScheduler(cfg appConfig.SchedulerConfig) *banditScheduler {
	return &banditScheduler{
		cfg: cfg,
		rng: rand.New(rand.NewSource(42)),
	}
}

func armWithStats(id uint64, trials, views, engaged int64) *entities.ContentTemplate {
	arm := &entities.ContentTemplate{
		Enabled: true,
		Trials:  trials,
		Views:   views,
		Engaged: engaged,
	}
	arm.ID = id
	return arm
}

func TestSelectArm_ForcedExplorationBeatsAnyReward(t *testing.T) {
	scheduler := newTestScheduler(appConfig.SchedulerConfig{
		ExplorationFactor: 2.0,
		MinTrialsPerArm:   3,
	})

	// 饱和臂表现完美（平均互动率 1.0），数据不足的臂依然必须胜出
	pool := []*entities.ContentTemplate{
		armWithStats(1, 100, 1000, 1000),
		armWithStats(2, 100, 1000, 1000),
		armWithStats(3, 2, 10, 0), // 试验数低于下限
	}

	for i := 0; i < 50; i++ {
		decision := scheduler.SelectArm(pool, 202, 1)
		require.NotNil(t, decision)
		assert.Equal(t, uint64(3), decision.Template.ID)
		assert.True(t, decision.IsExploration)
		assert.GreaterOrEqual(t, decision.Score, forcedExplorationBase)
		assert.Less(t, decision.Score, forcedExplorationBase+forcedExplorationRange)
	}
}

func TestSelectArm_ColdStart(t *testing.T) {
	scheduler := newTestScheduler(appConfig.SchedulerConfig{
		ExplorationFactor: 2.0,
		MinTrialsPerArm:   0,
	})

	pool := []*entities.ContentTemplate{
		armWithStats(1, 0, 0, 0),
		armWithStats(2, 0, 0, 0),
	}

	decision := scheduler.SelectArm(pool, 0, 1)
	require.NotNil(t, decision)
	assert.True(t, decision.IsExploration)
	assert.Less(t, decision.Score, 0.01)
}

func TestSelectArm_UCBPrefersHigherReward(t *testing.T) {
	scheduler := newTestScheduler(appConfig.SchedulerConfig{
		ExplorationFactor: 0.5,
		MinTrialsPerArm:   1,
	})

	// 试验数相同，探索项相等，平均互动率高者得
	pool := []*entities.ContentTemplate{
		armWithStats(1, 50, 1000, 100), // 0.1
		armWithStats(2, 50, 1000, 400), // 0.4
	}

	decision := scheduler.SelectArm(pool, 100, 1)
	require.NotNil(t, decision)
	assert.Equal(t, uint64(2), decision.Template.ID)
	assert.False(t, decision.IsExploration)
}

func TestSelectArm_WeekdayGating(t *testing.T) {
	scheduler := newTestScheduler(appConfig.SchedulerConfig{
		ExplorationFactor: 2.0,
		MinTrialsPerArm:   1,
	})

	mondayOnly := armWithStats(1, 10, 100, 50)
	mondayOnly.ActiveWeekdays = []int{1}
	everyDay := armWithStats(2, 10, 100, 10)

	// 周二: 仅周一可投的臂不参选
	decision := scheduler.SelectArm([]*entities.ContentTemplate{mondayOnly, everyDay}, 20, 2)
	require.NotNil(t, decision)
	assert.Equal(t, uint64(2), decision.Template.ID)

	// 全部臂都不可投时返回 nil（"今天不投"）
	decision = scheduler.SelectArm([]*entities.ContentTemplate{mondayOnly}, 20, 5)
	assert.Nil(t, decision)
}

func TestSelectArm_SkipsDisabled(t *testing.T) {
	scheduler := newTestScheduler(appConfig.SchedulerConfig{
		ExplorationFactor: 2.0,
		MinTrialsPerArm:   1,
	})

	disabled := armWithStats(1, 10, 100, 100)
	disabled.Enabled = false
	enabled := armWithStats(2, 10, 100, 1)

	decision := scheduler.SelectArm([]*entities.ContentTemplate{disabled, enabled}, 20, 1)
	require.NotNil(t, decision)
	assert.Equal(t, uint64(2), decision.Template.ID)
}

func TestInternalWeekday(t *testing.T) {
	// 2026-08-24 是周一，2026-08-30 是周日
	monday := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	sunday := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 1, internalWeekday(monday))
	assert.Equal(t, 7, internalWeekday(sunday))
	assert.Equal(t, 6, internalWeekday(monday.AddDate(0, 0, 5)))
}

func TestParseWindowClock(t *testing.T) {
	hour, minute, err := parseWindowClock("19:30")
	require.NoError(t, err)
	assert.Equal(t, 19, hour)
	assert.Equal(t, 30, minute)

	_, _, err = parseWindowClock("25:00")
	assert.Error(t, err)
	_, _, err = parseWindowClock("abc")
	assert.Error(t, err)
}

func TestDrawScheduledAt_WithinWindow(t *testing.T) {
	scheduler := newTestScheduler(appConfig.SchedulerConfig{
		WindowStart:    "19:30",
		WindowEnd:      "22:30",
		UTCOffsetHours: 8,
	})

	loc := scheduler.location()
	day := time.Date(2026, 8, 24, 0, 0, 0, 0, loc)
	start := time.Date(2026, 8, 24, 19, 30, 0, 0, loc)
	end := time.Date(2026, 8, 24, 22, 30, 0, 0, loc)

	for i := 0; i < 20; i++ {
		scheduledAt, err := scheduler.drawScheduledAt(day)
		require.NoError(t, err)
		assert.False(t, scheduledAt.Before(start))
		assert.True(t, scheduledAt.Before(end))
	}
}

func TestDrawScheduledAt_EmptyWindow(t *testing.T) {
	scheduler := newTestScheduler(appConfig.SchedulerConfig{
		WindowStart:    "22:30",
		WindowEnd:      "19:30",
		UTCOffsetHours: 8,
	})

	_, err := scheduler.drawScheduledAt(time.Date(2026, 8, 24, 0, 0, 0, 0, scheduler.location()))
	assert.Error(t, err)
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, clamp01(-0.5))
	assert.Equal(t, 0.5, clamp01(0.5))
	assert.Equal(t, 1.0, clamp01(1.5))
}

func TestScheduleDaily_NoEligibleArm(t *testing.T) {
	scheduler := &banditScheduler{
		templateRepo: &fakeTemplateRepo{templates: map[uint64]*entities.ContentTemplate{}},
		decisionRepo: &fakeDecisionRepo{},
		cfg: appConfig.SchedulerConfig{
			PostsPerDay:     1,
			MinTrialsPerArm: 3,
		},
		rng:    rand.New(rand.NewSource(42)),
		logger: testLogger(t),
	}

	// 空臂池不是故障，但要以哨兵错误告知调用方"今天不投"
	err := scheduler.ScheduleDaily(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, myErrors.ErrNoEligibleArm))
}
