package tasks

import (
	"context"
	"time"

	"github.com/Xushengqwer/go-common/core"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	appConfig "github.com/Xushengqwer/autopost_service/config"
	"github.com/Xushengqwer/autopost_service/constant"
	"github.com/Xushengqwer/autopost_service/mq/producer"
	"github.com/Xushengqwer/autopost_service/repo/mysql"
)

// 单轮恢复最多重新入队的帖子数，防止积压时一次性打爆后端。
const staleRecoveryBatch = 20

// StaleRecoveryTask 负责回收停留在 GENERATING 的僵死帖子。
// 崩溃的 worker 不会被取消，只是它的帖子在超过僵死窗口后被重新入队，
// 新的尝试循环从帖子行这个检查点恢复推进（刻意简单的至少一次语义，不做分布式锁）。
type StaleRecoveryTask struct {
	postRepo mysql.PostRepository
	kafkaSvc *producer.KafkaProducer
	cfg      appConfig.GenerationConfig
	cron     *cron.Cron
	logger   *core.ZapLogger
}

// NewStaleRecoveryTask 初始化并启动僵死恢复定时任务。
func NewStaleRecoveryTask(
	postRepo mysql.PostRepository,
	kafkaSvc *producer.KafkaProducer,
	cfg appConfig.GenerationConfig,
	logger *core.ZapLogger,
) *StaleRecoveryTask {
	task := &StaleRecoveryTask{
		postRepo: postRepo,
		kafkaSvc: kafkaSvc,
		cfg:      cfg,
		cron:     cron.New(),
		logger:   logger,
	}
	task.startCronJob()
	return task
}

// startCronJob 配置并启动 cron 作业。
func (t *StaleRecoveryTask) startCronJob() {
	schedule := constant.StaleRecoveryCron
	t.logger.Info("准备启动僵死帖子恢复定时任务", zap.String("schedule", schedule))

	entryID, err := t.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		t.recover(ctx)
	})
	if err != nil {
		t.logger.Fatal("添加僵死恢复 cron 作业失败", zap.Error(err), zap.String("schedule", schedule))
	}

	t.cron.Start()
	t.logger.Info("僵死帖子恢复定时任务已启动", zap.Uint("cronEntryID", uint(entryID)))
}

// recover 找出超过僵死窗口仍停留在 GENERATING 的帖子并重新入队。
func (t *StaleRecoveryTask) recover(ctx context.Context) {
	before := time.Now().Add(-time.Duration(t.cfg.StaleAfterMinutes) * time.Minute)
	posts, err := t.postRepo.ListStaleGenerating(ctx, before, staleRecoveryBatch)
	if err != nil {
		t.logger.Error("查询僵死帖子失败", zap.Error(err))
		return
	}
	if len(posts) == 0 {
		return
	}

	t.logger.Warn("发现僵死帖子，重新入队", zap.Int("count", len(posts)))
	for _, post := range posts {
		// 重新入队时不带覆盖参数，编排器会复用上一修订的生成参数
		if err := t.kafkaSvc.EnqueueGenerateJob(ctx, post.ID, 0, nil, ""); err != nil {
			t.logger.Error("僵死帖子重新入队失败",
				zap.Uint64("postID", post.ID), zap.Error(err))
		}
	}
}

// Stop 优雅地停止 cron 调度器。
func (t *StaleRecoveryTask) Stop() context.Context {
	t.logger.Info("正在停止僵死帖子恢复定时任务...")
	return t.cron.Stop()
}
