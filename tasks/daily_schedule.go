package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/Xushengqwer/go-common/core"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Xushengqwer/autopost_service/constant"
	"github.com/Xushengqwer/autopost_service/myErrors"
	"github.com/Xushengqwer/autopost_service/service"
)

// DailyScheduleTask 负责按固定节奏触发每日排期周期。
// 周期本身不做并发保护: {schedule_date, slot} 唯一约束保证重复触发幂等。
type DailyScheduleTask struct {
	scheduler service.BanditScheduler
	cron      *cron.Cron
	logger    *core.ZapLogger
}

// NewDailyScheduleTask 初始化并启动每日排期定时任务。
func NewDailyScheduleTask(scheduler service.BanditScheduler, logger *core.ZapLogger) *DailyScheduleTask {
	task := &DailyScheduleTask{
		scheduler: scheduler,
		cron:      cron.New(),
		logger:    logger,
	}
	task.startCronJob()
	return task
}

// startCronJob 配置并启动 cron 作业。
func (t *DailyScheduleTask) startCronJob() {
	schedule := constant.DailyScheduleCron
	t.logger.Info("准备启动每日排期定时任务", zap.String("schedule", schedule))

	entryID, err := t.cron.AddFunc(schedule, func() {
		t.logger.Info("每日排期周期开始执行...")
		startTime := time.Now()

		// 排期含计划解析与任务投递，给足超时余量
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		if err := t.scheduler.ScheduleDaily(ctx); err != nil {
			if errors.Is(err, myErrors.ErrNoEligibleArm) {
				t.logger.Info("当天没有可投放的臂，排期周期空转")
			} else {
				t.logger.Error("每日排期周期执行失败", zap.Error(err))
			}
		}

		t.logger.Info("每日排期周期执行完毕", zap.Duration("duration", time.Since(startTime)))
	})
	if err != nil {
		t.logger.Fatal("添加每日排期 cron 作业失败", zap.Error(err), zap.String("schedule", schedule))
	}

	t.cron.Start()
	t.logger.Info("每日排期定时任务已启动", zap.Uint("cronEntryID", uint(entryID)))
}

// Stop 优雅地停止 cron 调度器，返回的 context 在存量任务跑完后关闭。
func (t *DailyScheduleTask) Stop() context.Context {
	t.logger.Info("正在停止每日排期定时任务...")
	return t.cron.Stop()
}
