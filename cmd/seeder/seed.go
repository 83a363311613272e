package main

import (
	"context"
	"fmt"

	"github.com/Xushengqwer/go-common/core"
	"github.com/brianvoe/gofakeit/v6"
	"go.uber.org/zap"

	"github.com/Xushengqwer/autopost_service/models/entities"
	"github.com/Xushengqwer/autopost_service/models/enums"
	"github.com/Xushengqwer/autopost_service/repo/mysql"
)

// catalogSeed 六个维度的基础目录。权重是目标使用占比，计划选择器据此做加权抽取。
var catalogSeed = []entities.DimensionOption{
	// 模块
	{DimensionType: enums.DimensionModule, Code: "observation", Name: "生活观察", Weight: 0.35, Enabled: true},
	{DimensionType: enums.DimensionModule, Code: "reflection", Name: "个人感悟", Weight: 0.30, Enabled: true},
	{DimensionType: enums.DimensionModule, Code: "recommendation", Name: "好物推荐", Weight: 0.20, Enabled: true},
	{DimensionType: enums.DimensionModule, Code: "question", Name: "提问互动", Weight: 0.15, Enabled: true},

	// 场景（可选维度）
	{DimensionType: enums.DimensionScenario, Code: "commute", Name: "通勤路上", Weight: 0.30, Enabled: true},
	{DimensionType: enums.DimensionScenario, Code: "late_night", Name: "深夜独处", Weight: 0.25, Enabled: true},
	{DimensionType: enums.DimensionScenario, Code: "weekend", Name: "周末闲暇", Weight: 0.25, Enabled: true,
		CompatibleModules: []string{"observation", "recommendation"}},
	{DimensionType: enums.DimensionScenario, Code: "workday", Name: "工作间隙", Weight: 0.20, Enabled: true},

	// 切入角度
	{DimensionType: enums.DimensionOutlet, Code: "detail", Name: "细节切入", Weight: 0.40, Enabled: true},
	{DimensionType: enums.DimensionOutlet, Code: "contrast", Name: "对比切入", Weight: 0.30, Enabled: true,
		CompatibleModules: []string{"observation", "reflection"}},
	{DimensionType: enums.DimensionOutlet, Code: "story", Name: "小故事切入", Weight: 0.30, Enabled: true},

	// 语气
	{DimensionType: enums.DimensionTone, Code: "calm", Name: "平静", Weight: 0.40, Enabled: true},
	{DimensionType: enums.DimensionTone, Code: "playful", Name: "俏皮", Weight: 0.35, Enabled: true},
	{DimensionType: enums.DimensionTone, Code: "wry", Name: "自嘲", Weight: 0.25, Enabled: true},

	// 结尾方式
	{DimensionType: enums.DimensionEnding, Code: "abrupt", Name: "戛然而止", Weight: 0.50, Enabled: true},
	{DimensionType: enums.DimensionEnding, Code: "question", Name: "抛出问题", Weight: 0.30, Enabled: true},
	{DimensionType: enums.DimensionEnding, Code: "echo", Name: "首尾呼应", Weight: 0.20, Enabled: true},

	// 篇幅
	{DimensionType: enums.DimensionLength, Code: "short", Name: "短", Weight: 0.30, Enabled: true, MinChars: 30, MaxChars: 60},
	{DimensionType: enums.DimensionLength, Code: "medium", Name: "中", Weight: 0.50, Enabled: true, MinChars: 60, MaxChars: 120},
	{DimensionType: enums.DimensionLength, Code: "long", Name: "长", Weight: 0.20, Enabled: true, MinChars: 120, MaxChars: 200},
}

var promptHints = []string{
	"偏重画面感，多写具体物件和光线",
	"克制一点，少形容词，短句为主",
	"允许一点自嘲，但不要刻意卖惨",
	"像跟熟人随口聊起，不要总结",
	"",
}

// Seed 填充维度目录与内容模板。目录项固定，模板部分随机生成，
// 并额外插入一条固定文案臂用于验证短路流程。
func Seed(
	ctx context.Context,
	optionRepo mysql.DimensionOptionRepository,
	templateRepo mysql.ContentTemplateRepository,
	logger *core.ZapLogger,
	numTemplates int,
) {
	logger.Info("开始填充维度目录...", zap.Int("数量", len(catalogSeed)))
	for i := range catalogSeed {
		option := catalogSeed[i]
		if err := optionRepo.Create(ctx, &option); err != nil {
			logger.Error("创建维度选项失败",
				zap.Error(err),
				zap.String("dimension", string(option.DimensionType)),
				zap.String("code", option.Code))
		}
	}
	logger.Info("维度目录填充完毕。")

	logger.Info("开始填充内容模板...", zap.Int("数量", numTemplates))
	for i := 0; i < numTemplates; i++ {
		weekdays := []int{}
		if gofakeit.Bool() {
			// 随机收窄投放日，留一部分全周可投的臂
			for d := 1; d <= 7; d++ {
				if gofakeit.Bool() {
					weekdays = append(weekdays, d)
				}
			}
		}

		template := &entities.ContentTemplate{
			Name:           fmt.Sprintf("%s风格-%d", gofakeit.AdjectiveDescriptive(), i+1),
			Enabled:        true,
			PromptHint:     promptHints[i%len(promptHints)],
			ActiveWeekdays: weekdays,
		}
		if err := templateRepo.Create(ctx, template); err != nil {
			logger.Error("创建内容模板失败", zap.Error(err), zap.String("name", template.Name))
		} else {
			logger.Info("成功创建内容模板",
				zap.Uint64("template_id", template.ID),
				zap.String("name", template.Name))
		}
	}

	// 固定文案臂：命中时跳过计划与生成，直接进入审核
	fixed := &entities.ContentTemplate{
		Name:           "周五固定文案",
		Enabled:        true,
		FixedText:      "又到周五了。这周过得比想象中快，也比想象中慢。",
		ActiveWeekdays: []int{5},
	}
	if err := templateRepo.Create(ctx, fixed); err != nil {
		logger.Error("创建固定文案模板失败", zap.Error(err))
	}
	logger.Info("内容模板填充完毕。")
}
