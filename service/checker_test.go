package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appConfig "github.com/Xushengqwer/autopost_service/config"
	"github.com/Xushengqwer/autopost_service/models/dto"
)

func checkerConfig() appConfig.CheckerConfig {
	return appConfig.CheckerConfig{
		MaxLineChars:     20,
		MaxEmoji:         1,
		JaccardThreshold: 0.6,
		RecentTexts:      10,
		BannedOpenings:   []string{"大家好", "作为一个"},
		BannedPhrases:    []string{"赋能", "家人们"},
		SoftEndings:      []string{"加油", "一切都会好的"},
	}
}

func lengthPlan(min, max int) *dto.Plan {
	return &dto.Plan{
		Module:   dto.PlanOption{Code: "observation", Name: "生活观察"},
		Outlet:   dto.PlanOption{Code: "detail", Name: "细节切入"},
		Tone:     dto.PlanOption{Code: "calm", Name: "平静"},
		Ending:   dto.PlanOption{Code: "abrupt", Name: "戛然而止"},
		Length:   dto.PlanOption{Code: "medium", Name: "中"},
		MinChars: min,
		MaxChars: max,
	}
}

// 16 个有效字符、两个非空行、无逗号的合规样例。
const validText = "今天路过楼下的面馆\n老板换了新招牌"

func TestCheck_ValidTextPasses(t *testing.T) {
	checker := NewPostChecker(checkerConfig())

	result := checker.Check(validText, lengthPlan(4, 20), nil)
	assert.True(t, result.Passed)
	assert.Empty(t, result.Issues)
	assert.Empty(t, result.RiskFlags)
	assert.Equal(t, 16, result.Metrics.ContentChars)
	assert.Equal(t, 2, result.Metrics.Lines)
}

func TestCheck_Idempotent(t *testing.T) {
	checker := NewPostChecker(checkerConfig())
	text := "大家好，今天聊聊赋能"

	first := checker.Check(text, lengthPlan(4, 20), nil)
	second := checker.Check(text, lengthPlan(4, 20), nil)
	assert.Equal(t, first, second)
}

func TestCheck_LengthBoundaries(t *testing.T) {
	checker := NewPostChecker(checkerConfig())

	// "abc\nde" 有效字符恰好 5 个
	text := "abc\nde"

	// 区间边界是含边界的可接受范围
	result := checker.Check(text, lengthPlan(5, 5), nil)
	assert.NotContains(t, result.RiskFlags, FlagTooShort)
	assert.NotContains(t, result.RiskFlags, FlagTooLong)

	result = checker.Check(text, lengthPlan(6, 10), nil)
	assert.Contains(t, result.RiskFlags, FlagTooShort)
	assert.False(t, result.Passed)

	result = checker.Check(text, lengthPlan(1, 4), nil)
	assert.Contains(t, result.RiskFlags, FlagTooLong)
}

func TestCheck_CommaVariants(t *testing.T) {
	checker := NewPostChecker(checkerConfig())

	for _, text := range []string{
		"全角逗号，在这里\n第二行",
		"half,width\nsecond",
		"顿号、也不行\n第二行",
	} {
		result := checker.Check(text, lengthPlan(1, 30), nil)
		assert.Contains(t, result.RiskFlags, FlagHasComma, "text=%q", text)
	}
}

func TestCheck_RequiresLineBreak(t *testing.T) {
	checker := NewPostChecker(checkerConfig())

	result := checker.Check("只有一行的内容在这里", lengthPlan(1, 30), nil)
	assert.Contains(t, result.RiskFlags, FlagNoLineBreak)
}

func TestCheck_LongLines(t *testing.T) {
	checker := NewPostChecker(checkerConfig())

	long := strings.Repeat("长", 21)
	result := checker.Check(long+"\n短行", lengthPlan(1, 60), nil)
	assert.Contains(t, result.RiskFlags, FlagLongLines)
}

func TestCheck_BannedOpening(t *testing.T) {
	checker := NewPostChecker(checkerConfig())

	result := checker.Check("第一行正常\n大家好今天继续", lengthPlan(1, 30), nil)
	assert.Contains(t, result.RiskFlags, FlagFirstPerson)
}

func TestCheck_BannedPhrase(t *testing.T) {
	checker := NewPostChecker(checkerConfig())

	result := checker.Check("这个产品很赋能\n家人们看过来", lengthPlan(1, 30), nil)
	assert.Contains(t, result.RiskFlags, FlagBannedPhrase)

	// 两个命中都应出现在问题描述里
	joined := strings.Join(result.Issues, " ")
	assert.Contains(t, joined, "赋能")
	assert.Contains(t, joined, "家人们")
}

func TestCheck_EmojiLimit(t *testing.T) {
	checker := NewPostChecker(checkerConfig())

	result := checker.Check("今天天气不错😀😀\n出门走了走", lengthPlan(1, 30), nil)
	assert.Contains(t, result.RiskFlags, FlagTooManyEmoji)
	assert.Equal(t, 2, result.Metrics.EmojiCount)

	result = checker.Check("今天天气不错😀\n出门走了走", lengthPlan(1, 30), nil)
	assert.NotContains(t, result.RiskFlags, FlagTooManyEmoji)
}

func TestCheck_JaccardSimilarity(t *testing.T) {
	checker := NewPostChecker(checkerConfig())

	text := "abcdefgh\nij"
	result := checker.Check(text, lengthPlan(1, 30), []string{"abcdefghij"})
	assert.Contains(t, result.RiskFlags, FlagTooSimilar)
	assert.InDelta(t, 1.0, result.Metrics.MaxJaccard, 1e-9)

	result = checker.Check(text, lengthPlan(1, 30), []string{"完全不同的内容"})
	assert.NotContains(t, result.RiskFlags, FlagTooSimilar)
}

func TestCheck_RequiredKeywords(t *testing.T) {
	cfg := checkerConfig()
	cfg.RequiredKeywords = []string{"面馆", "咖啡"}
	checker := NewPostChecker(cfg)

	result := checker.Check(validText, lengthPlan(4, 20), nil)
	assert.NotContains(t, result.RiskFlags, FlagOffTopic)

	result = checker.Check("写字楼的电梯坏了\n走楼梯上了八层", lengthPlan(4, 30), nil)
	assert.Contains(t, result.RiskFlags, FlagOffTopic)
}

func TestCheck_SoftEnding(t *testing.T) {
	checker := NewPostChecker(checkerConfig())

	result := checker.Check("这周过得很快\n大家加油", lengthPlan(1, 30), nil)
	assert.Contains(t, result.RiskFlags, FlagBadEnding)

	// 软性用语出现在非末行不算
	result = checker.Check("他喊了一声加油\n然后就走了", lengthPlan(1, 30), nil)
	assert.NotContains(t, result.RiskFlags, FlagBadEnding)
}

func TestCheck_CollectsAllIssues(t *testing.T) {
	checker := NewPostChecker(checkerConfig())

	// 单行 + 逗号 + 禁用短语 + 超长: 规则不短路，问题全部收集
	text := "大家好，家人们" + strings.Repeat("字", 30)
	result := checker.Check(text, lengthPlan(1, 10), nil)
	assert.False(t, result.Passed)
	assert.Contains(t, result.RiskFlags, FlagHasComma)
	assert.Contains(t, result.RiskFlags, FlagNoLineBreak)
	assert.Contains(t, result.RiskFlags, FlagBannedPhrase)
	assert.Contains(t, result.RiskFlags, FlagTooLong)
	assert.GreaterOrEqual(t, len(result.Issues), 4)
}

func TestBuildFixPrompt(t *testing.T) {
	checker := NewPostChecker(checkerConfig())

	result := checker.Check("大家好，今天继续", lengthPlan(1, 30), nil)
	require.False(t, result.Passed)

	prompt := checker.BuildFixPrompt(result)
	assert.Contains(t, prompt, "1. ")
	for _, issue := range result.Issues {
		assert.Contains(t, prompt, issue)
	}

	// 通过的结果不产生修复提示
	passed := checker.Check(validText, lengthPlan(4, 20), nil)
	require.True(t, passed.Passed)
	assert.Equal(t, "", checker.BuildFixPrompt(passed))
}
