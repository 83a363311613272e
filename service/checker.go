package service

import (
	"fmt"
	"strings"
	"unicode"

	appConfig "github.com/Xushengqwer/autopost_service/config"
	"github.com/Xushengqwer/autopost_service/models/dto"
)

// CheckMetrics 记录一次校验过程中统计到的量化指标。
type CheckMetrics struct {
	ContentChars int     `json:"contentChars"` // 仅计入文字与数字的有效字符数
	Lines        int     `json:"lines"`        // 非空行数
	EmojiCount   int     `json:"emojiCount"`   // 图形符号数量
	MaxJaccard   float64 `json:"maxJaccard"`   // 与近期文案的最大字符集 Jaccard 相似度
}

// CheckResult 是一次结构校验的完整结论。
// Issues 面向修复提示（人话描述），RiskFlags 面向程序判断（固定代码）。
type CheckResult struct {
	Passed      bool         `json:"passed"`
	Issues      []string     `json:"issues"`
	RiskFlags   []string     `json:"riskFlags"`
	Metrics     CheckMetrics `json:"metrics"`
	Suggestions []string     `json:"suggestions"`
}

// 结构校验的风险代码。
const (
	FlagTooShort     = "TOO_SHORT"
	FlagTooLong      = "TOO_LONG"
	FlagHasComma     = "HAS_COMMA"
	FlagNoLineBreak  = "NO_LINE_BREAK"
	FlagLongLines    = "LONG_LINES"
	FlagFirstPerson  = "FIRST_PERSON"
	FlagBannedPhrase = "BANNED_PHRASE"
	FlagTooManyEmoji = "TOO_MANY_EMOJI"
	FlagTooSimilar   = "TOO_SIMILAR"
	FlagOffTopic     = "OFF_TOPIC"
	FlagBadEnding    = "BAD_ENDING"
)

// PostChecker 定义了对生成文本做确定性结构校验的接口。
// 所有规则相互独立且全部执行，不因前置规则失败而短路，
// 以便一次性收集全部问题供修复提示使用。
type PostChecker interface {
	// Check 对候选文本执行全部结构规则。
	Check(text string, plan *dto.Plan, recentTexts []string) *CheckResult

	// BuildFixPrompt 把校验结论渲染成修复指令，追加到下一次生成的提示词中。
	BuildFixPrompt(result *CheckResult) string
}

// postChecker 是 PostChecker 接口的具体实现。
// 纯函数式，不持有任何跨调用状态。
type postChecker struct {
	cfg appConfig.CheckerConfig
}

// NewPostChecker 是 postChecker 的构造函数。
func NewPostChecker(cfg appConfig.CheckerConfig) PostChecker {
	return &postChecker{cfg: cfg}
}

// commaRunes 逗号类分隔符，全角/半角/顿号一律禁止。
var commaRunes = []rune{'，', ',', '、'}

func (c *postChecker) Check(text string, plan *dto.Plan, recentTexts []string) *CheckResult {
	result := &CheckResult{
		Issues:      make([]string, 0, 4),
		RiskFlags:   make([]string, 0, 4),
		Suggestions: make([]string, 0, 4),
	}

	lines := nonEmptyLines(text)
	result.Metrics.Lines = len(lines)

	// 规则 1: 有效字符数落在方案的 [min, max] 区间内。
	// 只数文字和数字，空白/标点/图形符号不计入。
	contentChars := countContentChars(text)
	result.Metrics.ContentChars = contentChars
	if contentChars < plan.MinChars {
		result.RiskFlags = append(result.RiskFlags, FlagTooShort)
		result.Issues = append(result.Issues, fmt.Sprintf("正文有效字符 %d 个，少于下限 %d", contentChars, plan.MinChars))
		result.Suggestions = append(result.Suggestions, fmt.Sprintf("扩充内容，使有效字符数不少于 %d", plan.MinChars))
	} else if contentChars > plan.MaxChars {
		result.RiskFlags = append(result.RiskFlags, FlagTooLong)
		result.Issues = append(result.Issues, fmt.Sprintf("正文有效字符 %d 个，超过上限 %d", contentChars, plan.MaxChars))
		result.Suggestions = append(result.Suggestions, fmt.Sprintf("精简内容，使有效字符数不超过 %d", plan.MaxChars))
	}

	// 规则 2: 不允许出现逗号类分隔符
	for _, r := range commaRunes {
		if strings.ContainsRune(text, r) {
			result.RiskFlags = append(result.RiskFlags, FlagHasComma)
			result.Issues = append(result.Issues, fmt.Sprintf("正文包含禁用的分隔符 %q", string(r)))
			result.Suggestions = append(result.Suggestions, "用换行或句号代替逗号和顿号")
			break
		}
	}

	// 规则 3: 至少两个非空行
	if len(lines) < 2 {
		result.RiskFlags = append(result.RiskFlags, FlagNoLineBreak)
		result.Issues = append(result.Issues, "正文没有换行，至少需要两个非空行")
		result.Suggestions = append(result.Suggestions, "把内容拆成多行短句")
	}

	// 规则 4: 单行长度不超过预算
	for _, line := range lines {
		if len([]rune(line)) > c.cfg.MaxLineChars {
			result.RiskFlags = append(result.RiskFlags, FlagLongLines)
			result.Issues = append(result.Issues, fmt.Sprintf("存在超过 %d 字符的行", c.cfg.MaxLineChars))
			result.Suggestions = append(result.Suggestions, fmt.Sprintf("每行不超过 %d 个字符", c.cfg.MaxLineChars))
			break
		}
	}

	// 规则 5: 禁止第一人称/自指句首
	for _, line := range lines {
		trimmed := strings.TrimLeftFunc(line, unicode.IsSpace)
		matched := ""
		for _, opening := range c.cfg.BannedOpenings {
			if opening != "" && strings.HasPrefix(trimmed, opening) {
				matched = opening
				break
			}
		}
		if matched != "" {
			result.RiskFlags = append(result.RiskFlags, FlagFirstPerson)
			result.Issues = append(result.Issues, fmt.Sprintf("存在以 %q 开头的句子", matched))
			result.Suggestions = append(result.Suggestions, "去掉第一人称和自指开头，直接陈述内容")
			break
		}
	}

	// 规则 6: 禁用短语，列出全部命中
	matchedPhrases := make([]string, 0)
	for _, phrase := range c.cfg.BannedPhrases {
		if phrase != "" && strings.Contains(text, phrase) {
			matchedPhrases = append(matchedPhrases, phrase)
		}
	}
	if len(matchedPhrases) > 0 {
		result.RiskFlags = append(result.RiskFlags, FlagBannedPhrase)
		result.Issues = append(result.Issues, fmt.Sprintf("正文包含禁用短语: %s", strings.Join(matchedPhrases, "、")))
		result.Suggestions = append(result.Suggestions, "删除或替换上述禁用短语")
	}

	// 规则 7: 图形符号数量上限
	emojiCount := countEmoji(text)
	result.Metrics.EmojiCount = emojiCount
	if emojiCount > c.cfg.MaxEmoji {
		result.RiskFlags = append(result.RiskFlags, FlagTooManyEmoji)
		result.Issues = append(result.Issues, fmt.Sprintf("图形符号 %d 个，超过上限 %d", emojiCount, c.cfg.MaxEmoji))
		result.Suggestions = append(result.Suggestions, fmt.Sprintf("图形符号不超过 %d 个", c.cfg.MaxEmoji))
	}

	// 规则 8: 与近期文案的字符集 Jaccard 相似度。
	// 这是结构层面的查重兜底，与语义向量查重各自独立。
	compare := recentTexts
	if c.cfg.RecentTexts > 0 && len(compare) > c.cfg.RecentTexts {
		compare = compare[:c.cfg.RecentTexts]
	}
	var maxJaccard float64
	for _, recent := range compare {
		if score := charSetJaccard(text, recent); score > maxJaccard {
			maxJaccard = score
		}
	}
	result.Metrics.MaxJaccard = maxJaccard
	if maxJaccard > c.cfg.JaccardThreshold {
		result.RiskFlags = append(result.RiskFlags, FlagTooSimilar)
		result.Issues = append(result.Issues, fmt.Sprintf("与近期文案字符重合度 %.2f，超过阈值 %.2f", maxJaccard, c.cfg.JaccardThreshold))
		result.Suggestions = append(result.Suggestions, "换一个切入角度和用词，避免与近期内容雷同")
	}

	// 规则 9: 主题关键词至少命中一个
	if len(c.cfg.RequiredKeywords) > 0 {
		hit := false
		for _, keyword := range c.cfg.RequiredKeywords {
			if keyword != "" && strings.Contains(text, keyword) {
				hit = true
				break
			}
		}
		if !hit {
			result.RiskFlags = append(result.RiskFlags, FlagOffTopic)
			result.Issues = append(result.Issues, "正文未包含任何主题关键词")
			result.Suggestions = append(result.Suggestions, fmt.Sprintf("内容需要围绕主题，包含以下关键词之一: %s", strings.Join(c.cfg.RequiredKeywords, "、")))
		}
	}

	// 规则 10: 末行不得是软性安慰式结尾
	if len(lines) > 0 {
		lastLine := lines[len(lines)-1]
		for _, ending := range c.cfg.SoftEndings {
			if ending != "" && strings.Contains(lastLine, ending) {
				result.RiskFlags = append(result.RiskFlags, FlagBadEnding)
				result.Issues = append(result.Issues, fmt.Sprintf("结尾出现软性安慰用语 %q", ending))
				result.Suggestions = append(result.Suggestions, "结尾保持干脆，不要安慰式收尾")
				break
			}
		}
	}

	result.Passed = len(result.Issues) == 0
	return result
}

// BuildFixPrompt 把问题渲染成编号列表，供下一次生成时附在提示词后面。
func (c *postChecker) BuildFixPrompt(result *CheckResult) string {
	if result == nil || result.Passed {
		return ""
	}
	var b strings.Builder
	b.WriteString("上一稿存在以下问题，请逐条修复后重写:\n")
	for i, issue := range result.Issues {
		b.WriteString(fmt.Sprintf("%d. %s\n", i+1, issue))
	}
	if len(result.Suggestions) > 0 {
		b.WriteString("修改建议:\n")
		for i, suggestion := range result.Suggestions {
			b.WriteString(fmt.Sprintf("%d. %s\n", i+1, suggestion))
		}
	}
	return b.String()
}

// nonEmptyLines 按行拆分并去掉空白行。
func nonEmptyLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, strings.TrimRight(line, " \t\r"))
		}
	}
	return lines
}

// countContentChars 统计有效字符数，只计文字和数字。
func countContentChars(text string) int {
	count := 0
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			count++
		}
	}
	return count
}

// countEmoji 统计图形符号数量。
// 覆盖常见的 emoji 与象形符号码位区间。
func countEmoji(text string) int {
	count := 0
	for _, r := range text {
		if isEmojiRune(r) {
			count++
		}
	}
	return count
}

func isEmojiRune(r rune) bool {
	switch {
	case r >= 0x1F300 && r <= 0x1F5FF: // 杂项符号与象形文字
		return true
	case r >= 0x1F600 && r <= 0x1F64F: // 表情
		return true
	case r >= 0x1F680 && r <= 0x1F6FF: // 交通与地图符号
		return true
	case r >= 0x1F900 && r <= 0x1F9FF: // 补充符号与象形文字
		return true
	case r >= 0x2600 && r <= 0x27BF: // 杂项符号与装饰符号
		return true
	default:
		return false
	}
}

// charSetJaccard 计算两段文本有效字符集合的 Jaccard 相似度。
// 任一集合为空时返回 0。
func charSetJaccard(a, b string) float64 {
	setA := contentCharSet(a)
	setB := contentCharSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	intersection := 0
	for r := range setA {
		if _, ok := setB[r]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

func contentCharSet(text string) map[rune]struct{} {
	set := make(map[rune]struct{}, len(text))
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			set[r] = struct{}{}
		}
	}
	return set
}
