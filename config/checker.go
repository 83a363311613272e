package config

// CheckerConfig 结构校验器的规则配置。
// 所有规则确定性、相互独立、全部执行（不短路）。
type CheckerConfig struct {
	// MaxLineChars 单行字符预算，超过记 LONG_LINES。
	MaxLineChars int `mapstructure:"maxLineChars" json:"maxLineChars" yaml:"maxLineChars"`

	// MaxEmoji 绘文字/图形符号数量上限，超过记 TOO_MANY_EMOJI。
	MaxEmoji int `mapstructure:"maxEmoji" json:"maxEmoji" yaml:"maxEmoji"`

	// JaccardThreshold 与近期文案的字符集 Jaccard 相似度上限，超过记 TOO_SIMILAR。
	// 这是最后一道结构性防线，与嵌入向量的语义相似度检查相互独立、阈值各异，
	// 刻意保留两套检查。
	JaccardThreshold float64 `mapstructure:"jaccardThreshold" json:"jaccardThreshold" yaml:"jaccardThreshold"`

	// RecentTexts Jaccard 比对的近期文案条数上限。
	RecentTexts int `mapstructure:"recentTexts" json:"recentTexts" yaml:"recentTexts"`

	// BannedOpenings 禁止的第一人称/自指句首词表，句首命中记 FIRST_PERSON。
	BannedOpenings []string `mapstructure:"bannedOpenings" json:"bannedOpenings" yaml:"bannedOpenings"`

	// BannedPhrases 禁用短语表，正文任意位置逐字命中记 BANNED_PHRASE。
	BannedPhrases []string `mapstructure:"bannedPhrases" json:"bannedPhrases" yaml:"bannedPhrases"`

	// RequiredKeywords 主题关键词表，至少命中一个，否则记 OFF_TOPIC。
	RequiredKeywords []string `mapstructure:"requiredKeywords" json:"requiredKeywords" yaml:"requiredKeywords"`

	// SoftEndings 软性安慰式结尾词表，末行命中记 BAD_ENDING。
	SoftEndings []string `mapstructure:"softEndings" json:"softEndings" yaml:"softEndings"`
}
