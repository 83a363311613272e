package service

import (
	"fmt"
	"strings"

	"github.com/Xushengqwer/autopost_service/models/dto"
)

// buildSystemPrompt 拼装系统提示: 固定的写作约束 + 模板的风格倾向。
func buildSystemPrompt(promptHint string) string {
	var b strings.Builder
	b.WriteString("你是一个社交平台文案写手。输出要求:\n")
	b.WriteString("1. 只输出正文本身，不要任何解释或前后缀。\n")
	b.WriteString("2. 正文拆成多行短句，每行一个意思，不使用逗号和顿号。\n")
	b.WriteString("3. 不用第一人称开头，不做自我指涉。\n")
	b.WriteString("4. 结尾干脆利落，不做安慰式收尾。\n")
	if promptHint != "" {
		b.WriteString("风格倾向: ")
		b.WriteString(promptHint)
		b.WriteString("\n")
	}
	return b.String()
}

// buildUserPrompt 按计划维度拼装生成指令，fixPrompt 非空时附在末尾。
// 维度的人类可读名参与拼装，code 只用于落库。
func buildUserPrompt(plan *dto.Plan, fixPrompt string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("写一条主题为「%s」的帖子。\n", plan.Module.Name))
	if plan.Scenario != nil {
		b.WriteString(fmt.Sprintf("具体场景: %s。\n", plan.Scenario.Name))
	}
	b.WriteString(fmt.Sprintf("化解/收束方式: %s。\n", plan.Outlet.Name))
	b.WriteString(fmt.Sprintf("语气: %s。\n", plan.Tone.Name))
	b.WriteString(fmt.Sprintf("结尾风格: %s。\n", plan.Ending.Name))
	b.WriteString(fmt.Sprintf("篇幅: %s，有效字符 %d 到 %d 个。\n", plan.Length.Name, plan.MinChars, plan.MaxChars))
	if fixPrompt != "" {
		b.WriteString("\n")
		b.WriteString(fixPrompt)
	}
	return b.String()
}
