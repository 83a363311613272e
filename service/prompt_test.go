package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Xushengqwer/autopost_service/models/dto"
)

func TestBuildSystemPrompt(t *testing.T) {
	base := buildSystemPrompt("")
	assert.NotContains(t, base, "风格倾向")

	hinted := buildSystemPrompt("短句为主")
	assert.Contains(t, hinted, "风格倾向: 短句为主")
}

func TestBuildUserPrompt(t *testing.T) {
	plan := lengthPlan(40, 120)
	prompt := buildUserPrompt(plan, "")
	assert.Contains(t, prompt, "生活观察")
	assert.Contains(t, prompt, "40 到 120")
	assert.NotContains(t, prompt, "具体场景")

	plan.Scenario = &dto.PlanOption{Code: "commute", Name: "通勤路上"}
	prompt = buildUserPrompt(plan, "上一稿存在以下问题")
	assert.Contains(t, prompt, "通勤路上")
	assert.Contains(t, prompt, "上一稿存在以下问题")
}
