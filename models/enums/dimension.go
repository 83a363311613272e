package enums

// DimensionType 内容维度类型。
// 计划选择器按固定顺序逐维度抽取：題材模块 → 场景(可选) → 出口/化解方式 → 语气 → 结尾风格 → 篇幅档位。
type DimensionType string

const (
	DimensionModule     DimensionType = "module"     // 题材模块
	DimensionScenario   DimensionType = "scenario"   // 场景（可选维度，计划可以不含）
	DimensionOutlet     DimensionType = "outlet"     // 化解/出口方式，受模块兼容性约束
	DimensionTone       DimensionType = "tone"       // 语气倾向
	DimensionEnding     DimensionType = "ending"     // 结尾风格
	DimensionLength     DimensionType = "length"     // 篇幅档位，携带 [min,max] 字符区间
)

// AllDimensions 计划解析顺序。出口维度必须在模块之后解析，因为它的候选集受模块过滤。
var AllDimensions = []DimensionType{
	DimensionModule,
	DimensionScenario,
	DimensionOutlet,
	DimensionTone,
	DimensionEnding,
	DimensionLength,
}
