package nlu

// 意图标签在编排器里分组使用。集合划分来自训练场景本身：
// 学员一旦失态立即判负；AI 角色收尾的方式决定成绩档次。

// LabelContinue 本句意思不完全，学员还有下句，整条消息直接跳过。
const LabelContinue = "continuetosay"

// TraineeFailLabels 学员情绪失控的标签集合，命中即挑战失败。
var TraineeFailLabels = map[string]bool{
	"impatient": true,
	"bye":       true,
	"badreply":  true,
	"angry":     true,
	"quarrel":   true,
}

// AIPassLabels AI 角色正常收尾，学员通过。
var AIPassLabels = map[string]bool{
	"bye":   true,
	"sayno": true,
}

// AIPraiseLabels AI 角色被学员安抚到满意，完美通过。
var AIPraiseLabels = map[string]bool{
	"praise":     true,
	"praise_bye": true,
}

// AIEscalateLabels AI 角色情绪激动，累计计数。
var AIEscalateLabels = map[string]bool{
	"angry":   true,
	"doubt":   true,
	"quarrel": true,
}
