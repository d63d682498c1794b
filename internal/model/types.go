package model

import "time"

// Role 标记对话轮次的发言方。
type Role string

const (
	RoleTrainee Role = "trainee"
	RoleAI      Role = "ai"
)

// Turn 表示对话中的一个轮次。
type Turn struct {
	Role Role      `json:"role"`
	Text string    `json:"text"`
	TS   time.Time `json:"ts"`
}

// Status 表示训练会话所处的阶段。
type Status string

const (
	// StatusAwaitingCourse 会话已创建，等待学员选择课程。
	StatusAwaitingCourse Status = "awaiting_course"
	// StatusActive 课程已选定，正常对话中。
	StatusActive Status = "active"
	// StatusTerminated 终态。会话一旦进入该状态即从 store 移除。
	StatusTerminated Status = "terminated"
)

// Outcome 表示会话终止时的裁决结果。
type Outcome string

const (
	// OutcomePass AI 角色以正常/告别情绪收尾，学员通过。
	OutcomePass Outcome = "PASS"
	// OutcomePassExcellent AI 角色以赞扬情绪收尾，学员完美通过。
	OutcomePassExcellent Outcome = "PASS_EXCELLENT"
	// OutcomeFailContent 学员发言命中敏感词。
	OutcomeFailContent Outcome = "FAIL_CONTENT"
	// OutcomeFailEmotion 学员发言被侦测为情绪失控。
	OutcomeFailEmotion Outcome = "FAIL_EMOTION"
	// OutcomeFailEscalation AI 角色情绪激动次数超过阈值。
	OutcomeFailEscalation Outcome = "FAIL_ESCALATION"
	// OutcomeStopped 学员主动发送结束指令，不计成绩。
	OutcomeStopped Outcome = "STOPPED"
)

// Scored 报告该结果是否计入排行榜。
// 情绪升级导致的失败不参与排名（见 DESIGN.md 中的策略说明）。
func (o Outcome) Scored() bool {
	return o == OutcomePass || o == OutcomePassExcellent
}

// Course 是课程注册表中的一条只读记录。
type Course struct {
	// Key 课程名，学员消息与其做子串匹配。
	Key string `json:"key"`
	// Prompt 人设种子描述，拼接对话窗口后作为生成提示词。
	Prompt string `json:"prompt"`
	// Intro 课程开始时发给学员的说明文字。
	Intro string `json:"intro"`
	// Opening AI 角色的开场白，同时作为第一条 ai 轮次入 log。
	Opening string `json:"opening"`
}

// Session 是一个学员的训练会话状态，同一学员同时至多存在一个。
// 所有字段仅由 orchestrator 在持有学员级锁的情况下读写。
type Session struct {
	TraineeID   string
	DisplayName string
	// Course 选定后不再变更。
	Course string
	// TurnCount 每产生一条被接受的 AI 回复加一。
	TurnCount int
	// FailCount AI 角色情绪激动的累计次数。
	FailCount int
	// Log 追加式轮次记录，终止时整体归档。
	Log       []Turn
	Status    Status
	StartedAt time.Time
}

// TerminationRecord 是会话终止时落盘的唯一一条持久化记录。
type TerminationRecord struct {
	When        time.Time
	TraineeName string
	Course      string
	TurnCount   int
	Outcome     Outcome
	// Percentile 仅在结果参与排名且样本足够时大于零。
	Percentile int
	Transcript string
}
