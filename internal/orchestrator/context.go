package orchestrator

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"drill-talk/internal/model"
)

// aiCue 提示词的收尾引导：让生成服务接着写 AI 角色的台词。
const aiCue = "你说：“"

// formatTurn 把一个轮次渲染成提示词里的一行。
func formatTurn(turn model.Turn) string {
	if turn.Role == model.RoleAI {
		return "你说：“" + turn.Text + "”"
	}
	return "工作人员说：“" + turn.Text + "”"
}

// contextWindow 从轮次记录构建有界的对话窗口。
// 从最新往最旧累加，字符数超出预算即止，返回串保持时间正序。
// 目的：限住发给生成服务的提示词长度，同时尽量保留最近的上下文。
func contextWindow(log []model.Turn, budget int) string {
	dialog := ""
	for i := len(log) - 1; i >= 0; i-- {
		dialog = formatTurn(log[i]) + dialog
		if utf8.RuneCountInString(dialog) > budget {
			break
		}
	}
	return dialog
}

// 微信引用回复的外观：「某人：被引用内容」换行若干个 - 再换行正文。
var (
	quoteReplyRe = regexp.MustCompile(`(?s)^「.+」\s-+\s.+`)
	quotedRe     = regexp.MustCompile(`(?s)：.+」`)
	replyBodyRe  = regexp.MustCompile(`(?s)-\n.+`)
)

// normalize 规整学员文本：引用回复压平成行内引述，去首尾空白，换行改顿号。
func normalize(text string) string {
	if quoteReplyRe.MatchString(text) {
		quoted := quotedRe.FindString(text)
		body := replyBodyRe.FindString(text)
		if quoted != "" && body != "" {
			quoted = strings.TrimSuffix(strings.TrimPrefix(quoted, "："), "」")
			text = quoted + "，" + strings.TrimPrefix(body, "-\n")
		}
	}

	text = strings.TrimSpace(text)
	return strings.ReplaceAll(text, "\n", "，")
}
