package orchestrator

import (
	"log"
	"strconv"
)

// OnDirectorMessage 处理导演指令，返回要回给该导演的文本。
// 导演通道只承载运维操作，不参与训练状态机。
func (o *Orchestrator) OnDirectorMessage(directorID, text string) string {
	switch text {
	case "ding":
		// 心跳探活
		return "dong -- drilltalk"
	case "help":
		return "drilltalk 导演指令：\n" +
			"ding -- 心跳检查\n" +
			"reload -- 重新加载课表\n" +
			"sessions -- 查看当前活跃会话数"
	case "reload":
		if err := o.registry.Reload(); err != nil {
			log.Printf("[Orchestrator] reload courses by %s: %v", directorID, err)
			return "课表加载失败，维持原课表：" + err.Error()
		}
		log.Printf("[Orchestrator] courses reloaded by %s", directorID)
		return "新课表已加载"
	case "sessions":
		return "当前活跃会话数：" + strconv.Itoa(o.store.Len())
	default:
		return "发送 help 查看可用指令"
	}
}
