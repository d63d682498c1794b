package llm

import (
	"context"
	"errors"
	"fmt"

	"drill-talk/internal/config"
)

// 生成失败用类型化错误表达，编排器据此决定重试，不做字符串比对。
var (
	// ErrEmpty 服务返回了空内容。
	ErrEmpty = errors.New("generation returned empty content")
	// ErrServiceUnavailable 服务端错误或网络错误，属于可重试的瞬时故障。
	ErrServiceUnavailable = errors.New("generation service unavailable")
)

// stopMark 生成文本的截断标记：AI 台词以右引号收尾。
const stopMark = "”"

// Client 文本生成客户端接口。prompt 为人设描述加对话窗口，返回 AI 角色的下一句台词。
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// NewClient 创建生成客户端
func NewClient(cfg *config.Config) (Client, error) {
	switch cfg.LLM.Provider {
	case "openai":
		return NewOpenAIClient(cfg.LLM.OpenAI), nil
	case "anthropic":
		return NewAnthropicClient(cfg.LLM.Anthropic), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLM.Provider)
	}
}
