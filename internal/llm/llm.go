package llm

import "context"

// Request 描述发送给大模型的一次对话补全。
type Request struct {
	// Instruction 作为 system 角色消息发送，即人设说明。
	Instruction string
	// Content 作为 user 角色消息发送。
	Content string
	// MaxTokens 限制回复长度，<=0 时使用客户端默认值。
	MaxTokens int
}

// Response 是大模型返回的自由文本。
type Response struct {
	Reply string
}

// Client 定义了调用大模型的统一接口。
type Client interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}
