package provider

import (
	"context"
	"errors"
)

// 生成結果為空時的錯誤
var (
	ErrNoCandidates = errors.New("model returned no candidates")
	ErrEmptyText    = errors.New("model returned no text")
)

// Request 表示發送到文字生成模型的請求
type Request struct {
	Prompt           string
	SystemPrompt     string
	Temperature      float64
	MaxOutputTokens  int
	ResponseMIMEType string
}

// Response 表示模型的回覆
type Response struct {
	Text         string
	FinishReason string
	Usage        Usage
}

// Usage token 使用量
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// TextGenerator 文字生成模型介面
type TextGenerator interface {
	// Generate 生成回覆；沒有候選或文字時回傳 ErrNoCandidates / ErrEmptyText
	Generate(ctx context.Context, req *Request) (*Response, error)

	// Model 目前使用的模型名稱
	Model() string
}
