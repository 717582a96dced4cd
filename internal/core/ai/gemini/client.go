package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"smartchef/internal/core/ai/provider"
	"smartchef/internal/infrastructure/config"
	"smartchef/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// 後端類型
const (
	BackendStudio = "studio"
	BackendVertex = "vertex"
)

// 設定不完整
var ErrNotConfigured = errors.New("gemini is not configured")

// Client Gemini generateContent REST 客戶端
type Client struct {
	client *resty.Client
	model  string
	path   string
}

// generateRequest generateContent 請求
type generateRequest struct {
	Contents          []content        `json:"contents"`
	SystemInstruction *content         `json:"systemInstruction,omitempty"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	MaxOutputTokens  int     `json:"maxOutputTokens,omitempty"`
	ResponseMIMEType string  `json:"responseMimeType,omitempty"`
}

// generateResponse generateContent 回應
type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

// apiError Google API 錯誤格式
type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// NewClient 依設定創建客戶端，缺少憑證或專案時回傳 ErrNotConfigured
func NewClient(cfg config.GeminiConfig) (*Client, error) {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return nil, fmt.Errorf("%w: model is empty", ErrNotConfigured)
	}

	client := resty.New().
		SetHeader("Content-Type", "application/json").
		SetTimeout(cfg.Timeout)

	var path string
	switch cfg.Backend {
	case BackendVertex:
		project := cfg.ResolveProjectID()
		if project == "" {
			return nil, fmt.Errorf("%w: project id is missing (set gemini.project_id or GOOGLE_CLOUD_PROJECT)", ErrNotConfigured)
		}
		token := strings.TrimSpace(cfg.AccessToken)
		if token == "" {
			token = strings.TrimSpace(os.Getenv("GOOGLE_OAUTH_ACCESS_TOKEN"))
		}
		if token == "" {
			return nil, fmt.Errorf("%w: access token is missing", ErrNotConfigured)
		}
		location := cfg.Location
		if location == "" {
			location = "us-central1"
		}
		client.SetBaseURL(vertexBaseURL(cfg.BaseURL, location)).SetAuthToken(token)
		path = fmt.Sprintf("/v1/projects/%s/locations/%s/publishers/google/models/%s:generateContent", project, location, model)
	default:
		key := cfg.ResolveAPIKey()
		if key == "" {
			return nil, fmt.Errorf("%w: api key is missing", ErrNotConfigured)
		}
		client.SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).SetHeader("x-goog-api-key", key)
		path = fmt.Sprintf("/v1beta/models/%s:generateContent", model)
	}

	return &Client{client: client, model: model, path: path}, nil
}

// vertexBaseURL 未指定專用端點時使用區域端點
func vertexBaseURL(configured, location string) string {
	configured = strings.TrimRight(configured, "/")
	if configured == "" || strings.Contains(configured, "generativelanguage.googleapis.com") {
		return fmt.Sprintf("https://%s-aiplatform.googleapis.com", location)
	}
	return configured
}

// Model 模型名稱
func (c *Client) Model() string {
	return c.model
}

// Generate 呼叫 generateContent 並取出第一個候選的文字
func (c *Client) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	body := generateRequest{
		Contents: []content{{
			Role:  "user",
			Parts: []part{{Text: req.Prompt}},
		}},
		GenerationConfig: generationConfig{
			Temperature:      req.Temperature,
			MaxOutputTokens:  req.MaxOutputTokens,
			ResponseMIMEType: req.ResponseMIMEType,
		},
	}
	if strings.TrimSpace(req.SystemPrompt) != "" {
		body.SystemInstruction = &content{Parts: []part{{Text: req.SystemPrompt}}}
	}

	start := time.Now()
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(body).
		Post(c.path)
	if err != nil {
		common.LogAICall(c.model, time.Since(start), err)
		return nil, fmt.Errorf("failed to send request to Gemini: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		err := fmt.Errorf("Gemini API returned %d: %s", resp.StatusCode(), errorMessage(resp.Body()))
		common.LogAICall(c.model, time.Since(start), err)
		return nil, err
	}
	common.LogAICall(c.model, time.Since(start), nil)

	var result generateResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to parse Gemini response: %w", err)
	}

	if len(result.Candidates) == 0 {
		return nil, provider.ErrNoCandidates
	}

	first := result.Candidates[0]
	text := ""
	for _, p := range first.Content.Parts {
		if strings.TrimSpace(p.Text) != "" {
			text = p.Text
			break
		}
	}
	if text == "" {
		return nil, provider.ErrEmptyText
	}

	common.LogDebug("Gemini response received",
		zap.String("finish_reason", first.FinishReason),
		zap.Int("total_tokens", result.UsageMetadata.TotalTokenCount),
	)

	return &provider.Response{
		Text:         text,
		FinishReason: first.FinishReason,
		Usage: provider.Usage{
			PromptTokens:     result.UsageMetadata.PromptTokenCount,
			CompletionTokens: result.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      result.UsageMetadata.TotalTokenCount,
		},
	}, nil
}

// errorMessage 取出錯誤訊息，無法解析時回傳截斷的原文
func errorMessage(body []byte) string {
	var e apiError
	if err := json.Unmarshal(body, &e); err == nil && e.Error.Message != "" {
		return e.Error.Status + " " + e.Error.Message
	}
	return common.Snippet(string(body), 200)
}
