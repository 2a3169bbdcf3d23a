package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"OpenLens-Chain/internal/llm"
)

const (
	defaultBaseURL    = "https://api.openai.com/v1"
	defaultSmallModel = "gpt-4o-mini"
	defaultLargeModel = "gpt-4o"
	defaultTimeout    = 60 * time.Second
)

// Config 描述了调用 OpenAI Chat Completions API 所需的信息。
type Config struct {
	APIKey     string
	BaseURL    string
	SmallModel string
	LargeModel string
	Timeout    time.Duration
}

// Client 通过 HTTP 调用 OpenAI 提供的大模型能力。
type Client struct {
	apiKey     string
	baseURL    string
	smallModel string
	largeModel string
	httpClient *http.Client
}

// NewClient 根据配置创建 OpenAI 客户端。
func NewClient(cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("未提供 OpenAI API Key")
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	smallModel := strings.TrimSpace(cfg.SmallModel)
	if smallModel == "" {
		smallModel = defaultSmallModel
	}
	largeModel := strings.TrimSpace(cfg.LargeModel)
	if largeModel == "" {
		largeModel = defaultLargeModel
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		smallModel: smallModel,
		largeModel: largeModel,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Generate 调用 OpenAI 根据上下文生成文本。
func (c *Client) Generate(ctx context.Context, req llm.Request) (string, error) {
	content, err := c.complete(ctx, req)
	if err != nil {
		return "", err
	}
	return content, nil
}

// Decide 调用 OpenAI 做出 RESPOND/IGNORE/STOP 判定。
// 输出解析保持宽松：取回复中第一个出现的判定词，默认 IGNORE。
func (c *Client) Decide(ctx context.Context, req llm.Request) (llm.Decision, error) {
	content, err := c.complete(ctx, req)
	if err != nil {
		return "", err
	}
	return ParseDecision(content), nil
}

// ParseDecision 从模型输出中提取判定结果。
func ParseDecision(content string) llm.Decision {
	upper := strings.ToUpper(content)
	best := llm.DecisionIgnore
	bestIdx := -1
	for _, candidate := range []llm.Decision{llm.DecisionRespond, llm.DecisionIgnore, llm.DecisionStop} {
		idx := strings.Index(upper, string(candidate))
		if idx >= 0 && (bestIdx < 0 || idx < bestIdx) {
			best = candidate
			bestIdx = idx
		}
	}
	return best
}

func (c *Client) complete(ctx context.Context, req llm.Request) (string, error) {
	payload, err := c.buildPayload(req)
	if err != nil {
		return "", err
	}

	endpoint := c.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("构建 OpenAI 请求失败: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("请求 OpenAI 失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("OpenAI 返回错误状态 %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("解析 OpenAI 响应失败: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", errors.New("OpenAI 响应中没有有效的 choices")
	}

	content := strings.TrimSpace(decoded.Choices[0].Message.Content)
	if content == "" {
		return "", errors.New("OpenAI 响应内容为空")
	}
	return content, nil
}

func (c *Client) buildPayload(req llm.Request) ([]byte, error) {
	type message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}

	model := c.smallModel
	if req.Quality == llm.QualityLarge {
		model = c.largeModel
	}

	body := map[string]any{
		"model": model,
		"messages": []message{
			{Role: "user", Content: req.Context},
		},
		"temperature": 0.7,
	}

	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("序列化 OpenAI 请求失败: %w", err)
	}
	return encoded, nil
}

var _ llm.Generator = (*Client)(nil)
