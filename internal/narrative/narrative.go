// Package narrative generates macro training plans through an
// OpenAI-compatible chat API. The structured JSON the model returns is
// parsed and validated into a plan.MacroPlan; callers fall back to the
// deterministic planner when generation fails.
package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cyclecoach/internal/plan"
)

const (
	defaultBaseURL = "https://api.groq.com/openai/v1/chat/completions"
	// Models are tried in order: the configured model first, then the
	// fallback when the primary errors.
	DefaultModel  = "llama-3.3-70b-versatile"
	FallbackModel = "llama4-scout-17b-16e-instruct"
)

// Client calls an OpenAI-compatible chat-completions endpoint and implements
// plan.NarrativeGenerator.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewClient returns a client for the given API key. Model and baseURL fall
// back to the Groq defaults when empty.
func NewClient(apiKey, model, baseURL string) *Client {
	if model == "" {
		model = DefaultModel
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message      message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// GenerateMacroPlan asks the model for a structured periodization plan and
// parses the JSON reply. The plan is validated before being returned so the
// caller can trust its shape.
func (c *Client) GenerateMacroPlan(ctx context.Context, req plan.NarrativeRequest) (*plan.MacroPlan, error) {
	content, err := c.chat(ctx, []message{
		{Role: "system", Content: planSystemPrompt},
		{Role: "user", Content: planUserPrompt(req)},
	}, 0.3)
	if err != nil {
		return nil, err
	}

	mp, err := parseMacroPlan(content)
	if err != nil {
		return nil, err
	}
	if err := validate(mp, req.TotalWeeks); err != nil {
		return nil, err
	}
	return mp, nil
}

func (c *Client) chat(ctx context.Context, messages []message, temperature float64) (string, error) {
	models := []string{c.model}
	if c.model != FallbackModel {
		models = append(models, FallbackModel)
	}

	var lastErr error
	for _, model := range models {
		result, err := c.chatWithModel(ctx, messages, temperature, model)
		if err == nil {
			return result, nil
		}
		lastErr = err
	}
	return "", lastErr
}

func (c *Client) chatWithModel(ctx context.Context, messages []message, temperature float64, model string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   4096,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read chat response: %w", err)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("parse chat response: %w", err)
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("chat API: %s", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("chat API returned no choices")
	}
	return chatResp.Choices[0].Message.Content, nil
}

// parseMacroPlan extracts the JSON plan from a model reply, tolerating
// markdown code fences around the payload.
func parseMacroPlan(content string) (*plan.MacroPlan, error) {
	content = strings.TrimSpace(content)
	if i := strings.Index(content, "```json"); i >= 0 {
		content = content[i+len("```json"):]
		if j := strings.Index(content, "```"); j >= 0 {
			content = content[:j]
		}
	} else if i := strings.Index(content, "```"); i >= 0 {
		content = content[i+len("```"):]
		if j := strings.Index(content, "```"); j >= 0 {
			content = content[:j]
		}
	}
	content = strings.TrimSpace(content)

	var mp plan.MacroPlan
	if err := json.Unmarshal([]byte(content), &mp); err != nil {
		return nil, fmt.Errorf("parse macro plan JSON: %w", err)
	}
	return &mp, nil
}

// validate rejects structurally unusable plans: no phases, or week targets
// covering less than 80% of the program.
func validate(mp *plan.MacroPlan, totalWeeks int) error {
	if len(mp.Phases) == 0 {
		return fmt.Errorf("macro plan has no phases")
	}
	if len(mp.WeekTargets)*10 < totalWeeks*8 {
		return fmt.Errorf("insufficient week targets: got %d, expected ~%d", len(mp.WeekTargets), totalWeeks)
	}
	for _, wt := range mp.WeekTargets {
		if wt.Week < 1 || wt.Week > totalWeeks {
			return fmt.Errorf("week target %d outside 1-%d", wt.Week, totalWeeks)
		}
	}
	return nil
}
