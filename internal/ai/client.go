// Package ai is a client for an OpenAI-compatible chat-completions API. It
// backs transaction categorization, saving suggestions and the advisor chat.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
)

// Client calls the chat-completions endpoint.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	http    *http.Client
}

// NewClient returns a Client, or nil when apiKey is empty so callers can treat
// a missing key as a disabled feature.
func NewClient(apiKey, baseURL, model string) *Client {
	if apiKey == "" {
		return nil
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

// Complete sends one system+user exchange and returns the assistant's reply.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	body := chatRequest{
		Model:       c.model,
		Temperature: 0.2,
		Messages: []message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("ai: chat completion: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("ai: chat completion returned %s", resp.Status)
	}
	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("ai: decode completion: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("ai: completion returned no choices")
	}
	return out.Choices[0].Message.Content, nil
}

// ClassifyTransaction picks a category name for the transaction from the
// user's categories, or proposes a new short name when the list is empty.
func (c *Client) ClassifyTransaction(ctx context.Context, description, merchant string, categories []string) (string, error) {
	system := "You categorize bank transactions. Reply with exactly one category name and nothing else."
	var user strings.Builder
	fmt.Fprintf(&user, "Transaction: %s", description)
	if merchant != "" {
		fmt.Fprintf(&user, " (merchant: %s)", merchant)
	}
	if len(categories) > 0 {
		fmt.Fprintf(&user, "\nChoose from: %s", strings.Join(categories, ", "))
	} else {
		user.WriteString("\nPropose a short category name.")
	}
	reply, err := c.Complete(ctx, system, user.String())
	if err != nil {
		return "", err
	}
	return strings.Trim(strings.TrimSpace(reply), `"`), nil
}

// SuggestionDraft is one model-proposed saving suggestion.
type SuggestionDraft struct {
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Type             string   `json:"type"`
	PotentialSavings *float64 `json:"potentialSavings"`
	ConfidenceScore  *float64 `json:"confidenceScore"`
}

// GenerateSuggestions asks the model for saving suggestions based on a plain
// text spending summary. The model is instructed to answer with a JSON array.
func (c *Client) GenerateSuggestions(ctx context.Context, spendingSummary string) ([]SuggestionDraft, error) {
	system := `You are a personal finance advisor. Given a spending summary, reply with a JSON array ` +
		`of suggestions, each object having "title", "description", "type" ` +
		`(one of budgeting, saving, spending_alert, investment), "potentialSavings" (number or null) ` +
		`and "confidenceScore" (0..1). Reply with JSON only.`
	reply, err := c.Complete(ctx, system, spendingSummary)
	if err != nil {
		return nil, err
	}
	reply = stripCodeFence(reply)
	var drafts []SuggestionDraft
	if err := json.Unmarshal([]byte(reply), &drafts); err != nil {
		return nil, fmt.Errorf("ai: parse suggestions: %w", err)
	}
	return drafts, nil
}

// Chat answers a free-form question grounded in the user's financial context.
func (c *Client) Chat(ctx context.Context, financialContext, question string) (string, error) {
	system := "You are Finsplore's financial assistant. Answer briefly and practically.\n\n" +
		"User's financial context:\n" + financialContext
	return c.Complete(ctx, system, question)
}

// stripCodeFence removes a surrounding markdown code fence, which models add
// even when told not to.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
