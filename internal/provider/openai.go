package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/piyumiimasha/promptlab-go/internal/token"
)

const (
	// openAIBaseURL is the default OpenAI API endpoint.
	openAIBaseURL = "https://api.openai.com/v1"
	// groqBaseURL is the default Groq API endpoint. Groq speaks the OpenAI
	// chat-completions dialect, so both backends share one shim.
	groqBaseURL = "https://api.groq.com/openai/v1"

	// maxErrorBody caps how much of an error response body is carried into
	// the returned error message.
	maxErrorBody = 512
)

// reasoningPrefixes identify reasoning-tier models by name. These models
// reject the temperature parameter and use max_completion_tokens in place
// of max_tokens.
var reasoningPrefixes = []string{"o1-", "o3-"}

// openAICompat is a ChatBackend speaking the OpenAI chat-completions wire
// format. It serves both the OpenAI and Groq backends.
type openAICompat struct {
	backend Backend
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

func newOpenAI(cfg *Config) *openAICompat {
	return newCompat(BackendOpenAI, openAIBaseURL, cfg)
}

func newGroq(cfg *Config) *openAICompat {
	return newCompat(BackendGroq, groqBaseURL, cfg)
}

func newCompat(backend Backend, defaultURL string, cfg *Config) *openAICompat {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultURL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	return &openAICompat{
		backend: backend,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		client:  client,
	}
}

func (o *openAICompat) Backend() Backend { return o.backend }

// Wire types mirror the chat-completions request/response bodies.

type oaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type oaiResponseFormat struct {
	Type string `json:"type"`
}

type oaiRequest struct {
	Model               string             `json:"model"`
	Messages            []oaiMessage       `json:"messages"`
	Temperature         *float32           `json:"temperature,omitempty"`
	MaxTokens           *int               `json:"max_tokens,omitempty"`
	MaxCompletionTokens *int               `json:"max_completion_tokens,omitempty"`
	ResponseFormat      *oaiResponseFormat `json:"response_format,omitempty"`
}

type oaiUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type oaiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *oaiUsage `json:"usage"`
}

// isReasoningModel reports whether the model name identifies a
// reasoning-tier model.
func isReasoningModel(model string) bool {
	for _, p := range reasoningPrefixes {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}

// Complete performs one chat-completions round-trip.
func (o *openAICompat) Complete(ctx context.Context, req *Request) (*Result, error) {
	body := oaiRequest{
		Model:    o.model,
		Messages: make([]oaiMessage, 0, len(req.Messages)),
	}
	for _, m := range req.Messages {
		body.Messages = append(body.Messages, oaiMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	reasoning := isReasoningModel(o.model)
	if req.Temperature != nil && !reasoning {
		body.Temperature = req.Temperature
	}
	if req.MaxTokens != nil {
		if reasoning {
			body.MaxCompletionTokens = req.MaxTokens
		} else {
			body.MaxTokens = req.MaxTokens
		}
	}
	if req.JSONMode && o.backend == BackendOpenAI {
		body.ResponseFormat = &oaiResponseFormat{Type: "json_object"}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%s: marshal request: %w", o.backend, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		o.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", o.backend, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	httpResp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, &Error{
			Backend: o.backend,
			Kind:    transportKind(ctx, err),
			Message: err.Error(),
			Err:     err,
		}
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, o.apiError(httpResp)
	}

	var resp oaiResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", o.backend, err)
	}

	var text string
	if len(resp.Choices) > 0 {
		text = resp.Choices[0].Message.Content
	}

	var usage token.ProviderUsage
	if resp.Usage != nil {
		usage = token.OpenAIUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}

	return &Result{Text: text, Usage: usage, Raw: resp}, nil
}

// apiError builds a classified *Error from a non-200 response. A 400 whose
// body signals a context-window rejection is classified as overflow rather
// than a generic invalid request.
func (o *openAICompat) apiError(resp *http.Response) *Error {
	snippet := readSnippet(resp.Body)
	kind := classifyStatus(resp.StatusCode)
	if kind == KindInvalidRequest && overflowMessage(snippet) {
		kind = KindContextOverflow
	}
	return &Error{
		Backend: o.backend,
		Kind:    kind,
		Status:  resp.StatusCode,
		Message: snippet,
	}
}

// transportKind classifies a round-trip error from the HTTP client.
// A cancelled context stays unclassified so it is never retried.
func transportKind(ctx context.Context, err error) ErrorKind {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || KindOf(err) == KindTimeout {
		return KindTimeout
	}
	return KindUnknown
}

// readSnippet reads at most maxErrorBody bytes of an error response body.
func readSnippet(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	return strings.TrimSpace(string(b))
}
