package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/piyumiimasha/promptlab-go/internal/token"
)

// geminiBackend is a ChatBackend for Google Gemini via the genai SDK
// (AI Studio backend).
type geminiBackend struct {
	model  string
	client *genai.Client
}

func newGemini(ctx context.Context, cfg *Config) (*geminiBackend, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("provider: failed to create Gemini client: %w", err)
	}
	return &geminiBackend{model: cfg.Model, client: client}, nil
}

func (g *geminiBackend) Backend() Backend { return BackendGoogle }

// geminiContents converts the normalized message list into Gemini contents.
// Gemini has no inline "system" role: system message text is returned
// separately for the system-instruction field (the last system message wins
// when there are several), and assistant turns map to role "model".
func geminiContents(msgs []*schema.Message) ([]*genai.Content, string) {
	var contents []*genai.Content
	var system string
	for _, m := range msgs {
		switch m.Role {
		case schema.System:
			system = m.Content
		case schema.Assistant:
			contents = append(contents, &genai.Content{
				Role:  genai.RoleModel,
				Parts: []*genai.Part{{Text: m.Content}},
			})
		default:
			contents = append(contents, &genai.Content{
				Role:  genai.RoleUser,
				Parts: []*genai.Part{{Text: m.Content}},
			})
		}
	}
	return contents, system
}

// Complete performs one generateContent round-trip.
func (g *geminiBackend) Complete(ctx context.Context, req *Request) (*Result, error) {
	contents, system := geminiContents(req.Messages)

	config := &genai.GenerateContentConfig{}
	if req.Temperature != nil {
		config.Temperature = genai.Ptr(*req.Temperature)
	}
	if req.MaxTokens != nil {
		config.MaxOutputTokens = int32(*req.MaxTokens)
	}
	if system != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		}
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return nil, g.classify(err)
	}

	var sb strings.Builder
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, p := range resp.Candidates[0].Content.Parts {
			sb.WriteString(p.Text)
		}
	}

	var usage token.ProviderUsage
	if resp.UsageMetadata != nil {
		usage = token.GeminiUsage{
			PromptTokenCount:     int(resp.UsageMetadata.PromptTokenCount),
			CandidatesTokenCount: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}

	return &Result{Text: sb.String(), Usage: usage, Raw: resp}, nil
}

// classify maps genai SDK errors into the ErrorKind taxonomy. API errors
// carry an HTTP status code; anything else falls back to transport checks.
func (g *geminiBackend) classify(err error) *Error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		kind := classifyStatus(apiErr.Code)
		if kind == KindInvalidRequest && overflowMessage(apiErr.Message) {
			kind = KindContextOverflow
		}
		return &Error{
			Backend: BackendGoogle,
			Kind:    kind,
			Status:  apiErr.Code,
			Message: apiErr.Message,
			Err:     err,
		}
	}
	return &Error{
		Backend: BackendGoogle,
		Kind:    KindOf(err),
		Message: err.Error(),
		Err:     err,
	}
}
