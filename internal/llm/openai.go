package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
	"github.com/openai/openai-go/v3/shared"
)

const (
	baseMaxOutputTokens  int64 = 2048
	limitMaxOutputTokens int64 = 8192

	DefaultOpenAIModel = "gpt-5-mini"

	openAIProvider = "openai"

	systemPrompt = `You turn web articles into concise documents.

Rules:
- Use only facts from the provided content.
- Neutral tone.
- Answer in the same language as the content.
- When a JSON object is requested, output only that object.`
)

// OpenAIGenerator calls OpenAI's Responses API.
type OpenAIGenerator struct {
	model       string
	newResponse func(ctx context.Context, params responses.ResponseNewParams) (*responses.Response, error)
	log         *slog.Logger
}

func NewOpenAIGenerator(apiKey string, model string, log *slog.Logger) (*OpenAIGenerator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("API key is empty")
	}

	model = strings.TrimSpace(model)
	if model == "" {
		model = DefaultOpenAIModel
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))

	return &OpenAIGenerator{
		model: model,
		newResponse: func(ctx context.Context, params responses.ResponseNewParams) (*responses.Response, error) {
			return client.Responses.New(ctx, params)
		},
		log: log,
	}, nil
}

func (g *OpenAIGenerator) Generate(ctx context.Context, req Request) (Result, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, &ModelError{Provider: openAIProvider, Err: errors.New("prompt is empty")}
	}

	maxOutputTokens := baseMaxOutputTokens
	for {
		resp, err := g.newResponse(ctx, responses.ResponseNewParams{
			Model:           shared.ResponsesModel(g.model),
			MaxOutputTokens: openai.Int(maxOutputTokens),
			Reasoning: responses.ReasoningParam{
				Effort: openai.ReasoningEffortLow,
			},
			Instructions: openai.String(systemPrompt),
			Input: responses.ResponseNewParamsInputUnion{
				OfString: openai.String(prompt),
			},
		})
		if err != nil {
			return nil, &ModelError{Provider: openAIProvider, Err: fmt.Errorf("do request: %w", err)}
		}

		if resp.Status == "incomplete" {
			reason := resp.IncompleteDetails.Reason
			if reason == "max_output_tokens" && maxOutputTokens < limitMaxOutputTokens {
				maxOutputTokens = min(maxOutputTokens*2, limitMaxOutputTokens)
				g.log.DebugContext(ctx, "OpenAI response is incomplete, retrying",
					"reason", reason,
					"maxOutputTokens", maxOutputTokens)
				continue
			}

			if reason == "content_filter" {
				g.log.WarnContext(ctx, "OpenAI response is blocked",
					"reason", reason)

				return Blocked{Reason: reason}, nil
			}

			return nil, &ModelError{
				Provider: openAIProvider,
				Err: fmt.Errorf(
					"response is incomplete (reason = %s, maxOutputTokens = %d)",
					reason,
					maxOutputTokens,
				),
			}
		}

		text := strings.TrimSpace(resp.OutputText())
		if text == "" {
			return nil, &ModelError{
				Provider: openAIProvider,
				Err:      fmt.Errorf("output text is missing (status = %s)", resp.Status),
			}
		}

		return Parse(text, req.Fields), nil
	}
}
