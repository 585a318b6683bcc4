package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"cloud.google.com/go/vertexai/genai"
)

const (
	DefaultGeminiModel = "gemini-1.5-flash"

	geminiProvider = "gemini"
)

var geminiHarmCategories = []genai.HarmCategory{
	genai.HarmCategoryHateSpeech,
	genai.HarmCategoryDangerousContent,
	genai.HarmCategorySexuallyExplicit,
	genai.HarmCategoryHarassment,
}

type GeminiConfig struct {
	ProjectID string
	Region    string
	Model     string
	// SafetyThreshold is one of none, only_high, medium_and_above or
	// low_and_above. Empty means none.
	SafetyThreshold string
}

type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// GeminiGenerator calls Gemini models on Vertex AI.
type GeminiGenerator struct {
	client   *genai.Client
	newModel func(structured bool) contentGenerator
	log      *slog.Logger
}

func NewGeminiGenerator(
	ctx context.Context,
	cfg GeminiConfig,
	log *slog.Logger,
) (*GeminiGenerator, error) {
	if strings.TrimSpace(cfg.ProjectID) == "" || strings.TrimSpace(cfg.Region) == "" {
		return nil, errors.New("project ID and region are required")
	}

	threshold, err := ParseSafetyThreshold(cfg.SafetyThreshold)
	if err != nil {
		return nil, err
	}

	modelName := strings.TrimSpace(cfg.Model)
	if modelName == "" {
		modelName = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, cfg.ProjectID, cfg.Region)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	safetySettings := make([]*genai.SafetySetting, 0, len(geminiHarmCategories))
	for _, category := range geminiHarmCategories {
		safetySettings = append(safetySettings, &genai.SafetySetting{
			Category:  category,
			Threshold: threshold,
		})
	}

	g := &GeminiGenerator{client: client, log: log}
	g.newModel = func(structured bool) contentGenerator {
		model := client.GenerativeModel(modelName)
		model.SafetySettings = safetySettings
		if structured {
			model.GenerationConfig = genai.GenerationConfig{
				ResponseMIMEType: "application/json",
				Temperature:      genai.Ptr[float32](0.2),
			}
		}
		return model
	}

	return g, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, req Request) (Result, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, &ModelError{Provider: geminiProvider, Err: errors.New("prompt is empty")}
	}

	resp, err := g.newModel(req.Structured()).GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		var blockedErr *genai.BlockedError
		if errors.As(err, &blockedErr) {
			reason := geminiBlockReason(blockedErr.PromptFeedback, blockedErr.Candidate)
			g.log.WarnContext(ctx, "Gemini response is blocked",
				"reason", reason)

			return Blocked{Reason: reason}, nil
		}

		return nil, &ModelError{Provider: geminiProvider, Err: fmt.Errorf("generate content: %w", err)}
	}

	var candidate *genai.Candidate
	if len(resp.Candidates) > 0 {
		candidate = resp.Candidates[0]
	}

	if reason := geminiBlockReason(resp.PromptFeedback, candidate); reason != "" {
		g.log.WarnContext(ctx, "Gemini response is blocked",
			"reason", reason)

		return Blocked{Reason: reason}, nil
	}

	text := strings.TrimSpace(geminiCandidateText(candidate))
	if text == "" {
		return nil, &ModelError{Provider: geminiProvider, Err: errors.New("output text is missing")}
	}

	return Parse(text, req.Fields), nil
}

func (g *GeminiGenerator) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

func ParseSafetyThreshold(raw string) (genai.HarmBlockThreshold, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "none":
		return genai.HarmBlockNone, nil
	case "only_high":
		return genai.HarmBlockOnlyHigh, nil
	case "medium_and_above":
		return genai.HarmBlockMediumAndAbove, nil
	case "low_and_above":
		return genai.HarmBlockLowAndAbove, nil
	default:
		return genai.HarmBlockUnspecified, fmt.Errorf("unknown safety threshold %q", raw)
	}
}

func geminiBlockReason(feedback *genai.PromptFeedback, candidate *genai.Candidate) string {
	if feedback != nil && feedback.BlockReason != genai.BlockedReasonUnspecified {
		reason := fmt.Sprint(feedback.BlockReason)
		if msg := strings.TrimSpace(feedback.BlockReasonMessage); msg != "" {
			reason += ": " + msg
		}
		return reason
	}

	if candidate == nil || candidate.FinishReason != genai.FinishReasonSafety {
		return ""
	}

	var categories []string
	for _, rating := range candidate.SafetyRatings {
		if rating != nil && rating.Blocked {
			categories = append(categories, fmt.Sprint(rating.Category))
		}
	}

	reason := fmt.Sprint(candidate.FinishReason)
	if len(categories) > 0 {
		reason += " (" + strings.Join(categories, ", ") + ")"
	}

	return reason
}

func geminiCandidateText(candidate *genai.Candidate) string {
	if candidate == nil || candidate.Content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}

	return b.String()
}
