package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/developia-II/ratemy-backend/internal/config"
	"github.com/developia-II/ratemy-backend/utils"
	"github.com/sashabaranov/go-openai"
)

const (
	maxSummaryReviews = 50
	maxReviewChars    = 1500
)

// Summary is the generated digest of one subject's written reviews.
type Summary struct {
	Subject     string `json:"subject"`
	ReviewCount int    `json:"reviewCount"`
	Summary     string `json:"summary"`
}

// SummaryService condenses review texts through Groq's OpenAI-compatible chat API.
type SummaryService struct {
	client *openai.Client
	model  string
}

// NewSummaryService returns a service whose calls fail with 503 when no API key is configured.
func NewSummaryService(cfg config.GroqConfig) *SummaryService {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return &SummaryService{}
	}
	c := openai.DefaultConfig(apiKey)
	c.BaseURL = cfg.BaseURL

	return &SummaryService{
		client: openai.NewClientWithConfig(c),
		model:  cfg.Model,
	}
}

func (g *SummaryService) Enabled() bool {
	return g.client != nil
}

// Summarize asks the model for a short, neutral digest of reviews about subject.
func (g *SummaryService) Summarize(ctx context.Context, kind, subject string, reviews []string) (*Summary, error) {
	if !g.Enabled() {
		return nil, utils.Unavailable("Review summaries are not configured")
	}
	out := &Summary{Subject: subject, ReviewCount: len(reviews)}
	if len(reviews) == 0 {
		out.Summary = "No written reviews yet."
		return out, nil
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    BuildSummaryMessages(kind, subject, reviews),
		Temperature: 0.3,
		MaxTokens:   400,
	})
	if err != nil {
		return nil, utils.Internal(fmt.Errorf("groq API error: %w", err))
	}
	if len(resp.Choices) == 0 {
		return nil, utils.Internal(fmt.Errorf("no response from Groq"))
	}
	out.Summary = strings.TrimSpace(resp.Choices[0].Message.Content)
	return out, nil
}

// BuildSummaryMessages turns the newest reviews into a chat prompt. Long reviews are cut
// and at most maxSummaryReviews are sent.
func BuildSummaryMessages(kind, subject string, reviews []string) []openai.ChatCompletionMessage {
	if len(reviews) > maxSummaryReviews {
		reviews = reviews[len(reviews)-maxSummaryReviews:]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Reviews of %s %q:\n", kind, subject)
	for i, r := range reviews {
		r = strings.TrimSpace(r)
		if runes := []rune(r); len(runes) > maxReviewChars {
			r = string(runes[:maxReviewChars]) + "..."
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, r)
	}

	return []openai.ChatCompletionMessage{
		{
			Role: openai.ChatMessageRoleSystem,
			Content: "You summarize workplace reviews for job seekers. Write three to five sentences covering " +
				"recurring strengths and recurring concerns. Stay neutral, do not invent facts, do not quote " +
				"reviewers or mention anyone other than the " + kind + " by name.",
		},
		{
			Role:    openai.ChatMessageRoleUser,
			Content: b.String(),
		},
	}
}
