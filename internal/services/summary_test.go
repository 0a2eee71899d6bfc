package services

import (
	"context"
	"strings"
	"testing"

	"github.com/developia-II/ratemy-backend/internal/config"
	"github.com/developia-II/ratemy-backend/utils"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryDisabledWithoutKey(t *testing.T) {
	s := NewSummaryService(config.GroqConfig{APIKey: "  "})
	assert.False(t, s.Enabled())

	_, err := s.Summarize(context.Background(), "manager", "Grace", []string{"fine"})
	status, msg := utils.StatusOf(err)
	assert.Equal(t, 503, status)
	assert.Equal(t, "Review summaries are not configured", msg)
}

func TestSummaryWithoutReviewsSkipsModel(t *testing.T) {
	s := NewSummaryService(config.GroqConfig{APIKey: "key", Model: "m", BaseURL: "http://127.0.0.1:1"})
	require.True(t, s.Enabled())

	out, err := s.Summarize(context.Background(), "interviewer", "Alan", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, out.ReviewCount)
	assert.Equal(t, "No written reviews yet.", out.Summary)
}

func TestBuildSummaryMessages(t *testing.T) {
	msgs := BuildSummaryMessages("manager", "Grace Hopper", []string{"  Clear goals.  ", "Fair reviews."})
	require.Len(t, msgs, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "manager")
	assert.Equal(t, openai.ChatMessageRoleUser, msgs[1].Role)
	assert.Equal(t, "Reviews of manager \"Grace Hopper\":\n1. Clear goals.\n2. Fair reviews.\n", msgs[1].Content)
}

func TestBuildSummaryMessagesBoundsInput(t *testing.T) {
	reviews := make([]string, maxSummaryReviews+10)
	for i := range reviews {
		reviews[i] = "ok"
	}
	reviews[len(reviews)-1] = strings.Repeat("é", maxReviewChars+20)

	msgs := BuildSummaryMessages("interviewer", "Alan", reviews)
	body := msgs[1].Content
	assert.Contains(t, body, "\n50. ")
	assert.NotContains(t, body, "\n51. ")
	assert.Contains(t, body, strings.Repeat("é", maxReviewChars)+"...")
	assert.NotContains(t, body, strings.Repeat("é", maxReviewChars+1))
}
