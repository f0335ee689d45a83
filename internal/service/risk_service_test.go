package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"lexguard-go/internal/model"
	"lexguard-go/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedLLM struct {
	response string
	fail     bool
	prompts  []string
}

func (c *scriptedLLM) Complete(ctx context.Context, messages []llm.Message, gen *llm.GenerationParams) (string, error) {
	for _, m := range messages {
		c.prompts = append(c.prompts, m.Content)
	}
	if c.fail {
		return "", fmt.Errorf("model endpoint down")
	}
	return c.response, nil
}

func (c *scriptedLLM) StreamChatMessages(ctx context.Context, messages []llm.Message, gen *llm.GenerationParams, writer llm.MessageWriter) error {
	if c.fail {
		return fmt.Errorf("model endpoint down")
	}
	return writer.WriteMessage(1, []byte(c.response))
}

func TestScanParsesCleanJSON(t *testing.T) {
	client := &scriptedLLM{response: `{"score": "High", "flags": ["Unlimited liability in section 9"]}`}
	scanner := NewRiskScanner(client, 12000)

	result := scanner.Scan(context.Background(), "contract text")
	assert.Equal(t, model.RiskHigh, result.Score)
	assert.Equal(t, []string{"Unlimited liability in section 9"}, result.Flags)
}

func TestScanExtractsJSONFromProse(t *testing.T) {
	client := &scriptedLLM{response: "Here is my assessment:\n```json\n{\"score\": \"Medium\", \"flags\": [\"Non-compete exceeds 2 years\"]}\n```\nLet me know if you need more."}
	scanner := NewRiskScanner(client, 12000)

	result := scanner.Scan(context.Background(), "contract text")
	assert.Equal(t, model.RiskMedium, result.Score)
	assert.Equal(t, []string{"Non-compete exceeds 2 years"}, result.Flags)
}

func TestScanDefaultsOnModelFailure(t *testing.T) {
	scanner := NewRiskScanner(&scriptedLLM{fail: true}, 12000)

	result := scanner.Scan(context.Background(), "contract text")
	assert.Equal(t, model.RiskLow, result.Score)
	assert.Empty(t, result.Flags)
	assert.NotNil(t, result.Flags)
}

func TestScanDefaultsOnGarbageResponse(t *testing.T) {
	for _, response := range []string{
		"I cannot classify this document.",
		`{"score": "Catastrophic", "flags": []}`,
		`{"score": `,
	} {
		scanner := NewRiskScanner(&scriptedLLM{response: response}, 12000)
		result := scanner.Scan(context.Background(), "contract text")
		assert.Equal(t, model.RiskLow, result.Score, "response: %s", response)
		assert.Empty(t, result.Flags)
	}
}

func TestScanNilFlagsBecomeEmpty(t *testing.T) {
	scanner := NewRiskScanner(&scriptedLLM{response: `{"score": "Low"}`}, 12000)

	result := scanner.Scan(context.Background(), "contract text")
	assert.Equal(t, model.RiskLow, result.Score)
	assert.NotNil(t, result.Flags)
	assert.Empty(t, result.Flags)
}

func TestScanTruncatesPrefix(t *testing.T) {
	client := &scriptedLLM{response: `{"score": "Low", "flags": []}`}
	scanner := NewRiskScanner(client, 50)

	scanner.Scan(context.Background(), strings.Repeat("z", 5000))
	require.Len(t, client.prompts, 1)

	// Prompt carries the template plus at most 50 runes of document text.
	assert.True(t, strings.HasSuffix(client.prompts[0], strings.Repeat("z", 50)))
	assert.NotContains(t, client.prompts[0], strings.Repeat("z", 51))
}
