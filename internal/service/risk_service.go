package service

import (
	"context"
	"encoding/json"
	"strings"

	"lexguard-go/internal/model"
	"lexguard-go/pkg/llm"
	"lexguard-go/pkg/log"
)

// RiskScanner classifies a document's legal risk. Scan never returns an
// error: risk classification is an enrichment, and any failure yields the
// zero-risk default so ingestion is never blocked.
type RiskScanner interface {
	Scan(ctx context.Context, text string) model.RiskResult
}

type riskScanner struct {
	llmClient llm.Client
	maxPrefix int
}

// NewRiskScanner creates a RiskScanner that reads at most maxPrefix runes
// of the document, bounded by the model's context window.
func NewRiskScanner(llmClient llm.Client, maxPrefix int) RiskScanner {
	if maxPrefix <= 0 {
		maxPrefix = 12000
	}
	return &riskScanner{llmClient: llmClient, maxPrefix: maxPrefix}
}

const riskPromptTemplate = `Instruction: Act as a Senior Legal Risk Officer.
Analyze the following legal document text for critical risks.
Focus on:
1. Unlimited Liability (High Risk)
2. Missing Termination for Convenience (Medium Risk)
3. Unilateral Indemnification (High Risk)
4. Non-Compete Clauses > 2 Years (Medium Risk)

Return ONLY a JSON object in this format:
{"score": "High" or "Medium" or "Low", "flags": ["Brief description of risk 1", "Brief description of risk 2"]}

Document Text (Truncated):
`

// Scan asks the model for a risk classification of the text prefix.
func (s *riskScanner) Scan(ctx context.Context, text string) model.RiskResult {
	runes := []rune(text)
	if len(runes) > s.maxPrefix {
		runes = runes[:s.maxPrefix]
	}

	temp := 0.1
	maxTokens := 512
	raw, err := s.llmClient.Complete(ctx,
		[]llm.Message{{Role: model.RoleUser, Content: riskPromptTemplate + string(runes)}},
		&llm.GenerationParams{Temperature: &temp, MaxTokens: &maxTokens},
	)
	if err != nil {
		log.Warnf("[RiskScanner] risk scan failed, using default: %v", err)
		return model.DefaultRiskResult()
	}

	result, ok := parseRiskResponse(raw)
	if !ok {
		log.Warnf("[RiskScanner] could not parse risk response, using default")
		return model.DefaultRiskResult()
	}
	return result
}

// parseRiskResponse extracts the JSON object between the first '{' and the
// last '}' of a model completion. Models pad JSON with prose; this keeps
// the scanner tolerant of it.
func parseRiskResponse(raw string) (model.RiskResult, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return model.RiskResult{}, false
	}

	var result model.RiskResult
	if err := json.Unmarshal([]byte(raw[start:end+1]), &result); err != nil {
		return model.RiskResult{}, false
	}

	switch result.Score {
	case model.RiskLow, model.RiskMedium, model.RiskHigh:
	default:
		return model.RiskResult{}, false
	}
	if result.Flags == nil {
		result.Flags = []string{}
	}
	return result, true
}
