package llm

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/matej/doc-triage/internal/core"
)

// Response is the structured document analysis a model is asked to produce.
type Response struct {
	DocumentType     string         `json:"document_type"`
	Score            int            `json:"score"`
	Breakdown        map[string]int `json:"breakdown"`
	Reasoning        string         `json:"reasoning"`
	Tags             []string       `json:"tags"`
	Correspondent    string         `json:"correspondent"`
	DetectedAmount   float64        `json:"detected_amount"`
	DetectedCurrency string         `json:"detected_currency"`
	SubscriptionType string         `json:"subscription_type"`
}

// ParseError reports a model response that could not be turned into a
// Response. Raw carries the original text for logging and audit.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse model response as JSON: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parse extracts a Response from raw model output. Markdown code fences are
// stripped, and prose around the JSON object is tolerated by scanning from
// the first '{' to the last '}'. The claimed score is clamped to the
// composite scale; everything else the model claims is validated downstream.
func Parse(responseText string) (*Response, error) {
	text := stripFences(strings.TrimSpace(responseText))

	var response Response
	err := json.Unmarshal([]byte(text), &response)
	if err != nil {
		start := strings.IndexByte(text, '{')
		end := strings.LastIndexByte(text, '}')
		if start < 0 || end <= start {
			return nil, &ParseError{Raw: responseText, Err: err}
		}
		if err := json.Unmarshal([]byte(text[start:end+1]), &response); err != nil {
			return nil, &ParseError{Raw: responseText, Err: err}
		}
	}

	if response.Score < 0 {
		response.Score = 0
	}
	if response.Score > core.MaxPossibleScore {
		response.Score = core.MaxPossibleScore
	}
	return &response, nil
}

// Analysis converts the parsed response into the core analysis record.
func (r *Response) Analysis(modelUsed, processingID string) *core.DocumentAnalysis {
	return &core.DocumentAnalysis{
		DocumentType:     r.DocumentType,
		Score:            r.Score,
		Breakdown:        r.Breakdown,
		Reasoning:        r.Reasoning,
		Tags:             r.Tags,
		Correspondent:    r.Correspondent,
		DetectedAmount:   r.DetectedAmount,
		DetectedCurrency: r.DetectedCurrency,
		SubscriptionType: r.SubscriptionType,
		ModelUsed:        modelUsed,
		ProcessingID:     processingID,
		AnalyzedAt:       time.Now(),
	}
}

func stripFences(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[idx+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
