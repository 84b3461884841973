package gemini

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"github.com/matej/doc-triage/internal/core"
	"github.com/matej/doc-triage/internal/llm"
	"github.com/matej/doc-triage/internal/utils"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Analyzer is an implementation of the DocumentAnalyzer interface using Google Gemini
type Analyzer struct {
	client        *genai.Client
	model         *genai.GenerativeModel
	modelName     string
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewAnalyzer creates a new Gemini analyzer
func NewAnalyzer(
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) (*Analyzer, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SetTopP(topP)
	model.SetMaxOutputTokens(int32(maxTokens))

	return &Analyzer{
		client:        client,
		model:         model,
		modelName:     modelName,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
	}, nil
}

// Close closes the Gemini client
func (a *Analyzer) Close() error {
	if a.client != nil {
		return a.client.Close()
	}
	return nil
}

// AnalyzeDocument classifies an email into a document type
func (a *Analyzer) AnalyzeDocument(ctx context.Context, email *core.Email) (*core.DocumentAnalysis, error) {
	// Process the body (sanitize and truncate)
	processedBody := a.textProcessor.ProcessText(email.Body, a.maxBodySize)

	prompt := fmt.Sprintf(llm.PromptFormat, email.From, llm.FormatRecipients(email.To), email.Subject, processedBody)

	// Call Gemini API
	resp, err := a.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("failed to generate content with Gemini: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty response from Gemini")
	}

	responseText := fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])

	parsed, err := llm.Parse(responseText)
	if err != nil {
		return nil, err
	}

	return parsed.Analysis(a.modelName, ""), nil
}
