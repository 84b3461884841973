package openai

import (
	"context"
	"fmt"

	"github.com/matej/doc-triage/internal/core"
	"github.com/matej/doc-triage/internal/llm"
	"github.com/matej/doc-triage/internal/utils"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Analyzer is an implementation of the DocumentAnalyzer interface using OpenAI
type Analyzer struct {
	client        *openai.Client
	modelName     string
	maxTokens     int
	temperature   float32
	topP          float32
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewAnalyzer creates a new OpenAI analyzer
func NewAnalyzer(
	client *openai.Client,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *Analyzer {
	return &Analyzer{
		client:        client,
		modelName:     modelName,
		maxTokens:     maxTokens,
		temperature:   temperature,
		topP:          topP,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// AnalyzeDocument classifies an email into a document type
func (a *Analyzer) AnalyzeDocument(ctx context.Context, email *core.Email) (*core.DocumentAnalysis, error) {
	// Process the body (sanitize and truncate)
	processedBody := a.textProcessor.ProcessText(email.Body, a.maxBodySize)

	prompt := fmt.Sprintf(llm.PromptFormat, email.From, llm.FormatRecipients(email.To), email.Subject, processedBody)

	req := openai.ChatCompletionRequest{
		Model: a.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a document classification system. Respond only with JSON.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   a.maxTokens,
		Temperature: a.temperature,
		TopP:        a.topP,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	// Call OpenAI API
	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion with OpenAI: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from OpenAI")
	}

	parsed, err := llm.Parse(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	return parsed.Analysis(a.modelName, resp.ID), nil
}
