package openai

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultSummaryModel is the chat model used for entry and chunk summaries
	DefaultSummaryModel = openai.GPT4oMini
	// DefaultVisionModel is the chat model used for image descriptions
	DefaultVisionModel = openai.GPT4oMini
	// DefaultMaxInputChars caps how much document text goes into one summary prompt
	DefaultMaxInputChars = 16000
)

var (
	// ErrEmptyContent is returned when there is no text to summarize
	ErrEmptyContent = errors.New("content cannot be empty")
	// ErrEmptyImageURL is returned when no image URL is provided
	ErrEmptyImageURL = errors.New("image URL cannot be empty")
	// ErrEmptyCompletion is returned when the model answers with nothing usable
	ErrEmptyCompletion = errors.New("model returned an empty completion")
	// ErrNoAPIKey is returned when OpenAI API key is not set
	ErrNoAPIKey = errors.New("OPENAI_API_KEY environment variable not set")
)

const (
	documentSummaryPrompt = "You write summaries for a team knowledge bank. " +
		"Summarize the document in 2-3 plain sentences covering its purpose and key facts. " +
		"Answer with the summary only."
	chunkSummaryPrompt = "You write chapter summaries for a team knowledge bank. " +
		"Summarize this part of a longer document in 1-2 plain sentences. " +
		"Answer with the summary only."
	imageDescriptionPrompt = "Describe this image for a team knowledge bank: " +
		"what it shows and any text it contains, in 2-3 plain sentences."
)

// SummaryAPI defines the interface for chat completion calls
type SummaryAPI interface {
	CreateCompletion(ctx context.Context, model, system, user string) (string, error)
	CreateVisionCompletion(ctx context.Context, model, prompt, imageURL string) (string, error)
}

// Client wraps the OpenAI API client
type Client struct {
	api           SummaryAPI
	summaryModel  string
	visionModel   string
	maxInputChars int
}

type OpenAIAdapter struct {
	client *openai.Client
}

func NewOpenAIAdapter(apiKey string) *OpenAIAdapter {
	return &OpenAIAdapter{client: openai.NewClient(apiKey)}
}

// CreateCompletion calls the OpenAI chat API with a system and user message
func (a *OpenAIAdapter) CreateCompletion(ctx context.Context, model, system, user string) (string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	return resp.Choices[0].Message.Content, nil
}

// CreateVisionCompletion calls the OpenAI chat API with an image part
func (a *OpenAIAdapter) CreateVisionCompletion(ctx context.Context, model, prompt, imageURL string) (string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: prompt},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    imageURL,
							Detail: openai.ImageURLDetailAuto,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	return resp.Choices[0].Message.Content, nil
}

type Config struct {
	APIKey        string
	SummaryModel  string
	VisionModel   string
	MaxInputChars int
}

// NewClient creates a new OpenAI client using defaults.
func NewClient(apiKey string) *Client {
	return NewClientWithConfig(Config{APIKey: apiKey})
}

// NewClientWithConfig creates a new OpenAI client with explicit configuration.
func NewClientWithConfig(cfg Config) *Client {
	summaryModel := cfg.SummaryModel
	if summaryModel == "" {
		summaryModel = DefaultSummaryModel
	}
	visionModel := cfg.VisionModel
	if visionModel == "" {
		visionModel = DefaultVisionModel
	}
	maxInputChars := cfg.MaxInputChars
	if maxInputChars <= 0 {
		maxInputChars = DefaultMaxInputChars
	}
	return &Client{
		api:           NewOpenAIAdapter(cfg.APIKey),
		summaryModel:  summaryModel,
		visionModel:   visionModel,
		maxInputChars: maxInputChars,
	}
}

// NewClientFromEnv creates a new OpenAI client using OPENAI_API_KEY environment variable
func NewClientFromEnv() (*Client, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	return NewClient(apiKey), nil
}

// SummarizeDocument produces a short summary of a whole entry
func (c *Client) SummarizeDocument(ctx context.Context, title, content string) (string, error) {
	return c.summarize(ctx, documentSummaryPrompt, title, content)
}

// SummarizeChunk produces a chapter summary for one part of a longer document
func (c *Client) SummarizeChunk(ctx context.Context, title, content string) (string, error) {
	return c.summarize(ctx, chunkSummaryPrompt, title, content)
}

func (c *Client) summarize(ctx context.Context, system, title, content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyContent
	}

	user := content
	if title != "" {
		user = fmt.Sprintf("Title: %s\n\n%s", title, content)
	}
	user = truncateRunes(user, c.maxInputChars)

	summary, err := c.api.CreateCompletion(ctx, c.summaryModel, system, user)
	if err != nil {
		return "", fmt.Errorf("failed to create summary: %w", err)
	}

	summary = strings.TrimSpace(summary)
	if summary == "" {
		return "", ErrEmptyCompletion
	}

	return summary, nil
}

// DescribeImage derives a text description from a stored image the model can
// fetch through the given URL (a presigned storage link in practice).
func (c *Client) DescribeImage(ctx context.Context, imageURL string) (string, error) {
	if imageURL == "" {
		return "", ErrEmptyImageURL
	}

	description, err := c.api.CreateVisionCompletion(ctx, c.visionModel, imageDescriptionPrompt, imageURL)
	if err != nil {
		return "", fmt.Errorf("failed to describe image: %w", err)
	}

	description = strings.TrimSpace(description)
	if description == "" {
		return "", ErrEmptyCompletion
	}

	return description, nil
}

func truncateRunes(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
