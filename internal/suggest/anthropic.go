package suggest

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultAnthropicModel is used when no model is configured.
const DefaultAnthropicModel = "claude-3-5-haiku-latest"

const anthropicSystemPrompt = "You continue Traditional Chinese text typed with a Bopomofo input method. " +
	"Reply with only the words most likely to follow the user's text, without repeating it, " +
	"no more than one short phrase."

// Anthropic completes text with the Anthropic Messages API.
type Anthropic struct {
	client anthropic.Client
	model  string
}

// NewAnthropic returns a provider using model. An empty apiKey lets the SDK
// read ANTHROPIC_API_KEY from the environment.
func NewAnthropic(model, apiKey string, opts ...option.RequestOption) *Anthropic {
	if model == "" {
		model = DefaultAnthropicModel
	}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	return &Anthropic{client: anthropic.NewClient(opts...), model: model}
}

// Model returns the model name.
func (a *Anthropic) Model() string { return a.model }

// Complete asks the model for a continuation of text.
func (a *Anthropic) Complete(ctx context.Context, text string) (string, error) {
	if text == "" {
		return "", ErrEmptyContext
	}

	message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(a.model),
		MaxTokens:   int64(maxTokens),
		Temperature: anthropic.Float(temperature),
		TopP:        anthropic.Float(topP),
		System:      []anthropic.TextBlockParam{{Text: anthropicSystemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(text)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("messages: %w", err)
	}

	var out strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("%w: no text content", ErrMalformedResponse)
	}
	return Extract(out.String()), nil
}
