package suggest

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Ollama defaults.
const (
	DefaultOllamaURL = "http://localhost:11434/api"
	DefaultTimeout   = 5 * time.Second
)

// Generation options sent with every request.
const (
	temperature = 0.1
	topP        = 0.9
	maxTokens   = 20
)

// maxResponseSize bounds the body read from the server.
const maxResponseSize = 1 << 20

//go:embed ollama_response.schema.json
var ollamaResponseSchema string

const ollamaSchemaURL = "ollama-generate-response.json"

var compileResponseSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(ollamaSchemaURL, strings.NewReader(ollamaResponseSchema)); err != nil {
		return nil, fmt.Errorf("add response schema: %w", err)
	}
	return compiler.Compile(ollamaSchemaURL)
})

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	MaxTokens   int     `json:"max_tokens"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Ollama completes text with a local Ollama server.
type Ollama struct {
	baseURL string
	model   string
	client  *http.Client
}

// OllamaOption configures an Ollama provider.
type OllamaOption func(*Ollama)

// WithBaseURL sets the API base URL, e.g. "http://localhost:11434/api".
func WithBaseURL(url string) OllamaOption {
	return func(o *Ollama) {
		if url != "" {
			o.baseURL = strings.TrimRight(url, "/")
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) OllamaOption {
	return func(o *Ollama) {
		if c != nil {
			o.client = c
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) OllamaOption {
	return func(o *Ollama) {
		if d > 0 {
			o.client = &http.Client{Timeout: d, Transport: o.client.Transport}
		}
	}
}

// NewOllama returns a provider using model.
func NewOllama(model string, opts ...OllamaOption) *Ollama {
	o := &Ollama{
		baseURL: DefaultOllamaURL,
		model:   model,
		client:  &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Model returns the model name.
func (o *Ollama) Model() string { return o.model }

// Complete posts text as the prompt to the generate endpoint.
func (o *Ollama) Complete(ctx context.Context, text string) (string, error) {
	if text == "" {
		return "", ErrEmptyContext
	}

	body, err := json.Marshal(generateRequest{
		Model:  o.model,
		Prompt: text,
		Stream: false,
		Options: generateOptions{
			Temperature: temperature,
			TopP:        topP,
			MaxTokens:   maxTokens,
		},
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: %s", ErrBadStatus, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	parsed, err := decodeResponse(data)
	if err != nil {
		return "", err
	}
	return Extract(parsed.Response), nil
}

func decodeResponse(data []byte) (generateResponse, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return generateResponse{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	schema, err := compileResponseSchema()
	if err != nil {
		return generateResponse{}, err
	}
	if err := schema.Validate(doc); err != nil {
		return generateResponse{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	var parsed generateResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return generateResponse{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return parsed, nil
}
