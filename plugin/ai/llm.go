package ai

import (
	"context"
	stderrors "errors"
	"net"
	"net/url"

	"github.com/sashabaranov/go-openai"

	"github.com/hrygo/converse/internal/errors"
)

// Message represents a chat message.
type Message struct {
	Role    string // system, user, assistant
	Content string
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// CompletionService turns an ordered message history into a generated reply.
type CompletionService interface {
	// Complete performs a single chat completion. No retry is performed;
	// retry policy, if any, belongs to the caller.
	Complete(ctx context.Context, messages []Message) (string, error)
}

// Config holds the completion client configuration.
// Nil generation parameters are omitted from the request payload entirely;
// vendor APIs treat omission and explicit defaults differently.
type Config struct {
	BaseURL   string
	APIKey    string
	ChatModel string

	Temperature      *float32
	MaxTokens        *int
	TopP             *float32
	FrequencyPenalty *float32
	PresencePenalty  *float32
}

type completionService struct {
	client *openai.Client
	config *Config
}

// NewCompletionService creates a completion client against an
// OpenAI-compatible chat completion API.
func NewCompletionService(cfg *Config) (CompletionService, error) {
	if cfg == nil {
		return nil, stderrors.New("config is nil")
	}
	if cfg.ChatModel == "" {
		return nil, stderrors.New("chat model is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &completionService{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
	}, nil
}

func (s *completionService) Complete(ctx context.Context, messages []Message) (string, error) {
	llmMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		llmMessages[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	req := openai.ChatCompletionRequest{
		Model:    s.config.ChatModel,
		Messages: llmMessages,
	}
	// Unset parameters stay at their zero value, which the wire codec omits.
	if s.config.Temperature != nil {
		req.Temperature = *s.config.Temperature
	}
	if s.config.MaxTokens != nil {
		req.MaxTokens = *s.config.MaxTokens
	}
	if s.config.TopP != nil {
		req.TopP = *s.config.TopP
	}
	if s.config.FrequencyPenalty != nil {
		req.FrequencyPenalty = *s.config.FrequencyPenalty
	}
	if s.config.PresencePenalty != nil {
		req.PresencePenalty = *s.config.PresencePenalty
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classifyError(err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.UpstreamDecode("completion response has no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

// classifyError maps vendor client failures onto the error taxonomy so that
// no vendor-specific types cross the package boundary.
func classifyError(err error) error {
	var apiErr *openai.APIError
	if stderrors.As(err, &apiErr) {
		return errors.UpstreamProtocol(apiErr.HTTPStatusCode, apiErr.Message, err)
	}

	var reqErr *openai.RequestError
	if stderrors.As(err, &reqErr) {
		return errors.UpstreamProtocol(reqErr.HTTPStatusCode, reqErr.Error(), err)
	}

	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, context.Canceled) {
		return errors.UpstreamTransport("completion API call timed out", err)
	}

	var urlErr *url.Error
	var netErr net.Error
	if stderrors.As(err, &urlErr) || stderrors.As(err, &netErr) {
		return errors.UpstreamTransport("completion API unreachable", err)
	}

	return errors.UpstreamTransport("completion API request failed", err)
}
