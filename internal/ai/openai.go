// Package ai wraps the LLM providers behind circuit breakers.
package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/goccy/go-json"
	openai "github.com/sashabaranov/go-openai"

	"github.com/emilythestrangee/cheffry/backend/internal/config"
)

// Message is one turn of a chat history.
type Message struct {
	Role    string
	Content string
}

const (
	RoleUser      = openai.ChatMessageRoleUser
	RoleAssistant = openai.ChatMessageRoleAssistant
)

// OpenAI talks to any OpenAI-compatible chat completions endpoint.
type OpenAI struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	timeout     time.Duration
	breaker     *Breaker
}

// NewOpenAI builds a client from config. Without an API key every call
// returns ErrNotConfigured.
func NewOpenAI(cfg config.AIConfig) *OpenAI {
	o := &OpenAI{
		model:       cfg.ChatModel,
		maxTokens:   cfg.MaxChatTokens,
		temperature: cfg.Temperature,
		timeout:     cfg.RequestTimeout,
		breaker:     NewBreaker("openai", cfg.BreakerFailures, cfg.BreakerTimeout),
	}
	if cfg.OpenAIAPIKey == "" {
		return o
	}
	oc := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.OpenAIBaseURL, "/")
	}
	o.client = openai.NewClientWithConfig(oc)
	return o
}

func (o *OpenAI) Configured() bool { return o.client != nil }

// StreamChat streams a completion for history under the system prompt. Each
// text chunk is passed to onDelta; an error from onDelta aborts the stream.
// The full reply is returned once the stream ends.
func (o *OpenAI) StreamChat(ctx context.Context, system string, history []Message, onDelta func(string) error) (string, error) {
	if o.client == nil {
		return "", ErrNotConfigured
	}

	msgs := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	for _, m := range history {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	var reply strings.Builder
	err := o.breaker.Do("chat", func() error {
		stream, err := o.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
			Model:       o.model,
			Messages:    msgs,
			MaxTokens:   o.maxTokens,
			Temperature: o.temperature,
			Stream:      true,
		})
		if err != nil {
			return fmt.Errorf("create stream: %w", err)
		}
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("receive stream: %w", err)
			}
			if len(resp.Choices) == 0 {
				continue
			}
			chunk := resp.Choices[0].Delta.Content
			if chunk == "" {
				continue
			}
			reply.WriteString(chunk)
			if onDelta != nil {
				if err := onDelta(chunk); err != nil {
					return err
				}
			}
		}
	})
	if err != nil {
		return "", err
	}
	return reply.String(), nil
}

// GenerateJSON asks for a JSON object and decodes it into out.
func (o *OpenAI) GenerateJSON(ctx context.Context, prompt string, maxTokens int, out any) error {
	if o.client == nil {
		return ErrNotConfigured
	}
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}
	return o.breaker.Do("json", func() error {
		resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: o.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			MaxTokens: maxTokens,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		})
		if err != nil {
			return fmt.Errorf("create completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("%w: completion returned no choices", ErrBadResponse)
		}
		if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), out); err != nil {
			return fmt.Errorf("%w: decode completion: %v", ErrBadResponse, err)
		}
		return nil
	})
}
