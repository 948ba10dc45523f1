package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aiwolfdial/turandot/model"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type Options struct {
	MaxAttempts   int
	MaxToolRounds int
	MaxRetries    int
	Timeout       time.Duration
}

func OptionsFromConfig(config model.Config) Options {
	return Options{
		MaxAttempts:   config.LLM.MaxAttempts,
		MaxToolRounds: config.LLM.MaxToolRounds,
		MaxRetries:    config.LLM.MaxRetries,
		Timeout:       config.LLM.Timeout,
	}
}

type Client struct {
	credentials Credentials
	options     Options
	api         openai.Client
}

var endpointSuffixes = []string{"/chat/completions", "/v1/chat/completions"}

func NormalizeEndpoint(endpoint string) string {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	for _, suffix := range endpointSuffixes {
		if len(endpoint) >= len(suffix) && strings.EqualFold(endpoint[len(endpoint)-len(suffix):], suffix) {
			return strings.TrimRight(endpoint[:len(endpoint)-len(suffix)], "/")
		}
	}
	return endpoint
}

func NewClient(credentials Credentials, options Options) *Client {
	requestOptions := []option.RequestOption{
		option.WithAPIKey(credentials.APIKey),
		option.WithMaxRetries(max(options.MaxRetries, 0)),
	}
	if endpoint := NormalizeEndpoint(credentials.Endpoint); endpoint != "" {
		requestOptions = append(requestOptions, option.WithBaseURL(endpoint+"/"))
	}
	if options.Timeout > 0 {
		requestOptions = append(requestOptions, option.WithRequestTimeout(options.Timeout))
	}
	return &Client{
		credentials: credentials,
		options:     options,
		api:         openai.NewClient(requestOptions...),
	}
}

func (c *Client) Model() string {
	return c.credentials.Model
}

func (c *Client) params(messages []model.Message, temperature float64) openai.ChatCompletionNewParams {
	params := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, message := range messages {
		switch message.Role {
		case model.MessageSystem:
			params = append(params, openai.SystemMessage(message.Content))
		case model.MessageAssistant:
			params = append(params, openai.AssistantMessage(message.Content))
		default:
			params = append(params, openai.UserMessage(message.Content))
		}
	}
	return openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.credentials.Model),
		Messages:    params,
		Temperature: openai.Float(temperature),
	}
}

func (c *Client) Send(ctx context.Context, messages []model.Message, tools []ToolSpec, temperature float64) (string, error) {
	params := c.params(messages, temperature)
	registry := make(map[string]ToolSpec, len(tools))
	for _, tool := range tools {
		params.Tools = append(params.Tools, tool.param())
		registry[tool.Name] = tool
	}

	for round := 0; round <= max(c.options.MaxToolRounds, 0); round++ {
		completion, err := c.api.Chat.Completions.New(ctx, params)
		if err != nil {
			return "", fmt.Errorf("chat completion failed: %w", err)
		}
		if len(completion.Choices) == 0 {
			return "", errors.New("no choices in response")
		}
		message := completion.Choices[0].Message
		if len(message.ToolCalls) == 0 || len(registry) == 0 {
			return message.Content, nil
		}
		params.Messages = append(params.Messages, message.ToParam())
		for _, call := range message.ToolCalls {
			result := c.invoke(ctx, registry, call.Function.Name, call.Function.Arguments)
			slog.Debug("ツールを実行しました", "tool", call.Function.Name, "result", result)
			params.Messages = append(params.Messages, openai.ToolMessage(result, call.ID))
		}
	}
	return "", fmt.Errorf("tool call rounds exceeded %d", c.options.MaxToolRounds)
}

func (c *Client) invoke(ctx context.Context, registry map[string]ToolSpec, name string, raw string) string {
	tool, ok := registry[name]
	if !ok {
		return fmt.Sprintf("error: unknown tool %s", name)
	}
	if tool.Handler == nil {
		return fmt.Sprintf("error: tool %s has no handler", name)
	}
	args, err := tool.Arguments(raw)
	if err != nil {
		return "error: " + err.Error()
	}
	result, err := tool.Handler(ctx, args)
	if err != nil {
		return "error: " + err.Error()
	}
	return result
}

func (c *Client) SendStreaming(ctx context.Context, messages []model.Message, temperature float64) (<-chan string, <-chan error) {
	contentChan := make(chan string, 64)
	errorChan := make(chan error, 1)
	params := c.params(messages, temperature)

	go func() {
		defer close(errorChan)
		defer close(contentChan)

		stream := c.api.Chat.Completions.NewStreaming(ctx, params)
		defer stream.Close()
		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			delta := chunk.Choices[0].Delta.Content
			if delta == "" {
				continue
			}
			select {
			case contentChan <- delta:
			case <-ctx.Done():
				errorChan <- ctx.Err()
				return
			}
		}
		if err := stream.Err(); err != nil {
			errorChan <- fmt.Errorf("streaming failed: %w", err)
		}
	}()
	return contentChan, errorChan
}

// Stream drains SendStreaming, passing every delta to onDelta, and returns the
// whole reply.
func (c *Client) Stream(ctx context.Context, messages []model.Message, temperature float64, onDelta func(string)) (string, error) {
	contentChan, errorChan := c.SendStreaming(ctx, messages, temperature)
	var builder strings.Builder
	for delta := range contentChan {
		builder.WriteString(delta)
		if onDelta != nil {
			onDelta(delta)
		}
	}
	if err := <-errorChan; err != nil {
		return builder.String(), err
	}
	return builder.String(), nil
}

func (c *Client) Decide(ctx context.Context, messages []model.Message, tool ToolSpec, temperature float64) (map[string]any, error) {
	params := c.params(messages, temperature)
	params.Tools = []openai.ChatCompletionToolParam{tool.param()}
	params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{
		OfAuto: openai.String("required"),
	}
	params.ParallelToolCalls = openai.Bool(false)

	attempts := max(c.options.MaxAttempts, 1)
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		completion, err := c.api.Chat.Completions.New(ctx, params)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = fmt.Errorf("chat completion failed: %w", err)
			slog.Warn("ツール呼び出しの取得に失敗しました", "tool", tool.Name, "attempt", attempt, "error", err)
			continue
		}
		args, err := tool.extract(completion)
		if err == nil {
			return args, nil
		}
		lastErr = err
		slog.Warn("ツール呼び出しが不正です", "tool", tool.Name, "attempt", attempt, "error", err)
		params.Messages = append(params.Messages, openai.UserMessage(fmt.Sprintf(
			"Your previous reply was invalid: %s. Call the %s tool exactly once with valid arguments.", err, tool.Name)))
	}
	return nil, fmt.Errorf("no valid %s call after %d attempts: %w", tool.Name, attempts, lastErr)
}
