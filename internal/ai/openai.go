package ai

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider talks to the OpenAI chat completions API, or to any
// OpenAI-compatible endpoint when BaseURL is set.
type OpenAIProvider struct {
	APIKey      string
	Model       string
	Temperature float32

	client *openai.Client
}

func NewOpenAIProvider(apiKey, baseURL, model string, temperature float32) *OpenAIProvider {
	if model == "" {
		model = openai.GPT4oMini
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	// no global timeout; ctx controls streaming calls
	cfg.HTTPClient = &http.Client{}

	return &OpenAIProvider{
		APIKey:      apiKey,
		Model:       model,
		Temperature: temperature,
		client:      openai.NewClientWithConfig(cfg),
	}
}

func (p *OpenAIProvider) request(messages []Message, stream bool) openai.ChatCompletionRequest {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	return openai.ChatCompletionRequest{
		Model:       p.Model,
		Messages:    out,
		Temperature: p.Temperature,
		Stream:      stream,
	}
}

func (p *OpenAIProvider) check() error {
	if p.client == nil {
		return errors.New("openai: client is nil")
	}
	if strings.TrimSpace(p.APIKey) == "" {
		return errors.New("openai: api key is required")
	}
	return nil
}

func (p *OpenAIProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	if err := p.check(); err != nil {
		return "", err
	}
	resp, err := p.client.CreateChatCompletion(ctx, p.request(messages, false))
	if err != nil {
		return "", errors.Wrap(err, "openai: chat completion")
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: empty response")
	}
	return resp.Choices[0].Message.Content, nil
}

// StreamChat streams assistant content deltas.
func (p *OpenAIProvider) StreamChat(ctx context.Context, messages []Message) (<-chan string, <-chan error) {
	chunks := make(chan string, 16)
	errs := make(chan error, 1)

	go func() {
		defer close(chunks)
		defer close(errs)

		if err := p.check(); err != nil {
			errs <- err
			return
		}

		stream, err := p.client.CreateChatCompletionStream(ctx, p.request(messages, true))
		if err != nil {
			errs <- errors.Wrap(err, "openai: open stream")
			return
		}
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				errs <- errors.Wrap(err, "openai: stream recv")
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			delta := resp.Choices[0].Delta.Content
			if delta == "" {
				continue
			}
			select {
			case chunks <- delta:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}
	}()

	return chunks, errs
}
