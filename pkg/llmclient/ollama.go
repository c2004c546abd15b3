package llmclient

import (
	"context"
	"fmt"
	"strings"

	ollama "github.com/ollama/ollama/api"

	"github.com/forgeloop/forged/pkg/types"
)

const minOllamaContext = 4096

// NewOllamaClient builds a Client backed by a local Ollama server. The
// server address comes from the environment (OLLAMA_HOST), matching the
// ollama CLI.
func NewOllamaClient(model string) (*Client, error) {
	api, err := ollama.ClientFromEnvironment()
	if err != nil {
		return nil, fmt.Errorf("could not create ollama client: %w", err)
	}

	// The model name may carry an "ollama:" prefix from configuration.
	model = strings.TrimPrefix(model, "ollama:")

	client := &Client{Model: model}
	client.Complete = func(ctx context.Context, prompt, contextBlock string) (string, error) {
		var sb strings.Builder
		err := chat(ctx, api, model, prompt, contextBlock, func(chunk string) {
			sb.WriteString(chunk)
		})
		if err != nil {
			return "", err
		}
		return sb.String(), nil
	}
	client.Stream = func(ctx context.Context, prompt, contextBlock string, onChunk func(string)) error {
		return chat(ctx, api, model, prompt, contextBlock, onChunk)
	}
	return client, nil
}

func chat(ctx context.Context, api *ollama.Client, model, prompt, contextBlock string, onChunk func(string)) error {
	messages := []ollama.Message{
		{Role: "system", Content: "You are an expert code generator. Respond only with what is asked for; do not add commentary."},
	}
	if contextBlock != "" {
		messages = append(messages, ollama.Message{Role: "user", Content: contextBlock})
	}
	messages = append(messages, ollama.Message{Role: "user", Content: prompt})

	// Size the context window to the request with headroom.
	numCtx := types.EstimateTokens(prompt) + types.EstimateTokens(contextBlock) + 1000
	if numCtx < minOllamaContext {
		numCtx = minOllamaContext
	}

	req := &ollama.ChatRequest{
		Model:    model,
		Messages: messages,
		Options: map[string]interface{}{
			"temperature": 0.2,
			"num_ctx":     numCtx,
			"stream":      true,
		},
	}

	err := api.Chat(ctx, req, func(res ollama.ChatResponse) error {
		onChunk(res.Message.Content)
		return nil
	})
	if err != nil {
		return fmt.Errorf("ollama chat failed: %w", err)
	}
	return nil
}
