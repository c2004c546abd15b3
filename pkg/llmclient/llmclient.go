// Package llmclient defines the completion-service collaborator consumed
// by the orchestration engine, and an Ollama-backed implementation. The
// engine treats completion as an opaque request/response or streaming
// function; no other wire format is covered here.
package llmclient

import (
	"context"

	"github.com/forgeloop/forged/pkg/types"
)

// CompletionFunc asks the completion service for a single response.
// contextBlock carries the selected related-files context and may be
// empty.
type CompletionFunc func(ctx context.Context, prompt, contextBlock string) (string, error)

// StreamFunc asks the completion service for a streamed response,
// invoking onChunk for each increment.
type StreamFunc func(ctx context.Context, prompt, contextBlock string, onChunk func(chunk string)) error

// PatchFunc asks a collaborator for a structured patch for one validation
// error. A nil patch with nil error means the collaborator has no fix to
// offer.
type PatchFunc func(ctx context.Context, parsed types.ParsedError, fileContent, contextBlock string) (*types.CodePatch, error)

// Client bundles the completion functions a session needs. Any field may
// be nil; callers fall back to rule-based behavior.
type Client struct {
	Complete CompletionFunc
	Stream   StreamFunc
	Patch    PatchFunc
	Model    string
}
