// Package responder answers one chat turn: retrieve grounding passages,
// build the persona prompt, and stream the model's output frame by frame to
// the user's connection.
package responder

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/user/schoolaide/internal/types"
	"github.com/user/schoolaide/pkg/llm"
)

// Responder streams retrieval-grounded answers.
type Responder struct {
	retriever       types.Retriever
	provider        llm.Provider
	gateway         types.ConnectionGateway
	knowledgeBaseID string
	persona         Persona
}

// Persona names the assistant and the school it speaks for.
type Persona struct {
	Name   string
	School string
}

func New(retriever types.Retriever, provider llm.Provider, gateway types.ConnectionGateway, knowledgeBaseID string, persona Persona) *Responder {
	return &Responder{
		retriever:       retriever,
		provider:        provider,
		gateway:         gateway,
		knowledgeBaseID: knowledgeBaseID,
		persona:         persona,
	}
}

// Respond handles one turn. An empty prompt is a no-op success: no
// retrieval, no generation, no frames. Fragments are forwarded strictly in
// the order the provider emits them; the far end reconstructs the answer by
// concatenation.
func (r *Responder) Respond(ctx context.Context, turn types.ChatTurn) error {
	if strings.TrimSpace(turn.Prompt) == "" {
		slog.Debug("empty prompt, nothing to do", "connection_id", string(turn.ConnectionID))
		return nil
	}

	language := ResolveLanguage(turn.Language)
	slog.Info("answering question",
		"connection_id", string(turn.ConnectionID),
		"language", language,
	)

	passages, err := r.retriever.Query(ctx, r.knowledgeBaseID, turn.Prompt)
	if err != nil {
		return fmt.Errorf("query knowledge base: %w", err)
	}

	messages := []llm.Message{
		{Role: "system", Content: SystemPrompt(r.persona, language)},
		{Role: "user", Content: GroundedPrompt(passages, turn.Prompt)},
	}

	deltas, err := r.provider.Stream(ctx, messages)
	if err != nil {
		return fmt.Errorf("stream answer: %w", err)
	}

	for delta := range deltas {
		frame := frameFor(delta)
		if err := r.gateway.Push(ctx, turn.ConnectionID, frame); err != nil {
			slog.Debug("frame push failed",
				"connection_id", string(turn.ConnectionID),
				"frame_type", frame.Type,
				"error", err,
			)
		}
	}
	return nil
}

// frameFor classifies a provider delta into an outbound frame. Unrecognized
// fragments become blank frames rather than being dropped.
func frameFor(delta llm.Delta) types.Frame {
	switch delta.Type {
	case llm.DeltaStart:
		return types.NewFrame(types.FrameStart, "")
	case llm.DeltaText:
		return types.NewFrame(types.FrameDelta, delta.Content)
	case llm.DeltaEnd:
		return types.NewFrame(types.FrameEnd, "")
	default:
		return types.NewFrame(types.FrameBlank, "")
	}
}

// ResolveLanguage maps the wire language selector to the output language the
// prompt asks for. The frontend sends "EN" for English; everything else is
// the Spanish-speaking community.
func ResolveLanguage(code string) string {
	if code == "EN" {
		return "English"
	}
	return "Spanish"
}
