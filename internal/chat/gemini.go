package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"

	"google.golang.org/genai"

	"github.com/KarenSyu/travel/internal/domain"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiBackend streams turns from the Gemini API.
type GeminiBackend struct {
	client *genai.Client
	model  string
}

// NewGeminiBackend creates a Gemini API client. An empty model selects
// DefaultGeminiModel.
func NewGeminiBackend(ctx context.Context, apiKey, model string) (*GeminiBackend, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("chat.NewGeminiBackend: %w", err)
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiBackend{client: client, model: model}, nil
}

// Stream implements Backend.
func (g *GeminiBackend) Stream(ctx context.Context, req Request) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		cfg := &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(req.System, genai.RoleUser),
			Tools: []*genai.Tool{{
				FunctionDeclarations: []*genai.FunctionDeclaration{geminiToolDeclaration()},
			}},
		}

		for resp, err := range g.client.Models.GenerateContentStream(ctx, g.model, geminiContents(req), cfg) {
			if err != nil {
				yield(Event{}, fmt.Errorf("chat.GeminiBackend.Stream: %w: %w", domain.ErrConversation, err))
				return
			}
			for _, ev := range geminiEvents(resp) {
				if !yield(ev, nil) {
					return
				}
			}
		}
	}
}

func geminiContents(req Request) []*genai.Content {
	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, m := range req.History {
		role := genai.Role(genai.RoleUser)
		if m.Role == RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Text, role))
	}
	return append(contents, genai.NewContentFromText(req.Message, genai.RoleUser))
}

// geminiEvents extracts text fragments and function calls from one streamed
// chunk, in part order. Thought parts are dropped.
func geminiEvents(resp *genai.GenerateContentResponse) []Event {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	var events []Event
	for _, part := range resp.Candidates[0].Content.Parts {
		switch {
		case part == nil:
		case part.FunctionCall != nil:
			args, err := json.Marshal(part.FunctionCall.Args)
			if err != nil {
				args = []byte(fmt.Sprint(part.FunctionCall.Args))
			}
			events = append(events, Event{Tool: &RawToolCall{Name: part.FunctionCall.Name, Arguments: args}})
		case part.Text != "" && !part.Thought:
			events = append(events, Event{Text: part.Text})
		}
	}
	return events
}

// geminiToolDeclaration mirrors toolSchema in Gemini's schema dialect.
func geminiToolDeclaration() *genai.FunctionDeclaration {
	str := func(desc string) *genai.Schema { return &genai.Schema{Type: genai.TypeString, Description: desc} }
	return &genai.FunctionDeclaration{
		Name:        ToolName,
		Description: ToolDescription,
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"dayNumber": {Type: genai.TypeInteger, Description: "The day number to update."},
				"activityTitleToFind": str("The title of the existing activity to update. " +
					"If empty, a new activity might be added."),
				"newDetails": {
					Type:        genai.TypeObject,
					Description: "The new details for the activity.",
					Properties: map[string]*genai.Schema{
						"time":                str("HH:MM"),
						"title":               str(""),
						"description":         str(""),
						"location":            str(""),
						"icon":                str("A single emoji."),
						"transportSuggestion": str(""),
					},
				},
			},
			Required: []string{"dayNumber", "newDetails"},
		},
	}
}
