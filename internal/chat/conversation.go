package chat

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"sync"

	"github.com/KarenSyu/travel/internal/domain"
)

// Apology is the reply shown when the backend fails mid-turn.
const Apology = "抱歉，發生錯誤。"

// DefaultMaxHistory bounds how many prior messages are replayed to the backend.
const DefaultMaxHistory = 20

// Role identifies the author of a message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Message is one entry of the conversation history.
type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// RawToolCall is a tool invocation as the backend delivered it, arguments
// still undecoded.
type RawToolCall struct {
	Name      string
	Arguments []byte
}

// Event is one element of a backend stream: either a text fragment or a
// complete tool invocation.
type Event struct {
	Text string
	Tool *RawToolCall
}

// Request is everything a backend needs for one turn.
type Request struct {
	System  string
	History []Message
	Message string
}

// Backend streams the model's answer to one turn. The sequence ends after the
// last event; an error ends it early.
type Backend interface {
	Stream(ctx context.Context, req Request) iter.Seq2[Event, error]
}

// DraftSource provides the itinerary the model should see.
type DraftSource interface {
	Draft() domain.Itinerary
}

// Reply is the outcome of one turn.
type Reply struct {
	Text          string   `json:"reply"`
	Confirmations []string `json:"confirmations"`
	Failed        bool     `json:"failed"`
}

// Conversation runs chat turns against a Backend. Turns are serialized.
//
// A turn consumes the stream in two phases: text fragments accumulate into the
// reply, and each complete tool invocation pauses accumulation while the Bridge
// applies it synchronously, its confirmation becoming a line of the reply.
type Conversation struct {
	backend    Backend
	bridge     *Bridge
	drafts     DraftSource
	trip       TripContext
	log        *slog.Logger
	maxHistory int

	mu      sync.Mutex
	history []Message
}

// NewConversation constructs a Conversation. A nil logger falls back to slog.Default().
func NewConversation(backend Backend, bridge *Bridge, drafts DraftSource, trip TripContext, log *slog.Logger) *Conversation {
	if log == nil {
		log = slog.Default()
	}
	return &Conversation{
		backend:    backend,
		bridge:     bridge,
		drafts:     drafts,
		trip:       trip,
		log:        log,
		maxHistory: DefaultMaxHistory,
	}
}

// Send runs one turn for the user's text.
// Blank text is a domain.ErrValidation. Backend failures are not returned as
// errors: the reply is Apology with Failed set, the history is left as it was,
// and mutations applied earlier in the turn stay applied.
func (c *Conversation) Send(ctx context.Context, text string) (Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Reply{}, fmt.Errorf("chat.Conversation.Send: %w: message is empty", domain.ErrValidation)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	req := Request{
		System:  c.trip.SystemPrompt(c.drafts.Draft()),
		History: append([]Message(nil), c.history...),
		Message: text,
	}

	var buf strings.Builder
	confirmations := []string{}
	for ev, err := range c.backend.Stream(ctx, req) {
		if err != nil {
			c.log.ErrorContext(ctx, "conversation turn failed", "error", err, "applied", len(confirmations))
			return Reply{Text: Apology, Confirmations: confirmations, Failed: true}, nil
		}
		if ev.Tool == nil {
			buf.WriteString(ev.Text)
			continue
		}

		call, err := ParseToolCall(ev.Tool.Name, ev.Tool.Arguments)
		if err != nil {
			c.log.WarnContext(ctx, "forwarding unparseable tool call as text", "tool", ev.Tool.Name, "error", err)
			writeLine(&buf, string(ev.Tool.Arguments))
			continue
		}
		msgs := c.bridge.Apply(ctx, []ToolCall{call})
		confirmations = append(confirmations, msgs...)
		writeLine(&buf, strings.Join(msgs, "\n"))
	}

	reply := strings.TrimSpace(buf.String())
	c.history = append(c.history, Message{Role: RoleUser, Text: text}, Message{Role: RoleModel, Text: reply})
	if over := len(c.history) - c.maxHistory; over > 0 {
		c.history = append([]Message(nil), c.history[over:]...)
	}
	return Reply{Text: reply, Confirmations: confirmations}, nil
}

// History returns the conversation so far, opening with the welcome message.
func (c *Conversation) History() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, 0, len(c.history)+1)
	if c.trip.Welcome != "" {
		out = append(out, Message{Role: RoleModel, Text: c.trip.Welcome})
	}
	return append(out, c.history...)
}

// Reset clears the conversation history.
func (c *Conversation) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = nil
}

// writeLine appends s on its own line.
func writeLine(b *strings.Builder, s string) {
	if s == "" {
		return
	}
	if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
		b.WriteString("\n")
	}
	b.WriteString(s)
	b.WriteString("\n")
}
