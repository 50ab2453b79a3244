// Package handler implements the HTTP API of the itinerary service.
// All handlers are methods on Server. Methods are split into files by resource
// (health.go, itinerary.go, activities.go, chat.go, export.go) but share the same
// Server struct so they can reach its dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/KarenSyu/travel/internal/chat"
	"github.com/KarenSyu/travel/internal/domain"
	"github.com/KarenSyu/travel/internal/service"
)

// ItineraryServicer defines the draft/commit operations the handlers depend on.
// Defining the interface here, in the consumer package, lets handler tests
// inject a mock without a remote sheet or cache behind it.
type ItineraryServicer interface {
	State() service.State
	Load(ctx context.Context) (service.State, error)
	Save(ctx context.Context) (service.State, error)
	Revert(ctx context.Context) (service.State, error)
	AddActivity(ctx context.Context, dayNumber int, a domain.Activity) (service.State, error)
	EditActivity(ctx context.Context, dayNumber, index int, a domain.Activity) (service.State, error)
	DeleteActivity(ctx context.Context, dayNumber, index int) (service.State, error)
	MoveActivity(ctx context.Context, srcDay, srcIndex, dstDay, dstIndex int) (service.State, error)
}

// ChatServicer is the conversational assistant. *chat.Conversation satisfies it.
type ChatServicer interface {
	Send(ctx context.Context, text string) (chat.Reply, error)
	History() []chat.Message
	Reset()
}

// ExportServicer renders the draft for download.
type ExportServicer interface {
	Export(ctx context.Context, format service.ExportFormat) (service.Export, error)
}

// Server holds the dependencies of every endpoint. A nil chat disables the
// /chat routes (503).
type Server struct {
	itinerary ItineraryServicer
	chat      ChatServicer
	export    ExportServicer
	openAPI   []byte
	log       *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
func NewServer(itinerary ItineraryServicer, chat ChatServicer, export ExportServicer, openAPI []byte, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{itinerary: itinerary, chat: chat, export: export, openAPI: openAPI, log: log}
}

// Routes returns the API router. chatMiddleware wraps the /chat routes only
// (rate limiting).
func (s *Server) Routes(chatMiddleware ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)

	r.Route("/itinerary", func(r chi.Router) {
		r.Get("/", s.GetItinerary)
		r.Post("/load", s.LoadItinerary)
		r.Post("/save", s.SaveItinerary)
		r.Post("/revert", s.RevertItinerary)
		r.Post("/move", s.MoveActivity)
	})

	r.Route("/days/{dayNumber}/activities", func(r chi.Router) {
		r.Post("/", s.AddActivity)
		r.Put("/{index}", s.EditActivity)
		r.Delete("/{index}", s.DeleteActivity)
	})

	r.Group(func(r chi.Router) {
		r.Use(chatMiddleware...)
		r.Post("/chat", s.PostChat)
		r.Get("/chat", s.GetChatHistory)
		r.Delete("/chat", s.ResetChat)
	})

	r.Get("/export", s.GetExport)
	return r
}
