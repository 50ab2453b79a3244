package handler

import (
	"net/http"
	"strings"

	"github.com/KarenSyu/travel/internal/chat"
)

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatHistoryResponse is the body of GET /chat.
type ChatHistoryResponse struct {
	Messages []chat.Message `json:"messages"`
}

// PostChat handles POST /chat. A failed model turn is still a 200: the reply
// carries the apology and failed=true.
func (s *Server) PostChat(w http.ResponseWriter, r *http.Request) {
	if !s.chatEnabled(w) {
		return
	}
	var body ChatRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.Message) == "" {
		requestError(w, "message is required")
		return
	}

	reply, err := s.chat.Send(r.Context(), body.Message)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	if reply.Confirmations == nil {
		reply.Confirmations = []string{}
	}
	writeJSON(w, http.StatusOK, reply)
}

// GetChatHistory handles GET /chat.
func (s *Server) GetChatHistory(w http.ResponseWriter, _ *http.Request) {
	if !s.chatEnabled(w) {
		return
	}
	writeJSON(w, http.StatusOK, ChatHistoryResponse{Messages: s.chat.History()})
}

// ResetChat handles DELETE /chat.
func (s *Server) ResetChat(w http.ResponseWriter, _ *http.Request) {
	if !s.chatEnabled(w) {
		return
	}
	s.chat.Reset()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) chatEnabled(w http.ResponseWriter) bool {
	if s.chat != nil {
		return true
	}
	writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: ErrorDetail{
		Code: "chat_disabled", Message: "no language model is configured",
	}})
	return false
}
