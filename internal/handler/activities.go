package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/KarenSyu/travel/internal/domain"
)

// ActivityRequest is the body of POST /days/{dayNumber}/activities and
// PUT /days/{dayNumber}/activities/{index}. An empty id keeps the existing one
// on edit and is generated on add.
type ActivityRequest struct {
	ID                  string `json:"id"`
	Time                string `json:"time"`
	Title               string `json:"title"`
	Description         string `json:"description"`
	Location            string `json:"location"`
	Icon                string `json:"icon"`
	TransportSuggestion string `json:"transportSuggestion"`
}

// MoveRequest is the body of POST /itinerary/move. Indices are zero-based;
// destinationIndex is read against the destination day after removal.
type MoveRequest struct {
	SourceDay        *int `json:"sourceDay"`
	SourceIndex      *int `json:"sourceIndex"`
	DestinationDay   *int `json:"destinationDay"`
	DestinationIndex *int `json:"destinationIndex"`
}

// AddActivity handles POST /days/{dayNumber}/activities.
func (s *Server) AddActivity(w http.ResponseWriter, r *http.Request) {
	dayNumber, ok := pathInt(w, r, "dayNumber")
	if !ok {
		return
	}
	a, ok := decodeActivity(w, r)
	if !ok {
		return
	}

	st, err := s.itinerary.AddActivity(r.Context(), dayNumber, a)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

// EditActivity handles PUT /days/{dayNumber}/activities/{index}.
func (s *Server) EditActivity(w http.ResponseWriter, r *http.Request) {
	dayNumber, ok := pathInt(w, r, "dayNumber")
	if !ok {
		return
	}
	index, ok := pathInt(w, r, "index")
	if !ok {
		return
	}
	a, ok := decodeActivity(w, r)
	if !ok {
		return
	}

	st, err := s.itinerary.EditActivity(r.Context(), dayNumber, index, a)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// DeleteActivity handles DELETE /days/{dayNumber}/activities/{index}.
func (s *Server) DeleteActivity(w http.ResponseWriter, r *http.Request) {
	dayNumber, ok := pathInt(w, r, "dayNumber")
	if !ok {
		return
	}
	index, ok := pathInt(w, r, "index")
	if !ok {
		return
	}

	st, err := s.itinerary.DeleteActivity(r.Context(), dayNumber, index)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// MoveActivity handles POST /itinerary/move.
func (s *Server) MoveActivity(w http.ResponseWriter, r *http.Request) {
	var body MoveRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if body.SourceDay == nil || body.SourceIndex == nil || body.DestinationDay == nil || body.DestinationIndex == nil {
		requestError(w, "sourceDay, sourceIndex, destinationDay and destinationIndex are required")
		return
	}

	st, err := s.itinerary.MoveActivity(r.Context(),
		*body.SourceDay, *body.SourceIndex, *body.DestinationDay, *body.DestinationIndex)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// --- request helpers --------------------------------------------------------

// pathInt binds an integer path parameter, writing a 422 on failure.
func pathInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	var v int
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &v,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		requestError(w, fmt.Sprintf("invalid path parameter %s: %s", name, err))
		return 0, false
	}
	return v, true
}

func decodeActivity(w http.ResponseWriter, r *http.Request) (domain.Activity, bool) {
	var body ActivityRequest
	if !decodeBody(w, r, &body) {
		return domain.Activity{}, false
	}
	if strings.TrimSpace(body.Title) == "" {
		requestError(w, "title is required")
		return domain.Activity{}, false
	}
	return domain.Activity{
		ID:                  body.ID,
		Time:                strings.TrimSpace(body.Time),
		Title:               strings.TrimSpace(body.Title),
		Description:         body.Description,
		Location:            body.Location,
		Icon:                body.Icon,
		TransportSuggestion: body.TransportSuggestion,
	}, true
}

// decodeBody reads a JSON body into v. A body over the size limit is a 413;
// anything else unreadable is a 422.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil {
		requestError(w, "request body is required")
		return false
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: ErrorDetail{
			Code: "request_too_large", Message: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit),
		}})
		return false
	}
	requestError(w, "invalid request body: "+err.Error())
	return false
}
