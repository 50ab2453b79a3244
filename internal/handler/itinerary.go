package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/KarenSyu/travel/internal/domain"
	"github.com/KarenSyu/travel/internal/service"
)

// GetItinerary handles GET /itinerary.
// The ETag covers the draft fingerprint and the status flags, so a save that
// only clears dirty still invalidates the client's copy.
func (s *Server) GetItinerary(w http.ResponseWriter, r *http.Request) {
	st := s.itinerary.State()
	tag := etag(st)
	w.Header().Set("ETag", tag)
	if matchesETag(r.Header.Get("If-None-Match"), tag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// LoadItinerary handles POST /itinerary/load. A remote failure keeps the
// previous data, which is returned alongside the error.
func (s *Server) LoadItinerary(w http.ResponseWriter, r *http.Request) {
	st, err := s.itinerary.Load(r.Context())
	if err != nil {
		s.writeStateError(w, r, err, st)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// SaveItinerary handles POST /itinerary/save.
func (s *Server) SaveItinerary(w http.ResponseWriter, r *http.Request) {
	st, err := s.itinerary.Save(r.Context())
	if err != nil {
		s.writeStateError(w, r, err, st)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// RevertItinerary handles POST /itinerary/revert.
func (s *Server) RevertItinerary(w http.ResponseWriter, r *http.Request) {
	st, err := s.itinerary.Revert(r.Context())
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// writeStateError attaches st for remote failures; busy responses carry no state.
func (s *Server) writeStateError(w http.ResponseWriter, r *http.Request, err error, st service.State) {
	if errors.Is(err, domain.ErrBusy) {
		s.writeError(w, r, err, nil)
		return
	}
	s.writeError(w, r, err, &st)
}

func etag(st service.State) string {
	var flags uint8
	for i, b := range []bool{st.Dirty, st.Loading, st.Refreshing, st.Saving, st.Loaded, st.LastError != ""} {
		if b {
			flags |= 1 << i
		}
	}
	return fmt.Sprintf(`"%s.%02x"`, st.Fingerprint, flags)
}

// matchesETag reports whether an If-None-Match header value names tag.
func matchesETag(header, tag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == "*" || candidate == tag {
			return true
		}
	}
	return false
}
