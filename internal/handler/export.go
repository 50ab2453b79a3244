package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/oapi-codegen/runtime"

	"github.com/KarenSyu/travel/internal/service"
)

// GetExport handles GET /export.
// Use ?format=csv for the sheet layout, ?format=ics for a calendar; default is JSON rows.
func (s *Server) GetExport(w http.ResponseWriter, r *http.Request) {
	var raw string
	if err := runtime.BindQueryParameter("form", true, false, "format", r.URL.Query(), &raw); err != nil {
		requestError(w, "invalid query parameter format: "+err.Error())
		return
	}
	format, err := service.ParseExportFormat(raw)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}

	out, err := s.export.Export(r.Context(), format)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}

	w.Header().Set("Content-Type", out.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(out.Body)))
	if format != service.FormatJSON {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", out.Filename))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out.Body)
}
