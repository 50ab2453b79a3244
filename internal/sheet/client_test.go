package sheet_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KarenSyu/travel/internal/domain"
	"github.com/KarenSyu/travel/internal/sheet"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newClient(csvURL, writeURL string) *sheet.Client {
	return sheet.NewClient(sheet.ClientConfig{
		CSVURL:               csvURL,
		WriteURL:             writeURL,
		Title:                "沖繩之旅 Okinawa",
		Timeout:              2 * time.Second,
		MaxTries:             3,
		RetryInitialInterval: time.Millisecond,
	}, quietLogger())
}

// ---- Load ------------------------------------------------------------------

func TestClient_Load_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "text/csv")
		_, _ = io.WriteString(w, sampleCSV)
	}))
	defer srv.Close()

	it, err := newClient(srv.URL, "").Load(t.Context())

	require.NoError(t, err)
	assert.Equal(t, "沖繩之旅 Okinawa", it.Title)
	require.Len(t, it.Days, 2)
	assert.Equal(t, 3, it.ActivityCount())
}

func TestClient_Load_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, sampleCSV)
	}))
	defer srv.Close()

	it, err := newClient(srv.URL, "").Load(t.Context())

	require.NoError(t, err)
	assert.Len(t, it.Days, 2)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_Load_GivesUpAfterMaxTries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newClient(srv.URL, "").Load(t.Context())

	assert.ErrorIs(t, err, domain.ErrRemoteLoad)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_Load_ClientErrorIsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newClient(srv.URL, "").Load(t.Context())

	assert.ErrorIs(t, err, domain.ErrRemoteLoad)
	assert.Equal(t, int32(1), calls.Load(), "4xx must not be retried")
}

func TestClient_Load_UndecodableDocumentDegradesToEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<html>sign in</html>\n")
	}))
	defer srv.Close()

	it, err := newClient(srv.URL, "").Load(t.Context())

	require.NoError(t, err)
	assert.Empty(t, it.Days)
}

func TestClient_Load_NotConfigured(t *testing.T) {
	_, err := newClient("", "").Load(t.Context())

	assert.ErrorIs(t, err, domain.ErrRemoteLoad)
}

// ---- Save ------------------------------------------------------------------

func saveFixture() domain.Itinerary {
	return domain.Itinerary{Days: []domain.DayPlan{{
		DayNumber: 1, Date: "2026-01-09", Title: "出發與抵達",
		Activities: []domain.Activity{
			{ID: "a", Time: "07:30", Title: "住家", Icon: "🏠"},
			{ID: "b", Time: "08:15", Title: "台鐵太原站", Icon: "🚆", TransportSuggestion: "步行 10 分鐘"},
		},
	}}}
}

func TestClient_Save_PostsAllRows(t *testing.T) {
	var got struct {
		Rows []domain.SheetRow `json:"rows"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"status":"success"}`)
	}))
	defer srv.Close()

	err := newClient("", srv.URL).Save(t.Context(), saveFixture())

	require.NoError(t, err)
	require.Len(t, got.Rows, 2)
	assert.Equal(t, "1", got.Rows[1].DayNumber)
	assert.Equal(t, "出發與抵達", got.Rows[1].DayTitle)
	assert.Equal(t, "步行 10 分鐘", got.Rows[1].TransportSuggestion)
}

func TestClient_Save_Failures(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
	}{
		{"error ack", http.StatusOK, `{"status":"error","message":"sheet locked"}`},
		{"malformed ack", http.StatusOK, `ok`},
		{"server error", http.StatusInternalServerError, `{"status":"success"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			err := newClient("", srv.URL).Save(t.Context(), saveFixture())

			assert.ErrorIs(t, err, domain.ErrRemoteSave)
			assert.Equal(t, int32(1), calls.Load(), "save is never retried")
		})
	}
}

func TestClient_Save_ErrorAckCarriesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"error","message":"sheet locked"}`)
	}))
	defer srv.Close()

	err := newClient("", srv.URL).Save(t.Context(), saveFixture())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "sheet locked")
}

func TestClient_Save_NotConfigured(t *testing.T) {
	err := newClient("", "").Save(t.Context(), saveFixture())

	assert.ErrorIs(t, err, domain.ErrRemoteSave)
}
