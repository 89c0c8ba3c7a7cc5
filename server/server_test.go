package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"airbnb-reconciler/models"
	"airbnb-reconciler/services"
	"airbnb-reconciler/storage"
	"airbnb-reconciler/utils"
)

const testBaseURL = "https://www.airbnb.com"

var testSecret = []byte("test-secret")

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) (*Server, *storage.MemoryStore) {
	t.Helper()
	logger := utils.NewDiscardLogger()
	store := storage.NewMemoryStore(testBaseURL,
		&models.InternalProperty{ID: 1, Title: "Azure North Loft"},
		&models.InternalProperty{ID: 2, Title: "Cedar Cabin",
			ExternalRef: &models.ExternalListingRef{ID: "222"}, Synced: true},
	)
	return New(store, store, services.NewReconciler(logger, 0), logger, testSecret), store
}

func token(t *testing.T) string {
	t.Helper()
	tok, err := utils.JwtGenerate(testSecret, 7, "admin", time.Hour)
	require.NoError(t, err)
	return tok
}

func do(t *testing.T, s *Server, method, path string, body any, auth func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != nil {
		auth(req)
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func bearer(tok string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+tok) }
}

func cookie(tok string) func(*http.Request) {
	return func(r *http.Request) { r.AddCookie(&http.Cookie{Name: authCookie, Value: tok}) }
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestAuthRequired(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(t, s, http.MethodGet, "/api/airbnb/sync", nil, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "Unauthorized", decode(t, w)["error"])

	w = do(t, s, http.MethodGet, "/api/airbnb/sync", nil, bearer("not-a-jwt"))
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "Invalid token", decode(t, w)["error"])

	other, err := utils.JwtGenerate([]byte("other-secret"), 1, "admin", time.Hour)
	require.NoError(t, err)
	w = do(t, s, http.MethodGet, "/api/airbnb/sync", nil, cookie(other))
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListProperties(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(t, s, http.MethodGet, "/api/airbnb/sync", nil, cookie(token(t)))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Properties []models.InternalProperty `json:"properties"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Properties, 2)
	require.False(t, body.Properties[0].Synced)
	require.Equal(t, "222", body.Properties[1].ExternalID())
}

func TestListCandidates(t *testing.T) {
	s, store := newTestServer(t)
	title := "Azure North Loft"
	require.NoError(t, store.SaveCandidates(context.Background(), []*models.ExternalListingDetail{{
		ExternalListingRef: models.ExternalListingRef{ID: "111", URL: "https://www.airbnb.com/rooms/111"},
		Title:              &title,
	}}))

	w := do(t, s, http.MethodGet, "/api/airbnb/candidates", nil, bearer(token(t)))
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"listings": [{"id": "111", "url": "https://www.airbnb.com/rooms/111", "title": "Azure North Loft"}]}`,
		w.Body.String())
}

func TestSyncRequiresConfirmation(t *testing.T) {
	s, store := newTestServer(t)

	w := do(t, s, http.MethodPost, "/api/airbnb/sync",
		map[string]any{"propertyId": 1, "airbnbId": "111"}, bearer(token(t)))
	require.Equal(t, http.StatusPreconditionRequired, w.Code)

	var body pendingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "111", body.Instruction.ExternalID)
	require.Equal(t, "UPDATE properties SET airbnb_id = '111', airbnb_synced = true WHERE id = 1;", body.Statement)

	p, err := store.GetProperty(context.Background(), 1)
	require.NoError(t, err)
	require.Nil(t, p.ExternalRef, "nothing is written without confirm")
}

func TestSyncLinkAndUnlink(t *testing.T) {
	s, store := newTestServer(t)
	tok := token(t)

	w := do(t, s, http.MethodPost, "/api/airbnb/sync",
		map[string]any{"propertyId": 1, "airbnbId": "111", "confirm": true}, bearer(tok))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, decode(t, w)["success"])

	p, err := store.GetProperty(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, "111", p.ExternalID())
	require.True(t, p.Synced)

	w = do(t, s, http.MethodPost, "/api/airbnb/sync",
		map[string]any{"propertyId": 2, "airbnbId": nil, "confirm": true}, bearer(tok))
	require.Equal(t, http.StatusOK, w.Code)

	p, err = store.GetProperty(context.Background(), 2)
	require.NoError(t, err)
	require.Nil(t, p.ExternalRef)
	require.False(t, p.Synced)
}

func TestSyncErrors(t *testing.T) {
	s, _ := newTestServer(t)
	tok := token(t)

	tests := []struct {
		name string
		body any
		code int
	}{
		{"missing property id", map[string]any{"airbnbId": "111", "confirm": true}, http.StatusBadRequest},
		{"unknown property", map[string]any{"propertyId": 99, "airbnbId": "111", "confirm": true}, http.StatusNotFound},
		{"unlink unlinked property", map[string]any{"propertyId": 1, "confirm": true}, http.StatusConflict},
		{"malformed body", "not an object", http.StatusBadRequest},
	}

	for _, tt := range tests {
		w := do(t, s, http.MethodPost, "/api/airbnb/sync", tt.body, bearer(tok))
		if w.Code != tt.code {
			t.Errorf("%s: got status %d, want %d (%s)", tt.name, w.Code, tt.code, w.Body.String())
		}
	}
}

func TestRunWithoutSecret(t *testing.T) {
	logger := utils.NewDiscardLogger()
	store := storage.NewMemoryStore(testBaseURL)
	s := New(store, store, services.NewReconciler(logger, 0), logger, nil)
	require.ErrorIs(t, s.Run(context.Background(), "127.0.0.1:0"), utils.ErrEmptySecret)
}
