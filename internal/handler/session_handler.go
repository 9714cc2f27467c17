package handler

import (
	"encoding/json"
	"net/http"

	"dos-ui/internal/cookie"
	"dos-ui/internal/observability"
	"dos-ui/internal/service"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// SessionHandler exposes the session bootstrap to the UI layer.
type SessionHandler struct {
	sessions *service.SessionManager
	cookies  *cookie.Codec
}

// NewSessionHandler creates a session handler.
func NewSessionHandler(sessions *service.SessionManager, cookies *cookie.Codec) *SessionHandler {
	return &SessionHandler{sessions: sessions, cookies: cookies}
}

// Setup reconciles the session reference cookie with the store and returns
// the client-safe session projection.
func (h *SessionHandler) Setup(w http.ResponseWriter, r *http.Request) {
	ref := h.cookies.Ref(w, r)

	client, err := h.sessions.SetupSession(r.Context(), ref)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(client)
}

// Logout deletes the server-side session and clears the reference cookie.
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ref := h.cookies.Ref(w, r)

	if sessionID := ref.SessionID(); sessionID != "" {
		if err := h.sessions.DeleteSession(r.Context(), sessionID); err != nil {
			writeError(w, r, err)
			return
		}
	}

	ref.Clear()
	w.WriteHeader(http.StatusNoContent)
}

// writeError renders the generic error boundary: the message and a request
// correlation ID, never secret values or token contents.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := chimiddleware.GetReqID(r.Context())
	observability.FromContext(r.Context()).Error("request failed",
		"request_id", requestID,
		"error", err.Error(),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":     "Internal server error",
		"requestID": requestID,
	})
}
