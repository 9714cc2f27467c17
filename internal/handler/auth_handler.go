package handler

import (
	"errors"
	"net/http"

	"dos-ui/internal/cookie"
	"dos-ui/internal/service"
)

// AuthHandler drives the browser legs of the CIS2 sign-in flow.
type AuthHandler struct {
	auth     *service.AuthService
	sessions *service.SessionManager
	cookies  *cookie.Codec
}

// NewAuthHandler creates an auth handler.
func NewAuthHandler(auth *service.AuthService, sessions *service.SessionManager, cookies *cookie.Codec) *AuthHandler {
	return &AuthHandler{auth: auth, sessions: sessions, cookies: cookies}
}

// Login bootstraps a session if needed, builds the authorization URL bound
// to its state and redirects the browser to CIS2.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ref := h.cookies.Ref(w, r)

	client, err := h.sessions.SetupSession(r.Context(), ref)
	if err != nil {
		writeError(w, r, err)
		return
	}

	authURL, err := h.auth.LoginRedirect(r.Context(), client.SessionID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	http.Redirect(w, r, authURL, http.StatusFound)
}

// Callback completes the sign-in: it correlates the returned state with
// the session, exchanges the code and sends the user back to the UI.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	ref := h.cookies.Ref(w, r)

	sessionID := ref.SessionID()
	if sessionID == "" {
		http.Error(w, `{"error":"No session"}`, http.StatusUnauthorized)
		return
	}

	query := r.URL.Query()
	state := query.Get("state")
	code := query.Get("code")
	if code == "" {
		http.Error(w, `{"error":"Missing authorization code"}`, http.StatusBadRequest)
		return
	}

	if _, err := h.auth.CompleteLogin(r.Context(), sessionID, state, code); err != nil {
		if errors.Is(err, service.ErrStateMismatch) || errors.Is(err, service.ErrNoLoginInFlight) {
			http.Error(w, `{"error":"Sign-in could not be verified"}`, http.StatusUnauthorized)
			return
		}
		writeError(w, r, err)
		return
	}

	http.Redirect(w, r, "/", http.StatusFound)
}
