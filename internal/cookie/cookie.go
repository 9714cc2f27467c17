package cookie

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/crypto/nacl/secretbox"
)

// Name is the session reference cookie issued to the browser.
const Name = "dos-ui-session"

type payload struct {
	SessionID string `json:"sessionID"`
}

// Codec seals and opens the session reference cookie. The value is an
// encrypted, authenticated JSON payload; a tampered cookie opens as an
// absent reference rather than an error.
type Codec struct {
	key    [32]byte
	secure bool
	maxAge time.Duration
}

// NewCodec derives the sealing key from the session secret.
func NewCodec(secret string, secure bool, maxAge time.Duration) *Codec {
	return &Codec{
		key:    sha256.Sum256([]byte(secret)),
		secure: secure,
		maxAge: maxAge,
	}
}

func (c *Codec) seal(p payload) (string, error) {
	plaintext, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to marshal session reference: %w", err)
	}

	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("failed to generate cookie nonce: %w", err)
	}

	sealed := secretbox.Seal(nonce[:], plaintext, &nonce, &c.key)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

func (c *Codec) open(value string) (payload, error) {
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil || len(raw) < 24 {
		return payload{}, fmt.Errorf("malformed session reference cookie")
	}

	var nonce [24]byte
	copy(nonce[:], raw[:24])

	plaintext, ok := secretbox.Open(nil, raw[24:], &nonce, &c.key)
	if !ok {
		return payload{}, fmt.Errorf("session reference cookie failed authentication")
	}

	var p payload
	if err := json.Unmarshal(plaintext, &p); err != nil {
		return payload{}, fmt.Errorf("failed to parse session reference: %w", err)
	}
	return p, nil
}

// Ref is the request-scoped session reference. A missing, malformed or
// tampered cookie yields an empty reference; writes go back to the
// response.
type Ref struct {
	codec     *Codec
	writer    http.ResponseWriter
	sessionID string
}

// Ref decodes the session reference carried by the request.
func (c *Codec) Ref(w http.ResponseWriter, r *http.Request) *Ref {
	ref := &Ref{codec: c, writer: w}

	raw, err := r.Cookie(Name)
	if err != nil {
		return ref
	}

	p, err := c.open(raw.Value)
	if err != nil {
		// Treated as absent; the bootstrap will issue a fresh session.
		return ref
	}

	ref.sessionID = p.SessionID
	return ref
}

// SessionID returns the referenced session ID, or "" when absent.
func (r *Ref) SessionID() string {
	return r.sessionID
}

// Update rewrites the reference with a new session ID and reissues the
// cookie on the response.
func (r *Ref) Update(sessionID string) error {
	value, err := r.codec.seal(payload{SessionID: sessionID})
	if err != nil {
		return err
	}

	http.SetCookie(r.writer, &http.Cookie{
		Name:     Name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(r.codec.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   r.codec.secure,
		SameSite: http.SameSiteLaxMode,
	})

	r.sessionID = sessionID
	return nil
}

// Clear removes the cookie from the client.
func (r *Ref) Clear() {
	http.SetCookie(r.writer, &http.Cookie{
		Name:     Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.codec.secure,
		SameSite: http.SameSiteLaxMode,
	})

	r.sessionID = ""
}
