package common

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

const (
	// SessionName is the cookie name of the UI session.
	SessionName = "sparqlchat"

	sessionIDKey = "id"
)

// SessionID returns the id of the caller's session, creating and saving a new
// one when absent. It writes a cookie, so it must run before the response
// headers are sent.
func SessionID(w http.ResponseWriter, r *http.Request, store sessions.Store) (string, error) {
	// Get returns a fresh session alongside a decode error for stale cookies.
	sess, err := store.Get(r, SessionName)
	if sess == nil {
		return "", fmt.Errorf("failed to load session: %w", err)
	}
	if id, ok := sess.Values[sessionIDKey].(string); ok && id != "" {
		return id, nil
	}

	id := uuid.NewString()
	sess.Values[sessionIDKey] = id
	if err := sess.Save(r, w); err != nil {
		return "", fmt.Errorf("failed to save session: %w", err)
	}
	return id, nil
}

// PrettyJSON renders v as indented JSON. Values that cannot be encoded are
// rendered with %v.
func PrettyJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
