package gateway

import "fmt"

// AuthError is a credential rejection from the server. Fatal: the
// session never retries it, the caller gets it as the terminal cause.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("gateway authentication rejected: %s", e.Reason)
}

// Close codes the server (or the transport) attaches when tearing a
// connection down. The table decides whether the stored resume token
// is still good. Anything not listed is treated as non-resumable so a
// stale mirror is replaced by a fresh Ready baseline rather than
// trusted.
const (
	// CloseServerRestart signals a planned restart; the event sequence
	// is retained server-side and the session may resume.
	CloseServerRestart = 4000

	// CloseInvalidToken means the credential itself is bad.
	CloseInvalidToken = 4001

	// CloseSessionInvalidated means the server discarded the session;
	// resume credentials are useless but the token may still be valid.
	CloseSessionInvalidated = 4004
)

// resumableCloseCode reports whether a server close code permits
// resuming with the stored token.
func resumableCloseCode(code int) bool {
	switch code {
	case CloseServerRestart, 1001, 1006:
		// Planned restart, going-away, abnormal closure.
		return true
	default:
		return false
	}
}
