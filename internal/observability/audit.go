package observability

import (
	"log/slog"
	"net/http"
)

// Audit emits a structured record for security-relevant events: logins,
// role changes, permission grants, webhook rejections.
func Audit(r *http.Request, event string, attrs ...any) {
	base := []any{
		"event", event,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", r.Header.Get("X-Request-Id"),
	}
	base = append(base, attrs...)
	slog.InfoContext(r.Context(), "audit", base...)
}

// AuditActor is Audit with the acting principal attached.
func AuditActor(r *http.Request, event, actorID string, attrs ...any) {
	Audit(r, event, append([]any{"actor_id", actorID}, attrs...)...)
}
