package http

import (
	"context"
	"net/http"
	"time"
)

// ReadyCheck is a named dependency probe for /readyz.
type ReadyCheck struct {
	Name  string
	Check func(context.Context) error
}

type healthHandler struct {
	checks    []ReadyCheck
	responder responder
}

func (h healthHandler) live(w http.ResponseWriter, r *http.Request) {
	h.responder.writeOK(r.Context(), w)
}

func (h healthHandler) ready(w http.ResponseWriter, r *http.Request) {
	failures := map[string]string{}
	for _, check := range h.checks {
		if check.Check == nil {
			continue
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		err := check.Check(ctx)
		cancel()
		if err != nil {
			name := check.Name
			if name == "" {
				name = "dependency"
			}
			failures[name] = err.Error()
		}
	}
	if len(failures) > 0 {
		h.responder.loggerFor(r.Context()).WarnContext(r.Context(), "readiness check failed", "failures", failures)
		h.responder.writeJSON(r.Context(), w, http.StatusServiceUnavailable, errorResponse{
			Code:    codeInternal,
			Message: "not ready",
			Errors:  failures,
		})
		return
	}
	h.responder.writeOK(r.Context(), w)
}
