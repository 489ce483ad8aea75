package http

import (
	"net"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"bridgesync/internal/domain/webhook"
)

type WebhookHandler struct {
	reconciler        *webhook.Reconciler
	validator         *Validator
	trustForwardedFor bool
}

func NewWebhookHandler(reconciler *webhook.Reconciler, validator *Validator, trustForwardedFor bool) *WebhookHandler {
	return &WebhookHandler{
		reconciler:        reconciler,
		validator:         validator,
		trustForwardedFor: trustForwardedFor,
	}
}

// HandleWebhook accepts provider item notifications. The source address is
// checked before the body is read. Any parseable event from an allowed source
// gets a 200, including unknown items and event types, so the provider does
// not retry it.
func (h *WebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	source := h.clientIP(r)
	if !h.reconciler.ValidateSource(source) {
		log.Warn().Str("source_ip", source).Msg("webhook rejected: source not allowed")
		writeErrorMessage(w, http.StatusForbidden, "forbidden", "Unauthorized source")
		return
	}

	var ev webhook.Event
	if err := decode(r, h.validator.webhookEvent, &ev); err != nil {
		writeError(w, r, err)
		return
	}

	outcome, err := h.reconciler.Handle(r.Context(), ev)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "received", "outcome": string(outcome)})
}

// clientIP is the first X-Forwarded-For entry when proxies are trusted,
// otherwise the connection's remote host.
func (h *WebhookHandler) clientIP(r *http.Request) string {
	if h.trustForwardedFor {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			return strings.TrimSpace(first)
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
