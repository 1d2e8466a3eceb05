package github

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"miren.dev/issue-offer-bridge/internal/offer"
	"miren.dev/issue-offer-bridge/internal/points"
)

const (
	maxBodySize    = 1_000_000
	processTimeout = 2 * time.Minute
)

type Processor interface {
	Process(ctx context.Context, issue offer.Issue, opts offer.Options) (offer.Issue, error)
}

type WebhookHandler struct {
	secret    []byte
	processor Processor
}

func NewWebhookHandler(secret string, processor Processor) *WebhookHandler {
	return &WebhookHandler{
		secret:    []byte(secret),
		processor: processor,
	}
}

type webhookResponse struct {
	Status          string         `json:"status"`
	FullDescription string         `json:"fullDescription"`
	ParsedEntries   []points.Entry `json:"parsedEntries"`
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	eventType := r.Header.Get("X-GitHub-Event")
	deliveryID := r.Header.Get("X-GitHub-Delivery")
	log := slog.With("event", eventType, "delivery_id", deliveryID)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		log.Error("failed to read body", "error", err)
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	if len(body) > maxBodySize {
		log.Warn("payload too large")
		http.Error(w, "Payload too large", http.StatusRequestEntityTooLarge)
		return
	}

	if !h.verifySignature(body, r.Header.Get("X-Hub-Signature-256")) {
		log.Warn("invalid signature attempt", "remote_addr", r.RemoteAddr)
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return
	}

	if !gjson.ValidBytes(body) {
		log.Warn("malformed JSON payload")
		http.Error(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}

	issue := ExtractIssue(body)
	opts := offer.Options{
		CreateDeal: eventType == "issues" && payloadAction(body) == "opened",
	}
	log.Info("processing issue", "issue", issue.Number, "repo", issue.Repo, "comment", issue.IsComment())

	// Side effects finish even if GitHub drops the connection.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), processTimeout)
	defer cancel()

	processed, err := h.processor.Process(ctx, issue, opts)
	if err != nil {
		log.Error("issue processing side effect failed", "issue", issue.Number, "error", err)
	}

	resp, err := json.Marshal(webhookResponse{
		Status:          "success",
		FullDescription: processed.FullDescription,
		ParsedEntries:   processed.ParsedEntries,
	})
	if err != nil {
		log.Error("failed to encode response", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(resp)
}

func (h *WebhookHandler) verifySignature(body []byte, signature string) bool {
	if len(h.secret) == 0 || !strings.HasPrefix(signature, "sha256=") {
		return false
	}
	sig, err := hex.DecodeString(signature[len("sha256="):])
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, h.secret)
	mac.Write(body)
	return hmac.Equal(sig, mac.Sum(nil))
}
