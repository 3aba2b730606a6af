package main

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/protonpass/android-pass-sub021/domaincheck"
	"github.com/protonpass/android-pass-sub021/internal/service"
	"github.com/protonpass/android-pass-sub021/suggestion"
)

type host struct {
	svc *service.Service
}

type envelope struct {
	Type string `json:"type"`
}

type parseRequest struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

type suggestRequest struct {
	Type        string `json:"type"`
	URL         string `json:"url"`
	PackageName string `json:"packageName"`
	Limit       int    `json:"limit"`
}

type response struct {
	OK      bool   `json:"ok"`
	Data    any    `json:"data,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

type hostData struct {
	Kind              string `json:"kind"`
	Protocol          string `json:"protocol,omitempty"`
	Address           string `json:"address,omitempty"`
	Host              string `json:"host,omitempty"`
	RegistrableDomain string `json:"registrableDomain,omitempty"`
}

type itemData struct {
	ID           int64    `json:"id"`
	Title        string   `json:"title,omitempty"`
	Username     string   `json:"username"`
	Websites     []string `json:"websites"`
	PackageNames []string `json:"packageNames"`
}

var badJSON = response{OK: false, Code: "BAD_JSON", Message: "invalid json"}

// handleRequest routes an inbound payload to the appropriate handler according to the envelope type.
//
// Args:
//
//	ctx: cancelled when the host is shutting down.
//	payload: JSON-encoded request received from the browser.
//
// Returns:
//
//	response: structured result indicating success and data or failure details.
//
// Behavior:
//  1. Parses the envelope to determine the command type, returning BAD_JSON on failure.
//  2. Unmarshals into the typed request and delegates to command-specific handlers.
//  3. Emits UNSUPPORTED responses for unknown commands.
func (h *host) handleRequest(ctx context.Context, payload []byte) response {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return badJSON
	}

	switch env.Type {
	case "health":
		return response{OK: true, Data: map[string]string{"version": version}}
	case "parse":
		var req parseRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return badJSON
		}
		return h.handleParse(req)
	case "suggest":
		var req suggestRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return badJSON
		}
		return h.handleSuggest(ctx, req)
	default:
		return response{OK: false, Code: "UNSUPPORTED", Message: "unsupported command"}
	}
}

func (h *host) handleParse(req parseRequest) response {
	if strings.TrimSpace(req.URL) == "" {
		return response{OK: false, Code: "BAD_REQUEST", Message: "url required"}
	}

	info, err := h.svc.Parse(req.URL)
	if err != nil {
		if errors.Is(err, domaincheck.ErrUnparseable) {
			return response{OK: false, Code: "UNPARSEABLE", Message: err.Error()}
		}
		return response{OK: false, Code: "INTERNAL"}
	}
	return response{OK: true, Data: hostData{
		Kind:              info.Kind.String(),
		Protocol:          info.Protocol,
		Address:           info.Address,
		Host:              info.Host,
		RegistrableDomain: info.RegistrableDomain,
	}}
}

// handleSuggest returns the credentials eligible for the page or app, best match first.
func (h *host) handleSuggest(ctx context.Context, req suggestRequest) response {
	target := suggestion.Target{PackageName: req.PackageName, URL: req.URL}
	if target.IsEmpty() {
		return response{OK: false, Code: "BAD_REQUEST", Message: "url or packageName required"}
	}
	if req.Limit < 0 {
		return response{OK: false, Code: "BAD_REQUEST", Message: "limit must not be negative"}
	}

	items, err := h.svc.Suggest(ctx, target)
	if err != nil {
		log.Error("suggest failed", "err", err)
		return response{OK: false, Code: "DB_ERROR", Message: "database unavailable"}
	}
	if req.Limit > 0 && len(items) > req.Limit {
		items = items[:req.Limit]
	}

	result := make([]itemData, 0, len(items))
	for _, it := range items {
		result = append(result, itemData{
			ID:           it.ID,
			Title:        it.Title,
			Username:     it.Username,
			Websites:     it.Websites,
			PackageNames: it.PackageNames,
		})
	}
	return response{OK: true, Data: map[string]any{"items": result}}
}
