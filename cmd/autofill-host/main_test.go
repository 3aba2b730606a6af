package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/protonpass/android-pass-sub021/internal/config"
	"github.com/protonpass/android-pass-sub021/internal/service"
)

func newTestHost(t *testing.T) *host {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Vault.Dir = filepath.Join(t.TempDir(), "vault")
	svc, err := service.New(cfg)
	if err != nil {
		t.Fatalf("service.New returned error: %v", err)
	}
	t.Cleanup(svc.Close)
	return &host{svc: svc}
}

func frame(t *testing.T, v any) []byte {
	t.Helper()
	body, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	buf := make([]byte, 4, 4+len(body))
	binary.LittleEndian.PutUint32(buf, uint32(len(body)))
	return append(buf, body...)
}

type decoded struct {
	OK   bool            `json:"ok"`
	Code string          `json:"code"`
	Data json.RawMessage `json:"data"`
}

func call(t *testing.T, h *host, req any) decoded {
	t.Helper()
	payload, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp := h.handleRequest(context.Background(), payload)
	encoded, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}
	var out decoded
	if err := json.Unmarshal(encoded, &out); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	return out
}

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	if err := writeFrame(w, response{OK: true, Code: "X"}); err != nil {
		t.Fatalf("writeFrame returned error: %v", err)
	}

	payload, err := readFrame(bufio.NewReader(&buf))
	if err != nil {
		t.Fatalf("readFrame returned error: %v", err)
	}
	if string(payload) != `{"ok":true,"code":"X"}` {
		t.Fatalf("unexpected payload %s", payload)
	}
}

func TestReadFrameRejectsOversize(t *testing.T) {
	lenBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(lenBuf, maxFrameSize+1)

	_, err := readFrame(bufio.NewReader(bytes.NewReader(lenBuf)))
	if !errors.Is(err, errFrameTooLarge) {
		t.Fatalf("expected errFrameTooLarge, got %v", err)
	}
}

func TestHandleRequestErrors(t *testing.T) {
	h := newTestHost(t)

	if resp := h.handleRequest(context.Background(), []byte("{")); resp.Code != "BAD_JSON" {
		t.Errorf("broken json: code %q", resp.Code)
	}

	tests := []struct {
		name string
		req  map[string]any
		code string
	}{
		{name: "unknown", req: map[string]any{"type": "unlock"}, code: "UNSUPPORTED"},
		{name: "parse without url", req: map[string]any{"type": "parse"}, code: "BAD_REQUEST"},
		{name: "parse garbage", req: map[string]any{"type": "parse", "url": "not a host"}, code: "UNPARSEABLE"},
		{name: "suggest without target", req: map[string]any{"type": "suggest"}, code: "BAD_REQUEST"},
		{name: "negative limit", req: map[string]any{"type": "suggest", "url": "example.com", "limit": -1}, code: "BAD_REQUEST"},
		{name: "wrong field type", req: map[string]any{"type": "suggest", "url": 12}, code: "BAD_JSON"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := call(t, h, tt.req)
			if resp.OK || resp.Code != tt.code {
				t.Fatalf("got ok=%v code=%q, want code %q", resp.OK, resp.Code, tt.code)
			}
		})
	}
}

func TestHandleParse(t *testing.T) {
	h := newTestHost(t)

	resp := call(t, h, map[string]any{"type": "parse", "url": "https://mail.example.co.uk/inbox"})
	if !resp.OK {
		t.Fatalf("parse failed: %q", resp.Code)
	}
	var data hostData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	want := hostData{Kind: "domain", Protocol: "https", Host: "mail.example.co.uk", RegistrableDomain: "example.co.uk"}
	if data != want {
		t.Fatalf("got %+v, want %+v", data, want)
	}
}

func TestServeSuggest(t *testing.T) {
	h := newTestHost(t)
	ctx := context.Background()

	for _, site := range []string{"login.example.com", "example.com", "example.org"} {
		if _, err := h.svc.Add(ctx, "", "user@"+site, []string{site}, nil); err != nil {
			t.Fatalf("Add returned error: %v", err)
		}
	}

	var in bytes.Buffer
	in.Write(frame(t, map[string]any{"type": "health"}))
	in.Write(frame(t, map[string]any{"type": "suggest", "url": "https://example.com"}))
	in.Write(frame(t, map[string]any{"type": "suggest", "url": "https://example.com", "limit": 1}))

	var out bytes.Buffer
	if err := h.serve(ctx, &in, &out); err != nil {
		t.Fatalf("serve returned error: %v", err)
	}

	reader := bufio.NewReader(&out)
	var got []decoded
	for range 3 {
		payload, err := readFrame(reader)
		if err != nil {
			t.Fatalf("readFrame returned error: %v", err)
		}
		var d decoded
		if err := json.Unmarshal(payload, &d); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		got = append(got, d)
	}

	if !got[0].OK || string(got[0].Data) != `{"version":"`+version+`"}` {
		t.Fatalf("unexpected health response %+v", got[0])
	}

	var full struct {
		Items []itemData `json:"items"`
	}
	if err := json.Unmarshal(got[1].Data, &full); err != nil {
		t.Fatalf("decode items: %v", err)
	}
	if len(full.Items) != 2 || full.Items[0].Username != "user@example.com" || full.Items[1].Username != "user@login.example.com" {
		t.Fatalf("unexpected items %+v", full.Items)
	}

	var limited struct {
		Items []itemData `json:"items"`
	}
	if err := json.Unmarshal(got[2].Data, &limited); err != nil {
		t.Fatalf("decode items: %v", err)
	}
	if len(limited.Items) != 1 || limited.Items[0].Username != "user@example.com" {
		t.Fatalf("unexpected limited items %+v", limited.Items)
	}
}
