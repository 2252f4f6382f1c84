package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wolfman30/psychwebmd-intake/internal/app/bootstrap"
	appconfig "github.com/wolfman30/psychwebmd-intake/internal/config"
	"github.com/wolfman30/psychwebmd-intake/pkg/logging"
)

func testConfig() *appconfig.Config {
	return &appconfig.Config{
		APIBasePath:        "/api",
		LambdaStripPrefix:  "/.netlify/functions/api",
		StorageBackend:     appconfig.BackendMemory,
		DraftBackend:       appconfig.BackendMemory,
		CORSAllowedOrigins: []string{"*"},
	}
}

func testHandler(t *testing.T, cfg *appconfig.Config) http.Handler {
	t.Helper()
	reg := prometheus.NewRegistry()
	api, err := bootstrap.BuildAPI(context.Background(), cfg, logging.Discard(), bootstrap.APIOptions{Registerer: reg, Gatherer: reg})
	if err != nil {
		t.Fatalf("build api: %v", err)
	}
	t.Cleanup(api.Close)
	return api.Handler
}

func request(method, path, body string) events.APIGatewayV2HTTPRequest {
	return events.APIGatewayV2HTTPRequest{
		RawPath: path,
		Body:    body,
		Headers: map[string]string{"content-type": "application/json"},
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{Method: method, Path: path},
		},
	}
}

func TestRewritePath(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"/.netlify/functions/api/appointments", "/api/appointments"},
		{"/.netlify/functions/api", "/api"},
		{"/.netlify/functions/api/", "/api"},
		{"/.netlify/functions/api/api/contact", "/api/contact"},
		{"/.netlify/functions/api/health", "/health"},
		{"/api/appointments", "/api/appointments"},
		{"", "/"},
	}
	for _, tc := range cases {
		if got := rewritePath(tc.in, "/.netlify/functions/api", "/api"); got != tc.want {
			t.Errorf("rewritePath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestHandleServesRootMessage(t *testing.T) {
	cfg := testConfig()
	resp, err := handle(context.Background(), cfg, testHandler(t, cfg), request(http.MethodGet, "/.netlify/functions/api", ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, resp.Body)
	}
	var body map[string]string
	if err := json.Unmarshal([]byte(resp.Body), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["message"] != "PsychWebMD API is running!" {
		t.Fatalf("unexpected message %q", body["message"])
	}
	if resp.Headers["content-type"] != "application/json" {
		t.Fatalf("expected json content type, got %q", resp.Headers["content-type"])
	}
}

func TestHandleCreatesContactFromBase64Body(t *testing.T) {
	cfg := testConfig()
	handler := testHandler(t, cfg)

	payload := `{"name":"Jane Doe","email":"jane@example.com","phone":"7165550100","message":"Please call me"}`
	evt := request(http.MethodPost, "/.netlify/functions/api/contact", base64.StdEncoding.EncodeToString([]byte(payload)))
	evt.IsBase64Encoded = true

	resp, err := handle(context.Background(), cfg, handler, evt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, resp.Body)
	}

	list, err := handle(context.Background(), cfg, handler, request(http.MethodGet, "/.netlify/functions/api/contact", ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var items []map[string]any
	if err := json.Unmarshal([]byte(list.Body), &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 1 || items[0]["name"] != "Jane Doe" {
		t.Fatalf("unexpected list %s", list.Body)
	}
}

func TestHandleRejectsInvalidBase64(t *testing.T) {
	cfg := testConfig()
	evt := request(http.MethodPost, "/.netlify/functions/api/contact", "%%%")
	evt.IsBase64Encoded = true

	resp, err := handle(context.Background(), cfg, testHandler(t, cfg), evt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestDecodeBodyPlain(t *testing.T) {
	body, err := decodeBody(events.APIGatewayV2HTTPRequest{Body: "hello"})
	if err != nil || string(body) != "hello" {
		t.Fatalf("unexpected body %q err %v", body, err)
	}
}

func TestIdleSweeperDropsSessionsOfWarmContainer(t *testing.T) {
	cfg := testConfig()
	reg := prometheus.NewRegistry()
	api, err := bootstrap.BuildAPI(context.Background(), cfg, logging.Discard(), bootstrap.APIOptions{Registerer: reg, Gatherer: reg})
	if err != nil {
		t.Fatalf("build api: %v", err)
	}
	t.Cleanup(api.Close)

	if _, err := api.Engine.Open(context.Background(), "intake-form-flow", "warm"); err != nil {
		t.Fatalf("open: %v", err)
	}

	now := time.Now()
	sweeper := newIdleSweeper(api.Engine, time.Minute, 30*time.Minute)
	sweeper.now = func() time.Time { return now }

	if n := sweeper.maybeSweep(); n != 0 {
		t.Fatalf("sweep ran before the interval elapsed: %d", n)
	}

	// The engine compares against the wall clock, so age the sweep window
	// and ask for anything idle at all.
	now = now.Add(2 * time.Minute)
	sweeper.idle = -time.Hour
	if n := sweeper.maybeSweep(); n != 1 {
		t.Fatalf("expected the idle session to be dropped, got %d", n)
	}
	if n := sweeper.maybeSweep(); n != 0 {
		t.Fatalf("expected no second sweep within the interval, got %d", n)
	}
}
