package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/joho/godotenv"

	"github.com/wolfman30/psychwebmd-intake/cmd/mainconfig"
	"github.com/wolfman30/psychwebmd-intake/internal/app/bootstrap"
	appconfig "github.com/wolfman30/psychwebmd-intake/internal/config"
	"github.com/wolfman30/psychwebmd-intake/pkg/logging"
)

const (
	sweepInterval = time.Minute
	sessionIdle   = 30 * time.Minute
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	ctx := context.Background()

	dynamoClient, err := mainconfig.DynamoClient(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	api, err := bootstrap.BuildAPI(ctx, cfg, logger, bootstrap.APIOptions{DynamoClient: dynamoClient})
	if err != nil {
		logger.Error("failed to build api", "error", err)
		os.Exit(1)
	}
	defer api.Close()

	sweeper := newIdleSweeper(api.Engine, sweepInterval, sessionIdle)
	lambda.Start(func(ctx context.Context, evt events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		if n := sweeper.maybeSweep(); n > 0 {
			logger.Debug("idle wizard sessions dropped", "count", n)
		}
		return handle(ctx, cfg, api.Handler, evt)
	})
}

type sessionSweeper interface {
	Sweep(idle time.Duration) int
}

// idleSweeper drops idle wizard sessions at most once per interval. A
// frozen container runs no tickers, so warm invocations drive the sweep.
type idleSweeper struct {
	engine   sessionSweeper
	interval time.Duration
	idle     time.Duration
	now      func() time.Time

	mu   sync.Mutex
	last time.Time
}

func newIdleSweeper(engine sessionSweeper, interval, idle time.Duration) *idleSweeper {
	return &idleSweeper{engine: engine, interval: interval, idle: idle, now: time.Now, last: time.Now()}
}

func (s *idleSweeper) maybeSweep() int {
	s.mu.Lock()
	now := s.now()
	if now.Sub(s.last) < s.interval {
		s.mu.Unlock()
		return 0
	}
	s.last = now
	s.mu.Unlock()
	return s.engine.Sweep(s.idle)
}

// handle replays a function invocation against the in-process router.
func handle(ctx context.Context, cfg *appconfig.Config, handler http.Handler, evt events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	method := strings.ToUpper(strings.TrimSpace(evt.RequestContext.HTTP.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := strings.TrimSpace(evt.RawPath)
	if path == "" {
		path = strings.TrimSpace(evt.RequestContext.HTTP.Path)
	}
	path = rewritePath(path, cfg.LambdaStripPrefix, cfg.APIBasePath)

	body, err := decodeBody(evt)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusBadRequest, Body: `{"error":"invalid body"}`}, nil
	}

	target := path
	if qs := strings.TrimSpace(evt.RawQueryString); qs != "" {
		target += "?" + qs
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(body))
	if err != nil {
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusInternalServerError}, nil
	}
	for k, v := range evt.Headers {
		req.Header.Set(k, v)
	}
	if ip := strings.TrimSpace(evt.RequestContext.HTTP.SourceIP); ip != "" {
		req.RemoteAddr = ip + ":0"
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	out := events.APIGatewayV2HTTPResponse{
		StatusCode: rec.Code,
		Body:       rec.Body.String(),
		Headers:    map[string]string{},
	}
	for k := range rec.Header() {
		out.Headers[strings.ToLower(k)] = rec.Header().Get(k)
	}
	return out, nil
}

// rewritePath drops the function mount prefix and puts the API base path back
// so the router sees the same paths as the standalone server.
func rewritePath(path, stripPrefix, basePath string) string {
	if path == "" {
		path = "/"
	}
	if stripPrefix != "" && strings.HasPrefix(path, stripPrefix) {
		path = strings.TrimPrefix(path, stripPrefix)
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		if path == "/health" {
			return path
		}
		if basePath != "" && path != basePath && !strings.HasPrefix(path, basePath+"/") {
			path = strings.TrimRight(basePath+path, "/")
			if path == "" {
				path = "/"
			}
		}
	}
	return path
}

func decodeBody(evt events.APIGatewayV2HTTPRequest) ([]byte, error) {
	if !evt.IsBase64Encoded {
		return []byte(evt.Body), nil
	}
	decoded, err := base64.StdEncoding.DecodeString(evt.Body)
	if err != nil {
		return nil, err
	}
	return decoded, nil
}
