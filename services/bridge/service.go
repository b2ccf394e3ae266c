// Package bridge is the request/response engine of the worker: it
// dispatches line-delimited JSON-RPC calls onto the twitter scraping
// capability and keeps the per-process session state.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"

	"scrapebridge/lib/jsonrpc"
	"scrapebridge/lib/scrapers/twitter"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const Version = "1.0.0"

const defaultCount = 20

// Capability is the slice of the twitter client the bridge needs.
// Tests substitute stubs for it.
type Capability interface {
	Login(ctx context.Context, username, email, password string) error
	SearchTweets(ctx context.Context, query string, count int) ([]twitter.RawTweet, error)
	GetTrends(ctx context.Context, count int) ([]twitter.RawTrend, error)
}

// SessionState tracks whether the capability has been authenticated.
// It is only ever written by a successful initialize and never reset
// for the lifetime of the process.
type SessionState struct {
	Authenticated bool
	Identity      string
}

type Service struct {
	capability Capability
	session    SessionState
}

func NewService(capability Capability) *Service {
	return &Service{capability: capability}
}

func (s *Service) Session() SessionState {
	return s.session
}

// business-level failure types, distinct from protocol errors: a bad
// credential is an outcome, not a broken request
const (
	ErrTypeNotInitialized = "NOT_INITIALIZED"
	ErrTypeAuth           = "AUTH_ERROR"
	ErrTypeAPI            = "API_ERROR"
	ErrTypeUnknown        = "UNKNOWN_ERROR"
)

type initializeSuccess struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Username string `json:"username"`
}

type searchSuccess struct {
	Success bool    `json:"success"`
	Tweets  []Tweet `json:"tweets"`
	Count   int     `json:"count"`
	Query   string  `json:"query"`
}

type trendingSuccess struct {
	Success bool    `json:"success"`
	Trends  []Trend `json:"trends"`
	Count   int     `json:"count"`
}

type failure struct {
	Success    bool   `json:"success"`
	Error      string `json:"error"`
	Type       string `json:"type"`
	Diagnostic string `json:"diagnostic,omitempty"`
}

func unknownFailure(message string, err error) failure {
	return failure{
		Error:      fmt.Sprintf("%s: %v", message, err),
		Type:       ErrTypeUnknown,
		Diagnostic: fmt.Sprintf("%+v\n%s", err, debug.Stack()),
	}
}

// Initialize authenticates the capability. On success the session
// becomes (and stays) authenticated; on failure it is left untouched,
// so a later retry with good credentials still works.
func (s *Service) Initialize(ctx context.Context, username, email, password string) any {
	ctx, span := tracer.Start(ctx, "Initialize")
	defer span.End()

	err := s.capability.Login(ctx, username, email, password)
	if err == nil {
		s.session = SessionState{Authenticated: true, Identity: username}
		return initializeSuccess{
			Success:  true,
			Message:  "twitter client initialized successfully",
			Username: username,
		}
	}

	span.RecordError(err)
	var twErr *twitter.Error
	if errors.As(err, &twErr) {
		return failure{
			Error: fmt.Sprintf("twitter authentication failed: %v", err),
			Type:  ErrTypeAuth,
		}
	}
	return unknownFailure("initialization failed", err)
}

// Search runs a tweet search and maps the raw results best-effort:
// items that cannot be mapped are dropped, never failing the batch.
func (s *Service) Search(ctx context.Context, query string, count int) any {
	ctx, span := tracer.Start(ctx, "Search")
	defer span.End()

	if !s.session.Authenticated {
		return failure{
			Error: "Client not initialized. Call initialize first.",
			Type:  ErrTypeNotInitialized,
		}
	}

	raws, err := s.capability.SearchTweets(ctx, query, count)
	if err != nil {
		span.RecordError(err)
		var twErr *twitter.Error
		if errors.As(err, &twErr) {
			return failure{
				Error: fmt.Sprintf("twitter API error: %v", err),
				Type:  ErrTypeAPI,
			}
		}
		return unknownFailure("search failed", err)
	}

	tweets := make([]Tweet, 0, len(raws))
	for _, raw := range raws {
		tweet, ok := tweetFromRaw(raw)
		if !ok {
			continue
		}
		tweets = append(tweets, tweet)
	}
	return searchSuccess{
		Success: true,
		Tweets:  tweets,
		Count:   len(tweets),
		Query:   query,
	}
}

// Trending lists current trends, truncated to count, with the same
// best-effort per-item mapping as Search.
func (s *Service) Trending(ctx context.Context, count int) any {
	ctx, span := tracer.Start(ctx, "Trending")
	defer span.End()

	if !s.session.Authenticated {
		return failure{
			Error: "Client not initialized. Call initialize first.",
			Type:  ErrTypeNotInitialized,
		}
	}

	raws, err := s.capability.GetTrends(ctx, count)
	if err != nil {
		span.RecordError(err)
		var twErr *twitter.Error
		if errors.As(err, &twErr) {
			return failure{
				Error: fmt.Sprintf("twitter API error: %v", err),
				Type:  ErrTypeAPI,
			}
		}
		return unknownFailure("trending fetch failed", err)
	}

	trends := make([]Trend, 0, min(count, len(raws)))
	for _, raw := range raws {
		if len(trends) == count {
			break
		}
		trend, ok := trendFromRaw(raw)
		if !ok {
			continue
		}
		trends = append(trends, trend)
	}
	return trendingSuccess{
		Success: true,
		Trends:  trends,
		Count:   len(trends),
	}
}

func countOrDefault(count *int) int {
	if count == nil || *count < 0 {
		return defaultCount
	}
	return *count
}

// HandleRequest resolves the method and wraps the handler's payload
// into the response envelope. Every failure mode is contained here:
// a panicking handler becomes a -32603 response, never a dead worker.
func (s *Service) HandleRequest(ctx context.Context, req jsonrpc.Request) (resp jsonrpc.Response) {
	ctx, span := tracer.Start(ctx, "HandleRequest")
	defer span.End()
	span.SetAttributes(attribute.String("rpc.method", req.Method))
	requestCount.Add(ctx, 1, metric.WithAttributes(attribute.String("method", req.Method)))

	defer func() {
		if r := recover(); r != nil {
			protocolErrorCount.Add(ctx, 1)
			resp = jsonrpc.NewErrorData(
				req.ID,
				jsonrpc.CodeInternalError,
				fmt.Sprintf("Internal error: %v", r),
				string(debug.Stack()),
			)
		}
	}()

	switch req.Method {
	case "initialize":
		// missing credentials are passed through empty rather than
		// pre-validated; the capability is the authority on them
		var params struct {
			Username string `json:"username"`
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		decodeParams(req.Params, &params)
		return jsonrpc.NewResult(req.ID, s.Initialize(ctx, params.Username, params.Email, params.Password))

	case "search":
		var params struct {
			Query string `json:"query"`
			Count *int   `json:"count"`
		}
		decodeParams(req.Params, &params)
		return jsonrpc.NewResult(req.ID, s.Search(ctx, params.Query, countOrDefault(params.Count)))

	case "trending":
		var params struct {
			Count *int `json:"count"`
		}
		decodeParams(req.Params, &params)
		return jsonrpc.NewResult(req.ID, s.Trending(ctx, countOrDefault(params.Count)))

	default:
		protocolErrorCount.Add(ctx, 1)
		return jsonrpc.NewError(req.ID, jsonrpc.CodeMethodNotFound, fmt.Sprintf("Method not found: %s", req.Method))
	}
}

func decodeParams(raw json.RawMessage, out any) {
	if len(raw) == 0 {
		return
	}
	// a decode failure leaves params at their zero values, matching
	// the absent-parameter behavior
	_ = json.Unmarshal(raw, out)
}
