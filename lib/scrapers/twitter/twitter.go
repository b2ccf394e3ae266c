// Package twitter implements the scraping capability the bridge
// brokers: credential login, tweet search and trend listing against
// the twitter web endpoints.
package twitter

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"sort"
	"time"

	twitterdb "scrapebridge/lib/scrapers/twitter/db"
	"scrapebridge/lib/sqliteutil"
	"scrapebridge/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/codes"
)

const (
	apiBaseURL = "https://api.twitter.com"
	webBaseURL = "https://twitter.com"

	// public bearer token of the twitter web client, required on
	// every api call alongside the session cookies
	webBearerToken = "AAAAAAAAAAAAAAAAAAAAANRILgAAAAAAnNwIzUejRCOuH5E6I8xnZz4puTs%3D1Zv7ttfk8LF81IUq16cHjhLTvJu4FA33AGWWjCpTnA"
)

type ClientOptions struct {
	// locale sent on the login flow, e.g. "en-US"
	Locale string
	// optional sqlite path; when set, session cookies survive
	// worker restarts
	SessionDB string
}

type Client struct {
	http   *resty.Client
	jar    *cookiejar.Jar
	locale string
	db     *sql.DB
	store  *twitterdb.Store
	apiURL *url.URL
	webURL *url.URL
}

func NewClient(ctx context.Context, opts ClientOptions) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	apiURL, err := url.Parse(apiBaseURL)
	if err != nil {
		return nil, err
	}
	webURL, err := url.Parse(webBaseURL)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(apiBaseURL)
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetHeader("authorization", fmt.Sprintf("Bearer %s", webBearerToken))
	client.SetTimeout(time.Second * 30)

	// twitter rejects cookie-authenticated calls without a csrf
	// header matching the ct0 cookie
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		for _, cookie := range jar.Cookies(apiURL) {
			if cookie.Name == "ct0" {
				req.SetHeader("x-csrf-token", cookie.Value)
			}
		}
		return nil
	})

	telemetry.InstrumentResty(client, "scrapebridge.lib.scrapers.twitter.http")

	c := &Client{
		http:   client,
		jar:    jar,
		locale: opts.Locale,
		apiURL: apiURL,
		webURL: webURL,
	}

	if opts.SessionDB != "" {
		database, err := sqliteutil.OpenAndMigrateDB(twitterdb.Schema, opts.SessionDB)
		if err != nil {
			return nil, fmt.Errorf("open session db: %w", err)
		}
		store := twitterdb.NewStore(database)
		c.db = database
		c.store = &store

		err = c.restoreSession(ctx)
		if err != nil {
			return nil, fmt.Errorf("restore session: %w", err)
		}
	}

	return c, nil
}

func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func (c *Client) restoreSession(ctx context.Context) error {
	cookies, err := c.store.LoadCookies(ctx)
	if err != nil {
		return err
	}
	if len(cookies) == 0 {
		return nil
	}

	byDomain := map[string][]*http.Cookie{}
	for _, cookie := range cookies {
		byDomain[cookie.Domain] = append(byDomain[cookie.Domain], cookie)
	}
	for _, u := range []*url.URL{c.apiURL, c.webURL} {
		if group, ok := byDomain[u.Host]; ok {
			c.jar.SetCookies(u, group)
		}
	}
	return nil
}

func (c *Client) persistSession(ctx context.Context) error {
	if c.store == nil {
		return nil
	}

	var all []*http.Cookie
	for _, u := range []*url.URL{c.apiURL, c.webURL} {
		for _, cookie := range c.jar.Cookies(u) {
			stored := *cookie
			stored.Domain = u.Host
			stored.Path = "/"
			all = append(all, &stored)
		}
	}
	return c.store.SaveCookies(ctx, all)
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func classify(op string, errs []apiError, res *resty.Response) error {
	if len(errs) > 0 {
		return &Error{Op: op, Code: errs[0].Code, Message: errs[0].Message}
	}
	if res.IsError() {
		return &Error{Op: op, Message: res.Status()}
	}
	return nil
}

var guestTokenRegex = regexp.MustCompile(`gt=(\d+)`)

// guestToken bootstraps an unauthenticated session. The token is
// embedded in an inline script on the landing page; the activate
// endpoint is the fallback when the page layout changes.
func (c *Client) guestToken(ctx context.Context) (string, error) {
	ctx, span := tracer.Start(ctx, "guestToken")
	defer span.End()

	res, err := c.http.R().
		SetContext(ctx).
		Get(webBaseURL)
	if err == nil && res.IsSuccess() {
		doc, derr := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
		if derr == nil {
			token := ""
			doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
				groups := guestTokenRegex.FindStringSubmatch(s.Text())
				if len(groups) == 2 {
					token = groups[1]
					return false
				}
				return true
			})
			if token != "" {
				return token, nil
			}
		}
	}

	res, err = c.http.R().
		SetContext(ctx).
		Post("/1.1/guest/activate.json")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "guest token activation failed")
		return "", err
	}
	var body struct {
		GuestToken string     `json:"guest_token"`
		Errors     []apiError `json:"errors"`
	}
	err = json.Unmarshal(res.Body(), &body)
	if err != nil {
		return "", fmt.Errorf("decode guest token: %w", err)
	}
	if cerr := classify("guest token", body.Errors, res); cerr != nil {
		return "", cerr
	}
	return body.GuestToken, nil
}

type flowResponse struct {
	FlowToken string `json:"flow_token"`
	Status    string `json:"status"`
	Subtasks  []struct {
		SubtaskID string `json:"subtask_id"`
	} `json:"subtasks"`
	Errors []apiError `json:"errors"`
}

func (f flowResponse) hasSubtask(id string) bool {
	for _, s := range f.Subtasks {
		if s.SubtaskID == id {
			return true
		}
	}
	return false
}

func (c *Client) flowStep(ctx context.Context, guestToken string, query string, body any) (flowResponse, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("x-guest-token", guestToken).
		SetHeader("content-type", "application/json").
		SetBody(body).
		Post("/1.1/onboarding/task.json" + query)
	if err != nil {
		return flowResponse{}, err
	}

	var flow flowResponse
	err = json.Unmarshal(res.Body(), &flow)
	if err != nil {
		return flowResponse{}, fmt.Errorf("decode flow response: %w", err)
	}
	if cerr := classify("login flow", flow.Errors, res); cerr != nil {
		return flowResponse{}, cerr
	}
	return flow, nil
}

// Login runs the onboarding login flow: user identifier, alternate
// identifier when challenged, then password. Rejections come back as
// *Error; transport faults as plain errors.
func (c *Client) Login(ctx context.Context, username, email, password string) error {
	ctx, span := tracer.Start(ctx, "Login")
	defer span.End()

	guestToken, err := c.guestToken(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "guest token bootstrap failed")
		return err
	}

	flow, err := c.flowStep(ctx, guestToken, "?flow_name=login", map[string]any{
		"input_flow_data": map[string]any{
			"flow_context": map[string]any{
				"debug_overrides": map[string]any{},
				"start_location":  map[string]any{"location": "splash_screen"},
			},
		},
		"subtask_versions": map[string]any{},
	})
	if err != nil {
		return err
	}

	flow, err = c.flowStep(ctx, guestToken, "", map[string]any{
		"flow_token": flow.FlowToken,
		"subtask_inputs": []any{map[string]any{
			"subtask_id": "LoginEnterUserIdentifierSSO",
			"settings_list": map[string]any{
				"setting_responses": []any{map[string]any{
					"key":           "user_identifier",
					"response_data": map[string]any{"text_data": map[string]any{"result": username}},
				}},
				"link": "next_link",
			},
		}},
	})
	if err != nil {
		return err
	}

	// twitter sometimes challenges with a request for the email
	// before accepting the password
	if flow.hasSubtask("LoginEnterAlternateIdentifierSubtask") {
		flow, err = c.flowStep(ctx, guestToken, "", map[string]any{
			"flow_token": flow.FlowToken,
			"subtask_inputs": []any{map[string]any{
				"subtask_id": "LoginEnterAlternateIdentifierSubtask",
				"enter_text": map[string]any{"text": email, "link": "next_link"},
			}},
		})
		if err != nil {
			return err
		}
	}

	flow, err = c.flowStep(ctx, guestToken, "", map[string]any{
		"flow_token": flow.FlowToken,
		"subtask_inputs": []any{map[string]any{
			"subtask_id": "LoginEnterPassword",
			"enter_password": map[string]any{
				"password": password,
				"link":     "next_link",
			},
		}},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "password step rejected")
		return err
	}

	if flow.hasSubtask("DenyLoginSubtask") {
		err = &Error{Op: "login", Message: "login denied by twitter"}
		span.RecordError(err)
		span.SetStatus(codes.Error, "login denied")
		return err
	}

	err = c.persistSession(ctx)
	if err != nil {
		// the session itself is live, only persistence failed
		span.RecordError(err)
	}
	return nil
}

type adaptiveResponse struct {
	GlobalObjects struct {
		Tweets map[string]RawTweet `json:"tweets"`
		Users  map[string]RawUser  `json:"users"`
	} `json:"globalObjects"`
	Errors []apiError `json:"errors"`
}

// snowflake ids are numeric and monotonically increasing, so longer
// is newer, then lexicographic
func newerTweetID(a, b string) bool {
	if len(a) != len(b) {
		return len(a) > len(b)
	}
	return a > b
}

// SearchTweets returns up to count of the latest tweets matching the
// query, newest first. Authors are joined from the users table of the
// response; a tweet whose author record is missing keeps User == nil.
func (c *Client) SearchTweets(ctx context.Context, query string, count int) ([]RawTweet, error) {
	ctx, span := tracer.Start(ctx, "SearchTweets")
	defer span.End()

	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":                 query,
			"count":             fmt.Sprintf("%d", count),
			"tweet_mode":        "extended",
			"tweet_search_mode": "live",
			"query_source":      "typed_query",
		}).
		Get("/2/search/adaptive.json")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search request failed")
		return nil, err
	}

	var body adaptiveResponse
	err = json.Unmarshal(res.Body(), &body)
	if err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	if cerr := classify("search", body.Errors, res); cerr != nil {
		span.RecordError(cerr)
		span.SetStatus(codes.Error, "search rejected")
		return nil, cerr
	}

	tweets := make([]RawTweet, 0, len(body.GlobalObjects.Tweets))
	for _, tweet := range body.GlobalObjects.Tweets {
		if user, ok := body.GlobalObjects.Users[tweet.UserIDStr]; ok {
			u := user
			tweet.User = &u
		}
		tweets = append(tweets, tweet)
	}
	sort.Slice(tweets, func(i, j int) bool {
		return newerTweetID(tweets[i].IDStr, tweets[j].IDStr)
	})
	if count > 0 && len(tweets) > count {
		tweets = tweets[:count]
	}
	return tweets, nil
}

// GetTrends returns the current worldwide trends (woeid 1).
func (c *Client) GetTrends(ctx context.Context, count int) ([]RawTrend, error) {
	ctx, span := tracer.Start(ctx, "GetTrends")
	defer span.End()

	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("id", "1").
		Get("/1.1/trends/place.json")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "trends request failed")
		return nil, err
	}

	var body []struct {
		Trends []RawTrend `json:"trends"`
		Errors []apiError `json:"errors"`
	}
	err = json.Unmarshal(res.Body(), &body)
	if err != nil {
		// error payloads come back as an object, not an array
		var errBody struct {
			Errors []apiError `json:"errors"`
		}
		if jerr := json.Unmarshal(res.Body(), &errBody); jerr == nil {
			if cerr := classify("trends", errBody.Errors, res); cerr != nil {
				span.RecordError(cerr)
				span.SetStatus(codes.Error, "trends rejected")
				return nil, cerr
			}
		}
		return nil, fmt.Errorf("decode trends response: %w", err)
	}
	if cerr := classify("trends", nil, res); cerr != nil {
		span.RecordError(cerr)
		span.SetStatus(codes.Error, "trends rejected")
		return nil, cerr
	}

	var trends []RawTrend
	for _, group := range body {
		trends = append(trends, group.Trends...)
	}
	if count > 0 && len(trends) > count {
		trends = trends[:count]
	}
	return trends, nil
}
