package portal

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"slices"
	"strings"

	"github.com/tartampluch/go-payslip/internal/config"
	"golang.org/x/net/html"
	"golang.org/x/net/publicsuffix"
)

// page is a fetched portal page after redirects.
type page struct {
	URL  string
	Doc  *html.Node
	Form formState
}

// session is one logged-in browsing context. It owns its cookie jar and
// connections; close releases them.
type session struct {
	http   *http.Client
	origin string
	trace  *slog.Logger
	// current is the URL of the last page, sent as Referer on postbacks.
	current string
}

func newSession(c *Client) (*session, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	transport := c.Transport
	if transport == nil {
		transport = http.DefaultTransport.(*http.Transport).Clone()
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrInvalidURL, err)
	}
	if u.Scheme != config.SchemeHTTP && u.Scheme != config.SchemeHTTPS {
		return nil, fmt.Errorf("%s: %s", config.ErrProtocol, u.Scheme)
	}

	return &session{
		http: &http.Client{
			Jar:       jar,
			Transport: transport,
			Timeout:   c.Timeout,
		},
		origin: u.Scheme + "://" + u.Host,
		trace:  c.trace(),
	}, nil
}

func (s *session) close() {
	s.http.CloseIdleConnections()
}

func (s *session) get(ctx context.Context, step, target string) (*page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return s.do(step, req, nil)
}

// post sends a postback form to target with the current page as Referer.
func (s *session) post(ctx context.Context, step, target string, form url.Values) (*page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	req.Header.Set(config.HeaderContentType, config.MimeForm)
	if s.current != "" {
		req.Header.Set(config.HeaderReferer, s.current)
	}
	return s.do(step, req, form)
}

func (s *session) do(step string, req *http.Request, form url.Values) (*page, error) {
	req.Header.Set(config.HeaderUserAgent, config.UserAgent)
	req.Header.Set(config.HeaderAccept, config.AcceptHTML)
	req.Header.Set(config.HeaderAcceptLanguage, config.AcceptLanguage)
	req.Header.Set(config.HeaderOrigin, s.origin)

	resp, err := s.http.Do(req)
	if err != nil {
		s.trace.Warn(config.MsgStep,
			config.LogKeyStep, step,
			config.LogKeyMethod, req.Method,
			config.LogKeyURL, req.URL.String(),
			config.LogKeyError, err,
		)
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	finalURL := resp.Request.URL.String()
	s.trace.Info(config.MsgStep,
		config.LogKeyStep, step,
		config.LogKeyMethod, req.Method,
		config.LogKeyURL, req.URL.String(),
		config.LogKeyStatus, resp.StatusCode,
		config.LogKeyRedirects, redirectChain(resp),
		config.LogKeyForm, traceForm(form),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s: %d %s", ErrTransport, config.ErrStatus, resp.StatusCode, finalURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, config.MaxHTTPResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	if len(body) > config.MaxHTTPResponseSize {
		return nil, fmt.Errorf("%w: %s: %s", ErrTransport, config.ErrResponseTooLarge, finalURL)
	}

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrTransport, config.ErrParseHTML, err)
	}

	s.current = finalURL
	return &page{URL: finalURL, Doc: doc, Form: hiddenFields(doc)}, nil
}

// redirectChain lists "status -> location" for each hop that led to resp.
func redirectChain(resp *http.Response) []string {
	var chain []string
	for r := resp.Request.Response; r != nil; r = r.Request.Response {
		chain = append(chain, fmt.Sprintf("%d -> %s", r.StatusCode, r.Header.Get("Location")))
	}
	slices.Reverse(chain)
	return chain
}

// traceForm renders posted fields for the trace. View-state blobs are
// truncated and the password is never written.
func traceForm(form url.Values) []string {
	if form == nil {
		return nil
	}
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		v := form.Get(k)
		switch {
		case k == config.FieldLoginPW:
			v = "***"
		case strings.HasPrefix(k, "__VIEWSTATE") || k == config.FieldEventValidation:
			if len(v) > config.TraceValueLimit {
				v = v[:config.TraceValueLimit] + "..."
			}
		}
		out = append(out, k+"="+v)
	}
	return out
}
