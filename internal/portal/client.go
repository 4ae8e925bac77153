// Package portal drives the payslip web portal: login, list navigation,
// detail extraction and logout, one session per year.
package portal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tartampluch/go-payslip/internal/config"
	"github.com/tartampluch/go-payslip/internal/payslip"
	"github.com/tartampluch/go-payslip/internal/period"
)

var (
	ErrTransport          = errors.New(config.ErrTransport)
	ErrInvalidCredentials = errors.New(config.ErrInvalidCredentials)
	ErrUnexpectedPage     = errors.New(config.ErrUnexpectedPage)
	ErrListUnavailable    = errors.New(config.ErrListUnavailable)
	ErrReturnToList       = errors.New(config.ErrReturnToList)
)

// Credentials identify the portal user.
type Credentials struct {
	LoginID  string
	Password string
}

// YearResult is the outcome of a successful FetchYear.
type YearResult struct {
	Year    int
	Records []payslip.Record
	// Skipped is set when the delta held nothing for the year and the
	// portal was not contacted.
	Skipped bool
	// Listed is the number of list rows found for the year.
	Listed int
}

// Client fetches payslips from the portal.
type Client struct {
	BaseURL     string
	CompanyCode string
	Timeout     time.Duration

	// Trace receives one record per HTTP exchange. Nil discards.
	Trace *slog.Logger

	// Transport overrides the HTTP transport; nil uses a fresh clone of
	// http.DefaultTransport per session.
	Transport http.RoundTripper
}

// NewClient creates a Client for the portal rooted at baseURL.
func NewClient(baseURL, companyCode string, timeout time.Duration, trace *slog.Logger) *Client {
	return &Client{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		CompanyCode: companyCode,
		Timeout:     timeout,
		Trace:       trace,
	}
}

func (c *Client) trace() *slog.Logger {
	if c.Trace == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c.Trace
}

func (c *Client) pageURL(path string) string {
	return c.BaseURL + path
}

func (c *Client) loginURL() string {
	q := url.Values{}
	q.Set(config.QueryCompany, c.CompanyCode)
	return c.pageURL(config.PathLogin) + "?" + q.Encode()
}

// landing is where a navigation ended up.
type landing int

const (
	landedUnexpected landing = iota
	landedMenu
	landedLoginRejected
	landedList
	landedDetail
)

func (l landing) String() string {
	switch l {
	case landedMenu:
		return "menu"
	case landedLoginRejected:
		return "login_rejected"
	case landedList:
		return "list"
	case landedDetail:
		return "detail"
	default:
		return "unexpected"
	}
}

// classify maps a final URL to a landing.
func (c *Client) classify(finalURL string) landing {
	switch {
	case strings.Contains(finalURL, c.pageURL(config.PathMenu)):
		return landedMenu
	case strings.Contains(finalURL, config.PathLoginFailed):
		return landedLoginRejected
	case strings.Contains(finalURL, c.pageURL(config.PathDetail)):
		return landedDetail
	case strings.Contains(finalURL, c.pageURL(config.PathList)):
		return landedList
	default:
		return landedUnexpected
	}
}

// FetchYear logs in, reads every listed payslip of year whose month key is
// in delta and logs out. When delta holds no month of the year, the portal
// is not contacted. On error no records are returned.
func (c *Client) FetchYear(ctx context.Context, creds Credentials, year int, delta period.KeySet) (YearResult, error) {
	log := slog.With(
		config.LogKeyComponent, config.CompPortal,
		config.LogKeyYear, year,
	)

	wanted := delta.ForYear(year)
	if wanted.Len() == 0 {
		log.Info(config.MsgYearSkipped)
		return YearResult{Year: year, Skipped: true}, nil
	}

	sess, err := newSession(c)
	if err != nil {
		return YearResult{}, err
	}
	defer sess.close()

	list, err := c.login(ctx, sess, creds)
	if err != nil {
		return YearResult{}, err
	}

	rows := scanList(list.Doc, payslip.YearMarker(year))
	log.Info(config.MsgListScanned,
		config.LogKeyCount, len(rows),
		config.LogKeyDelta, wanted.Len(),
	)
	if len(rows) == 0 {
		log.Warn(config.MsgListEmpty)
	}

	records, list, err := c.readDetails(ctx, sess, list, rows, wanted)
	if err != nil {
		return YearResult{}, err
	}

	c.logout(ctx, sess, list)
	return YearResult{Year: year, Records: records, Listed: len(rows)}, nil
}

// login walks login page → menu → list and returns the list page.
func (c *Client) login(ctx context.Context, sess *session, creds Credentials) (*page, error) {
	log := slog.With(config.LogKeyComponent, config.CompPortal)

	loginURL := c.loginURL()
	loginPage, err := sess.get(ctx, "login_page", loginURL)
	if err != nil {
		return nil, err
	}

	form := loginPage.Form.values("")
	form.Set(config.FieldHidden1, config.ValueHidden1)
	form.Set(config.FieldCheckWidth, config.ValueCheckWidth)
	form.Set(config.FieldLoginID, creds.LoginID)
	form.Set(config.FieldLoginPW, creds.Password)
	form.Set(config.FieldSubmit, config.ValueSubmit)

	menu, err := sess.post(ctx, "login", loginURL, form)
	if err != nil {
		return nil, err
	}

	landed := c.classify(menu.URL)
	switch landed {
	case landedMenu:
		log.Info(config.MsgLoginOK, config.LogKeyURL, menu.URL)
	case landedLoginRejected:
		log.Warn(config.MsgLoginRejected, config.LogKeyURL, menu.URL, config.LogKeyLanding, landed.String())
		return nil, ErrInvalidCredentials
	default:
		log.Warn(config.MsgLoginRejected, config.LogKeyURL, menu.URL, config.LogKeyLanding, landed.String())
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedPage, menu.URL)
	}

	list, err := sess.post(ctx, "show_salary", menu.URL, menu.Form.values(config.TargetShowSalary))
	if err != nil {
		return nil, err
	}
	if c.classify(list.URL) != landedList {
		return nil, fmt.Errorf("%w: %s", ErrListUnavailable, list.URL)
	}
	return list, nil
}

// readDetails opens the detail page of every wanted row and returns to the
// list after each one. It returns the list page the session ended on.
func (c *Client) readDetails(ctx context.Context, sess *session, list *page, rows []listRow, wanted period.KeySet) ([]payslip.Record, *page, error) {
	log := slog.With(config.LogKeyComponent, config.CompPortal)

	var records []payslip.Record
	for _, row := range rows {
		key, ok := payslip.KeyOf(row.Label)
		if !ok || !wanted.Has(key) {
			log.Debug(config.MsgRowSkipped, config.LogKeyLabel, row.Label)
			continue
		}

		detail, err := sess.post(ctx, "detail "+row.Button, list.URL, list.Form.values(row.Button))
		if err != nil {
			return nil, nil, err
		}
		if landed := c.classify(detail.URL); landed != landedDetail {
			// The portal stayed on (or returned to) some page; continue from it.
			log.Warn(config.MsgDetailMissed,
				config.LogKeyLabel, row.Label,
				config.LogKeyURL, detail.URL,
				config.LogKeyLanding, landed.String(),
			)
			list = detail
			continue
		}

		records = append(records, ParseDetail(detail.Doc).Record(row.Label))

		back := detail.Form.values(config.TargetGoBack)
		back.Set(config.QueryTimestamp, timestampOf(detail.URL))
		next, err := sess.post(ctx, "go_back", detail.URL, back)
		if err != nil {
			return nil, nil, err
		}
		if c.classify(next.URL) != landedList {
			return nil, nil, fmt.Errorf("%w: %s", ErrReturnToList, next.URL)
		}
		list = next
	}
	return records, list, nil
}

// logout is best effort; failures are only logged.
func (c *Client) logout(ctx context.Context, sess *session, current *page) {
	if _, err := sess.post(ctx, "logout", current.URL, current.Form.values(config.TargetLogOut)); err != nil {
		slog.Warn(config.MsgLogoutFailed,
			config.LogKeyComponent, config.CompPortal,
			config.LogKeyError, err,
		)
	}
}

// timestampOf returns the timestamp query parameter of a page URL, or ""
// when it has none.
func timestampOf(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err == nil {
		if ts := u.Query().Get(config.QueryTimestamp); ts != "" {
			return ts
		}
	}
	slog.Debug(config.MsgNoTimestamp,
		config.LogKeyComponent, config.CompPortal,
		config.LogKeyURL, pageURL,
	)
	return ""
}
