package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tartampluch/go-payslip/internal/config"
	"github.com/tartampluch/go-payslip/internal/payslip"
	"github.com/tartampluch/go-payslip/internal/period"
	"github.com/tartampluch/go-payslip/internal/portal"
	"github.com/tartampluch/go-payslip/internal/store"
	"github.com/tartampluch/go-payslip/internal/summary"
)

// ErrMissingCredentials is returned before any I/O when the login ID or the
// password is empty.
var ErrMissingCredentials = errors.New(config.ErrMissingCredentials)

// Portal fetches the payslips of one year. *portal.Client implements it.
type Portal interface {
	FetchYear(ctx context.Context, creds portal.Credentials, year int, delta period.KeySet) (portal.YearResult, error)
}

// CredentialSaver persists credentials after a successful fetch.
// secret.Store implementations satisfy it.
type CredentialSaver interface {
	Save(loginID, password string) error
}

// Translator renders user-facing messages. *messages.Catalog implements it.
type Translator interface {
	T(key string, data map[string]any) string
}

// Progress receives user-facing status lines during a run.
type Progress interface {
	Info(msg string)
	Error(msg string)
	Success(msg string)
}

// RunRequest contains all parameters of one synchronization.
type RunRequest struct {
	LoginID  string
	Password string

	// TargetYear is the calendar year to report on; 0 means the current year.
	TargetYear int
	Mode       period.Mode

	// RootDir holds the output directory.
	RootDir string
}

// Result is what a successful run reports.
type Result struct {
	// DatasetPath is the dataset location relative to RootDir.
	DatasetPath string
	TargetYear  int

	// Records are the TargetYear records, canonically ordered.
	Records        []payslip.Record
	Summary        summary.CalendarYear
	FiscalOvertime decimal.Decimal

	// OtherYears counts the records of every other year the window covered.
	OtherYears map[int]int

	// All is the whole dataset after the merge.
	All []payslip.Record

	Fetched int
	// Warning is set when the run succeeded but credentials were not saved.
	Warning string
}

// SaveError reports a fetch whose records could not be written. Unsaved
// holds the newly fetched records so the caller can retry.
type SaveError struct {
	Unsaved []payslip.Record
	Err     error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("%s: %v", config.ErrSaveDataset, e.Err)
}

func (e *SaveError) Unwrap() error {
	return e.Err
}

// Syncer is the core service: it works out which months are missing,
// fetches them and updates the dataset.
type Syncer struct {
	Clock       Clock
	Portal      Portal
	Credentials CredentialSaver // optional
	Messages    Translator      // optional; keys are shown untranslated
}

// Run executes one synchronization. Years are fetched in ascending order and
// the first failure aborts the run without touching the dataset.
func (s *Syncer) Run(ctx context.Context, req RunRequest, progress Progress) (*Result, error) {
	if req.LoginID == "" || req.Password == "" {
		return nil, ErrMissingCredentials
	}
	if progress == nil {
		progress = nopProgress{}
	}

	start := time.Now()
	today := s.Clock.Now()
	target := req.TargetYear
	if target == 0 {
		target = today.Year()
	}

	log := slog.With(
		config.LogKeyComponent, config.CompEngine,
		config.LogKeyMode, req.Mode.String(),
		config.LogKeyYear, target,
	)
	log.InfoContext(ctx, config.MsgSyncStarted)

	// 1. Required window
	required := period.Window(today, req.Mode, target)
	years := period.YearsToRun(required)
	if required.Len() == 0 {
		progress.Info(s.t(config.TKeyNoWindow, nil))
	} else {
		progress.Info(s.t(config.TKeyWindow, map[string]any{
			"Mode":  s.modeLabel(req.Mode, target),
			"Count": required.Len(),
		}))
	}
	log.Info(config.MsgWindowComputed,
		config.LogKeyRequired, required.Len(),
		config.LogKeyYears, years,
	)

	// 2. Existing dataset and delta
	abs, rel := store.Path(req.RootDir, config.DatasetFileName)
	all, existing := store.Load(abs)
	delta := period.Delta(required, existing)
	log.Info(config.MsgDeltaComputed,
		config.LogKeyExisting, existing.Len(),
		config.LogKeyDelta, delta.Len(),
	)

	res := &Result{DatasetPath: rel, TargetYear: target}

	if delta.Len() == 0 {
		log.Info(config.MsgDeltaEmpty)
		progress.Success(s.t(config.TKeyUpToDate, nil))
	} else {
		// 3. Fetch
		progress.Info(s.t(config.TKeyFetching, map[string]any{"Count": delta.Len()}))

		fetched, err := s.fetch(ctx, req, years, delta, progress)
		if err != nil {
			progress.Error(s.t(config.TKeyFetchFailed, map[string]any{"Error": err.Error()}))
			return nil, err
		}
		res.Fetched = len(fetched)
		progress.Success(s.t(config.TKeyFetchDone, map[string]any{"Count": len(fetched)}))

		// 4. Credentials
		if s.Credentials != nil {
			if err := s.Credentials.Save(req.LoginID, req.Password); err != nil {
				log.Warn(config.ErrCredentialSave, config.LogKeyError, err)
				res.Warning = s.t(config.TKeyCredentialWarn, map[string]any{"Error": err.Error()})
				progress.Info(res.Warning)
			}
		}

		// 5. Merge and save
		all = append(all, fetched...)
		_, err = store.Save(all, req.RootDir, config.DatasetFileName)
		if err != nil && !errors.Is(err, store.ErrEmptyDataset) {
			progress.Error(s.t(config.TKeySaveFailed, map[string]any{"Error": err.Error()}))
			return nil, &SaveError{Unsaved: fetched, Err: err}
		}
	}

	// 6. Aggregate
	all = payslip.Sorted(all)
	res.All = all
	res.Records = summary.RecordsForYear(all, target)
	res.Summary = summary.ForCalendarYear(res.Records)
	res.FiscalOvertime = summary.FiscalYearOvertime(all, target)

	var others []int
	for _, y := range years {
		if y != target {
			others = append(others, y)
		}
	}
	res.OtherYears = summary.CountByYear(all, others)

	log.Info(config.MsgSyncFinished,
		config.LogKeyCount, len(all),
		config.LogKeyDuration, time.Since(start).Milliseconds(),
	)
	return res, nil
}

// fetch runs the portal once per year. The first failing year aborts the
// loop and nothing fetched so far is returned.
func (s *Syncer) fetch(ctx context.Context, req RunRequest, years []int, delta period.KeySet, progress Progress) ([]payslip.Record, error) {
	creds := portal.Credentials{LoginID: req.LoginID, Password: req.Password}

	var fetched []payslip.Record
	for _, year := range years {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		progress.Info(s.t(config.TKeyYearStart, map[string]any{"Year": year}))
		yr, err := s.Portal.FetchYear(ctx, creds, year, delta)
		if err != nil {
			slog.Error(config.MsgYearFailed,
				config.LogKeyComponent, config.CompEngine,
				config.LogKeyYear, year,
				config.LogKeyError, err,
			)
			return nil, err
		}

		if yr.Skipped {
			progress.Info(s.t(config.TKeyYearSkipped, map[string]any{"Year": year}))
			continue
		}
		slog.Info(config.MsgYearFetched,
			config.LogKeyComponent, config.CompEngine,
			config.LogKeyYear, year,
			config.LogKeyCount, len(yr.Records),
		)
		progress.Info(s.t(config.TKeyYearDone, map[string]any{"Year": year, "Count": len(yr.Records)}))
		fetched = append(fetched, yr.Records...)
	}
	return fetched, nil
}

func (s *Syncer) modeLabel(mode period.Mode, year int) string {
	if mode == period.ModeFullScan {
		return s.t(config.TKeyModeFullScan, nil)
	}
	return s.t(config.TKeyModeTargeted, map[string]any{"Year": year})
}

func (s *Syncer) t(key string, data map[string]any) string {
	if s.Messages == nil {
		return key
	}
	return s.Messages.T(key, data)
}

type nopProgress struct{}

func (nopProgress) Info(string)    {}
func (nopProgress) Error(string)   {}
func (nopProgress) Success(string) {}
