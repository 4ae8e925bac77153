package engine_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-payslip/internal/config"
	"github.com/tartampluch/go-payslip/internal/engine"
	"github.com/tartampluch/go-payslip/internal/payslip"
	"github.com/tartampluch/go-payslip/internal/period"
	"github.com/tartampluch/go-payslip/internal/portal"
	"github.com/tartampluch/go-payslip/internal/store"
)

// -----------------------------------------------------------------------------
// Mocks
// -----------------------------------------------------------------------------

// MockPortal simulates the portal using `testify/mock`.
type MockPortal struct {
	mock.Mock
}

// FetchYear implements the engine.Portal interface.
func (m *MockPortal) FetchYear(ctx context.Context, creds portal.Credentials, year int, delta period.KeySet) (portal.YearResult, error) {
	args := m.Called(ctx, creds, year, delta)
	return args.Get(0).(portal.YearResult), args.Error(1)
}

type MockSaver struct {
	mock.Mock
}

func (m *MockSaver) Save(loginID, password string) error {
	return m.Called(loginID, password).Error(0)
}

// MockClock controls time for deterministic testing.
type MockClock struct {
	CurrentTime time.Time
}

func (m MockClock) Now() time.Time {
	return m.CurrentTime
}

// recorder collects progress lines.
type recorder struct {
	infos, errors, successes []string
}

func (r *recorder) Info(msg string)    { r.infos = append(r.infos, msg) }
func (r *recorder) Error(msg string)   { r.errors = append(r.errors, msg) }
func (r *recorder) Success(msg string) { r.successes = append(r.successes, msg) }

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

var june2025 = MockClock{CurrentTime: time.Date(2025, time.June, 15, 9, 0, 0, 0, time.Local)}

func slipFor(year int, month time.Month, net int64, overtime float64) payslip.Record {
	return payslip.Record{
		DateLabel:              string(payslip.NewMonthKey(year, month)) + "度給与",
		TotalPay:               payslip.Known(net + 50000),
		NetPay:                 payslip.Known(net),
		OvertimeHours:          payslip.Known(overtime),
		PaidLeaveConsumedHours: payslip.Known(0.0),
		PaidLeaveUsedDays:      payslip.Known(0.0),
		PaidLeaveRemainingDays: payslip.Known(10.0),
	}
}

// seed writes a dataset holding every month of the window except skip.
func seed(t *testing.T, root string, from, to period.YearMonth, skip ...payslip.MonthKey) []payslip.Record {
	t.Helper()
	skipped := period.NewKeySet(skip...)
	var records []payslip.Record
	for ym := from; !to.Before(ym); ym = ym.Next() {
		if skipped.Has(ym.Key()) {
			continue
		}
		records = append(records, slipFor(ym.Year, ym.Month, 200000, 1))
	}
	_, err := store.Save(records, root, config.DatasetFileName)
	require.NoError(t, err)
	return records
}

var creds = portal.Credentials{LoginID: "alice", Password: "pw"}

func request(root string) engine.RunRequest {
	return engine.RunRequest{LoginID: creds.LoginID, Password: creds.Password, TargetYear: 2025, RootDir: root}
}

// -----------------------------------------------------------------------------
// Test Cases
// -----------------------------------------------------------------------------

func TestRun_MissingCredentials(t *testing.T) {
	p := new(MockPortal)
	s := &engine.Syncer{Clock: june2025, Portal: p}

	for _, req := range []engine.RunRequest{
		{LoginID: "", Password: "pw"},
		{LoginID: "id", Password: ""},
	} {
		_, err := s.Run(context.Background(), req, nil)
		assert.ErrorIs(t, err, engine.ErrMissingCredentials)
	}
	p.AssertNotCalled(t, "FetchYear", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRun_FirstRun_FetchesEveryYearAndSaves(t *testing.T) {
	root := t.TempDir()
	p := new(MockPortal)
	saver := new(MockSaver)

	p.On("FetchYear", mock.Anything, creds, 2024, mock.MatchedBy(func(d period.KeySet) bool { return d.Len() == 16 })).
		Return(portal.YearResult{Year: 2024, Records: []payslip.Record{
			slipFor(2024, time.April, 210000, 5),
			slipFor(2024, time.March, 200000, 10),
		}}, nil).Once()
	p.On("FetchYear", mock.Anything, creds, 2025, mock.Anything).
		Return(portal.YearResult{Year: 2025, Records: []payslip.Record{
			slipFor(2025, time.February, 220000, 4),
			slipFor(2025, time.January, 215000, 6),
		}}, nil).Once()
	saver.On("Save", "alice", "pw").Return(nil).Once()

	prog := &recorder{}
	s := &engine.Syncer{Clock: june2025, Portal: p, Credentials: saver}
	res, err := s.Run(context.Background(), request(root), prog)
	require.NoError(t, err)

	p.AssertExpectations(t)
	saver.AssertExpectations(t)

	assert.Equal(t, filepath.Join(config.OutputDir, config.DatasetFileName), res.DatasetPath)
	assert.Equal(t, 4, res.Fetched)
	assert.Empty(t, res.Warning)
	require.Len(t, res.Records, 2)
	assert.Equal(t, "令和07年01月度給与", res.Records[0].DateLabel, "Records are canonically ordered")
	assert.Equal(t, int64(435000), res.Summary.TotalNetPay)
	assert.Equal(t, "10", res.Summary.TotalOvertimeHours.String())
	assert.True(t, res.FiscalOvertime.IsZero(), "January and February 2025 belong to fiscal year 2024")
	assert.Equal(t, map[int]int{2024: 2}, res.OtherYears)
	assert.Len(t, res.All, 4)

	loaded, keys := store.Load(filepath.Join(root, res.DatasetPath))
	assert.Len(t, loaded, 4)
	assert.True(t, keys.Has("令和06年03月"))

	assert.Len(t, prog.successes, 1)
	assert.Empty(t, prog.errors)
}

func TestRun_UpToDate_SkipsNetwork(t *testing.T) {
	root := t.TempDir()
	seed(t, root, period.YearMonth{Year: 2024, Month: time.March}, period.YearMonth{Year: 2025, Month: time.June})

	p := new(MockPortal)
	saver := new(MockSaver)
	prog := &recorder{}

	s := &engine.Syncer{Clock: june2025, Portal: p, Credentials: saver}
	res, err := s.Run(context.Background(), request(root), prog)
	require.NoError(t, err)

	p.AssertNotCalled(t, "FetchYear", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	saver.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	assert.Equal(t, []string{config.TKeyUpToDate}, prog.successes, "Untranslated keys without a catalog")
	assert.Equal(t, 0, res.Fetched)
	assert.Len(t, res.Records, 6)
	assert.Equal(t, map[int]int{2024: 10}, res.OtherYears)
}

func TestRun_DeltaOnly(t *testing.T) {
	root := t.TempDir()
	missing := payslip.NewMonthKey(2025, time.May)
	seed(t, root, period.YearMonth{Year: 2024, Month: time.March}, period.YearMonth{Year: 2025, Month: time.June}, missing)

	p := new(MockPortal)
	// 2024 is still scheduled; the portal skips it on its own.
	p.On("FetchYear", mock.Anything, creds, 2024, mock.Anything).
		Return(portal.YearResult{Year: 2024, Skipped: true}, nil).Once()
	p.On("FetchYear", mock.Anything, creds, 2025, mock.MatchedBy(func(d period.KeySet) bool {
		return d.Len() == 1 && d.Has(missing)
	})).Return(portal.YearResult{Year: 2025, Records: []payslip.Record{slipFor(2025, time.May, 1, 0)}}, nil).Once()

	s := &engine.Syncer{Clock: june2025, Portal: p}
	res, err := s.Run(context.Background(), request(root), nil)
	require.NoError(t, err)
	p.AssertExpectations(t)
	assert.Len(t, res.Records, 6)

	// A second run converges.
	p2 := new(MockPortal)
	s2 := &engine.Syncer{Clock: june2025, Portal: p2}
	_, err = s2.Run(context.Background(), request(root), nil)
	require.NoError(t, err)
	p2.AssertNotCalled(t, "FetchYear", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRun_FailureAbortsAndKeepsDataset(t *testing.T) {
	root := t.TempDir()
	seeded := seed(t, root, period.YearMonth{Year: 2024, Month: time.March}, period.YearMonth{Year: 2024, Month: time.December})
	before, err := os.ReadFile(filepath.Join(root, config.OutputDir, config.DatasetFileName))
	require.NoError(t, err)

	p := new(MockPortal)
	saver := new(MockSaver)
	p.On("FetchYear", mock.Anything, creds, 2024, mock.Anything).
		Return(portal.YearResult{}, portal.ErrInvalidCredentials).Once()

	prog := &recorder{}
	s := &engine.Syncer{Clock: june2025, Portal: p, Credentials: saver}
	_, err = s.Run(context.Background(), request(root), prog)

	require.ErrorIs(t, err, portal.ErrInvalidCredentials)
	p.AssertNumberOfCalls(t, "FetchYear", 1)
	saver.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	assert.Len(t, prog.errors, 1)

	after, err := os.ReadFile(filepath.Join(root, config.OutputDir, config.DatasetFileName))
	require.NoError(t, err)
	assert.Equal(t, before, after, "The dataset must be untouched")
	assert.Len(t, seeded, 10)
}

func TestRun_CredentialSaveFailureIsWarning(t *testing.T) {
	root := t.TempDir()
	p := new(MockPortal)
	saver := new(MockSaver)
	p.On("FetchYear", mock.Anything, creds, mock.Anything, mock.Anything).
		Return(portal.YearResult{Records: []payslip.Record{slipFor(2025, time.January, 1, 0)}}, nil)
	saver.On("Save", "alice", "pw").Return(errors.New("disk full"))

	s := &engine.Syncer{Clock: june2025, Portal: p, Credentials: saver}
	res, err := s.Run(context.Background(), request(root), nil)
	require.NoError(t, err)
	assert.Equal(t, config.TKeyCredentialWarn, res.Warning)

	_, statErr := os.Stat(filepath.Join(root, res.DatasetPath))
	assert.NoError(t, statErr, "The dataset is saved regardless")
}

func TestRun_SaveFailureCarriesRecords(t *testing.T) {
	root := t.TempDir()
	// A file where the output directory should be makes the save fail.
	require.NoError(t, os.WriteFile(filepath.Join(root, config.OutputDir), []byte("x"), 0o644))

	fresh := slipFor(2025, time.January, 1, 0)
	p := new(MockPortal)
	p.On("FetchYear", mock.Anything, creds, 2024, mock.Anything).Return(portal.YearResult{}, nil)
	p.On("FetchYear", mock.Anything, creds, 2025, mock.Anything).
		Return(portal.YearResult{Records: []payslip.Record{fresh}}, nil)

	s := &engine.Syncer{Clock: june2025, Portal: p}
	_, err := s.Run(context.Background(), request(root), nil)

	var saveErr *engine.SaveError
	require.ErrorAs(t, err, &saveErr)
	assert.Equal(t, []payslip.Record{fresh}, saveErr.Unsaved)
	assert.Contains(t, err.Error(), config.ErrSaveDataset)
}

func TestRun_NothingListedIsNotAnError(t *testing.T) {
	root := t.TempDir()
	p := new(MockPortal)
	p.On("FetchYear", mock.Anything, creds, mock.Anything, mock.Anything).Return(portal.YearResult{}, nil)

	s := &engine.Syncer{Clock: june2025, Portal: p}
	res, err := s.Run(context.Background(), request(root), nil)
	require.NoError(t, err)
	assert.Empty(t, res.Records)
	assert.Equal(t, engine.Result{}.Summary, res.Summary)
}

func TestRun_FullScanDefaultsToCurrentYear(t *testing.T) {
	root := t.TempDir()
	p := new(MockPortal)
	p.On("FetchYear", mock.Anything, creds, mock.Anything, mock.Anything).Return(portal.YearResult{}, nil)

	clock := MockClock{CurrentTime: time.Date(2021, time.March, 20, 9, 0, 0, 0, time.Local)}
	s := &engine.Syncer{Clock: clock, Portal: p}
	res, err := s.Run(context.Background(), engine.RunRequest{
		LoginID: "alice", Password: "pw", Mode: period.ModeFullScan, RootDir: root,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 2021, res.TargetYear)
	p.AssertNumberOfCalls(t, "FetchYear", 3)
	assert.Equal(t, map[int]int{2019: 0, 2020: 0}, res.OtherYears)
}

func TestRun_ContextCancellation(t *testing.T) {
	root := t.TempDir()
	p := new(MockPortal)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := &engine.Syncer{Clock: june2025, Portal: p}
	_, err := s.Run(ctx, request(root), nil)
	assert.ErrorIs(t, err, context.Canceled)
	p.AssertNotCalled(t, "FetchYear", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSaveError_Unwrap(t *testing.T) {
	err := &engine.SaveError{Err: store.ErrEmptyDataset}
	assert.ErrorIs(t, err, store.ErrEmptyDataset)
}
