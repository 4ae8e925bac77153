// Package store persists the payslip dataset as a single CSV snapshot.
package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/tartampluch/go-payslip/internal/config"
	"github.com/tartampluch/go-payslip/internal/payslip"
	"github.com/tartampluch/go-payslip/internal/period"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrEmptyDataset is returned by Save when there is nothing to write.
var ErrEmptyDataset = errors.New(config.ErrEmptyDataset)

// row is the on-disk layout. Field order is the header order.
type row struct {
	DateLabel          string `csv:"年月日"`
	TotalPay           string `csv:"総支給額"`
	NetPay             string `csv:"差引支給額"`
	OvertimeHours      string `csv:"総時間外"`
	LeaveConsumedHours string `csv:"有給消化時間"`
	LeaveUsedDays      string `csv:"有給使用日数"`
	LeaveRemainingDays string `csv:"有給残日数"`
}

// legacyRow additionally reads the column name used before 有給残日数.
type legacyRow struct {
	DateLabel           string `csv:"年月日"`
	TotalPay            string `csv:"総支給額"`
	NetPay              string `csv:"差引支給額"`
	OvertimeHours       string `csv:"総時間外"`
	LeaveConsumedHours  string `csv:"有給消化時間"`
	LeaveUsedDays       string `csv:"有給使用日数"`
	LeaveRemainingDays  string `csv:"有給残日数"`
	LegacyRemainingDays string `csv:"残有給日数"`
}

// Path returns the absolute dataset path and its root-relative form.
func Path(rootDir, filename string) (abs, rel string) {
	rel = filepath.Join(config.OutputDir, filename)
	return filepath.Join(rootDir, rel), rel
}

// Load reads the dataset at path together with the month keys it contains.
// A missing file yields an empty dataset. Any read or decode failure is logged
// and also yields an empty dataset.
func Load(path string) ([]payslip.Record, period.KeySet) {
	log := slog.With(
		config.LogKeyComponent, config.CompStore,
		config.LogKeyFile, path,
	)

	records, err := readFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Info(config.MsgDatasetMissing)
		} else {
			log.Error(config.ErrDatasetRead, config.LogKeyError, err)
		}
		return nil, make(period.KeySet)
	}

	existing := make(period.KeySet, len(records))
	for _, r := range records {
		if k, ok := r.Key(); ok {
			existing.Add(k)
		}
	}

	log.Info(config.MsgDatasetLoaded,
		config.LogKeyCount, len(records),
		config.LogKeyExisting, existing.Len(),
	)
	return records, existing
}

func readFile(path string) ([]payslip.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	// The BOM decoder strips the mark spreadsheet tools expect at the start.
	reader := csv.NewReader(transform.NewReader(f, unicode.UTF8BOM.NewDecoder()))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows []legacyRow
	if err := gocsv.UnmarshalCSV(reader, &rows); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return nil, nil
		}
		return nil, err
	}

	records := make([]payslip.Record, 0, len(rows))
	for _, r := range rows {
		remaining := r.LeaveRemainingDays
		if strings.TrimSpace(remaining) == "" {
			remaining = r.LegacyRemainingDays
		}
		records = append(records, payslip.Record{
			DateLabel:              r.DateLabel,
			TotalPay:               parseIntColumn(r.TotalPay),
			NetPay:                 parseIntColumn(r.NetPay),
			OvertimeHours:          parseDecimalColumn(r.OvertimeHours),
			PaidLeaveConsumedHours: parseDecimalColumn(r.LeaveConsumedHours),
			PaidLeaveUsedDays:      parseDecimalColumn(r.LeaveUsedDays),
			PaidLeaveRemainingDays: parseDecimalColumn(remaining),
		})
	}
	return records, nil
}

// parseIntColumn reads a yen column. Malformed or "N/A" cells read as 0, not
// as Unavailable.
func parseIntColumn(s string) payslip.Value[int64] {
	n, err := strconv.ParseInt(strings.TrimSpace(strings.ReplaceAll(s, ",", "")), 10, 64)
	if err != nil {
		return payslip.Known(int64(0))
	}
	return payslip.Known(n)
}

// parseDecimalColumn reads an hours/days column. Older exports suffixed day
// counts with 日.
func parseDecimalColumn(s string) payslip.Value[float64] {
	s = strings.TrimSpace(strings.ReplaceAll(s, config.LegacyDaySuffix, ""))
	if s == "" || s == config.Unavailable {
		return payslip.Unavailable[float64]()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return payslip.Unavailable[float64]()
	}
	return payslip.Known(f)
}

// Save writes the full dataset, canonically sorted, to rootDir/output/filename
// and returns the root-relative path. The previous snapshot is replaced only
// once the new one is completely written.
func Save(records []payslip.Record, rootDir, filename string) (string, error) {
	log := slog.With(config.LogKeyComponent, config.CompStore)

	if len(records) == 0 {
		log.Warn(config.MsgDatasetEmpty)
		return "", ErrEmptyDataset
	}

	abs, rel := Path(rootDir, filename)
	if err := os.MkdirAll(filepath.Dir(abs), config.DirPermShared); err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrDatasetWrite, err)
	}

	rows := toRows(records)
	if err := writeAtomic(abs, rows); err != nil {
		log.Error(config.ErrDatasetWrite, config.LogKeyFile, abs, config.LogKeyError, err)
		return "", fmt.Errorf("%s: %w", config.ErrDatasetWrite, err)
	}

	log.Info(config.MsgDatasetSaved,
		config.LogKeyFile, abs,
		config.LogKeyCount, len(rows),
	)
	return rel, nil
}

func writeAtomic(path string, rows []row) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	w := transform.NewWriter(tmp, unicode.UTF8BOM.NewEncoder())
	if err = gocsv.Marshal(rows, w); err != nil {
		return err
	}
	if err = w.Close(); err != nil {
		return err
	}
	if err = tmp.Chmod(config.FilePermShared); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Encode renders records as the dataset file content (BOM included), for
// serving a snapshot without touching the disk.
func Encode(records []payslip.Record) ([]byte, error) {
	var buf strings.Builder
	w := transform.NewWriter(&buf, unicode.UTF8BOM.NewEncoder())
	rows := toRows(records)
	if err := gocsv.Marshal(rows, w); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return []byte(buf.String()), nil
}

// toRows sorts records canonically and formats them for the file.
func toRows(records []payslip.Record) []row {
	sorted := payslip.Sorted(records)
	rows := make([]row, len(sorted))
	for i, r := range sorted {
		rows[i] = row{
			DateLabel:          r.DateLabel,
			TotalPay:           r.TotalPay.String(),
			NetPay:             r.NetPay.String(),
			OvertimeHours:      r.OvertimeHours.String(),
			LeaveConsumedHours: r.PaidLeaveConsumedHours.String(),
			LeaveUsedDays:      r.PaidLeaveUsedDays.String(),
			LeaveRemainingDays: r.PaidLeaveRemainingDays.String(),
		}
	}
	return rows
}
