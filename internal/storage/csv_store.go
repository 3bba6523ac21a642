package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gocarina/gocsv"
	"go.uber.org/zap"

	"github.com/yingtu35/site-deadlink-crawler/internal/config"
	"github.com/yingtu35/site-deadlink-crawler/pkg/domain"
)

const (
	ResultsFile = "deadlinks.csv"
	HistoryFile = "scan_history.csv"
)

type resultRow struct {
	Source   string `csv:"source"`
	Deadlink string `csv:"deadlink"`
}

type historyRow struct {
	URL         string   `csv:"URL"`
	LastScanned scanTime `csv:"LastScanned"`
}

// scanTime is written as RFC 3339 and also accepts the space separated
// layout of older history files.
type scanTime struct {
	time.Time
}

var scanTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

func (t scanTime) MarshalCSV() (string, error) {
	return t.Time.Format(time.RFC3339Nano), nil
}

func (t *scanTime) UnmarshalCSV(value string) error {
	for _, layout := range scanTimeLayouts {
		parsed, err := time.ParseInLocation(layout, value, time.Local)
		if err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("invalid scan time %q", value)
}

// CSVStore keeps results and history as two CSV files in a per-site folder.
type CSVStore struct {
	dir         string
	resultsPath string
	historyPath string
	logger      *zap.Logger

	mu      sync.Mutex
	history []*historyRow
	index   map[string]*historyRow
}

// NewCSVStore creates <root>/<site>/ with header-only files when missing.
func NewCSVStore(root, site string, logger *zap.Logger) (*CSVStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	dir := filepath.Join(root, SiteName(site))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &StorageUnavailableError{Backend: config.StorageCSV, Err: err}
	}

	s := &CSVStore{
		dir:         dir,
		resultsPath: filepath.Join(dir, ResultsFile),
		historyPath: filepath.Join(dir, HistoryFile),
		logger:      logger,
		index:       make(map[string]*historyRow),
	}

	if err := s.createIfMissing(s.resultsPath, &[]resultRow{}); err != nil {
		return nil, &StorageUnavailableError{Backend: config.StorageCSV, Err: err}
	}
	if err := s.createIfMissing(s.historyPath, &[]*historyRow{}); err != nil {
		return nil, &StorageUnavailableError{Backend: config.StorageCSV, Err: err}
	}
	if err := s.readHistory(); err != nil {
		return nil, &StorageUnavailableError{Backend: config.StorageCSV, Err: err}
	}

	logger.Info("csv storage ready", zap.String("dir", dir))
	return s, nil
}

// Dir returns the per-site folder.
func (s *CSVStore) Dir() string {
	return s.dir
}

func (s *CSVStore) createIfMissing(path string, empty interface{}) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := gocsv.MarshalFile(empty, file); err != nil {
		return fmt.Errorf("write header to %s: %w", path, err)
	}
	s.logger.Info("created storage file", zap.String("path", path))
	return nil
}

func (s *CSVStore) AppendDeadlink(_ context.Context, record domain.DeadlinkRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.resultsPath, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.resultsPath, err)
	}
	defer file.Close()

	rows := []resultRow{{Source: record.Source, Deadlink: record.Deadlink}}
	if err := gocsv.MarshalWithoutHeaders(&rows, file); err != nil {
		return fmt.Errorf("append to %s: %w", s.resultsPath, err)
	}
	return nil
}

// UpsertHistory updates the row for the URL and rewrites the history file.
func (s *CSVStore) UpsertHistory(_ context.Context, record domain.HistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if row, ok := s.index[record.URL]; ok {
		row.LastScanned = scanTime{record.LastScanned}
	} else {
		row := &historyRow{URL: record.URL, LastScanned: scanTime{record.LastScanned}}
		s.history = append(s.history, row)
		s.index[record.URL] = row
	}
	return s.writeHistory()
}

func (s *CSVStore) writeHistory() error {
	tmp, err := os.CreateTemp(s.dir, HistoryFile+".*")
	if err != nil {
		return fmt.Errorf("create temp history file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := gocsv.MarshalFile(&s.history, tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("write history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.historyPath)
}

func (s *CSVStore) LoadHistory(_ context.Context) ([]domain.HistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.readHistory(); err != nil {
		return nil, &StorageUnavailableError{Backend: config.StorageCSV, Err: err}
	}

	records := make([]domain.HistoryRecord, 0, len(s.history))
	for _, row := range s.history {
		records = append(records, domain.HistoryRecord{URL: row.URL, LastScanned: row.LastScanned.Time})
	}
	return records, nil
}

func (s *CSVStore) readHistory() error {
	file, err := os.Open(s.historyPath)
	if err != nil {
		return err
	}
	defer file.Close()

	var rows []*historyRow
	if err := gocsv.UnmarshalFile(file, &rows); err != nil && !errors.Is(err, gocsv.ErrEmptyCSVFile) {
		return fmt.Errorf("read %s: %w", s.historyPath, err)
	}

	s.history = s.history[:0]
	s.index = make(map[string]*historyRow, len(rows))
	for _, row := range rows {
		if existing, ok := s.index[row.URL]; ok {
			existing.LastScanned = row.LastScanned
			continue
		}
		s.history = append(s.history, row)
		s.index[row.URL] = row
	}
	return nil
}

func (s *CSVStore) LoadExistingResults(_ context.Context) ([]domain.DeadlinkRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.Open(s.resultsPath)
	if err != nil {
		return nil, &StorageUnavailableError{Backend: config.StorageCSV, Err: err}
	}
	defer file.Close()

	var rows []resultRow
	if err := gocsv.UnmarshalFile(file, &rows); err != nil && !errors.Is(err, gocsv.ErrEmptyCSVFile) {
		return nil, &StorageUnavailableError{Backend: config.StorageCSV, Err: err}
	}

	records := make([]domain.DeadlinkRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, domain.DeadlinkRecord{Source: row.Source, Deadlink: row.Deadlink})
	}
	return records, nil
}

func (s *CSVStore) Close() error {
	return nil
}
