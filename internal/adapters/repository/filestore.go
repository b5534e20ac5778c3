package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tbg-racing/rankingsaver/internal/domain/types"
	"github.com/tbg-racing/rankingsaver/pkg/logger"
)

// File naming and permission constants.
const (
	filePrefix  = "matchresults_"
	fileSuffix  = ".json"
	dayLayout   = "2006-01-02"
	dirMode     = 0o755
	defaultMode = 0o644
	jsonIndent  = "  "
)

// FileStore keeps one results file per UTC day under dir:
//
//	<dir>/matchresults_2025-03-30.json  ->  {"RoundResults": [...]}
//
// Appends are read-modify-write cycles of the whole file and are serialized
// by a mutex held for the full cycle.
type FileStore struct {
	dir      string
	fileMode os.FileMode
	now      func() time.Time
	logger   logger.Logger

	mu sync.Mutex // guards the files under dir
}

// NewFileStore creates a store rooted at dir.
func NewFileStore(dir string, opts ...Option) *FileStore {
	s := &FileStore{
		dir:      dir,
		fileMode: defaultMode,
		now:      time.Now,
		logger:   logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the results directory.
func (s *FileStore) Dir() string { return s.dir }

// Path returns the file holding the UTC day that contains day.
func (s *FileStore) Path(day time.Time) string {
	return filepath.Join(s.dir, filePrefix+day.UTC().Format(dayLayout)+fileSuffix)
}

// EnsureDir creates the results directory if it is missing.
func (s *FileStore) EnsureDir(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if err := os.MkdirAll(s.dir, dirMode); err != nil {
		return fmt.Errorf("%w: create results dir %s: %w", ErrPersistence, s.dir, err)
	}
	return nil
}

// Append adds round to the end of today's file, creating it if needed.
func (s *FileStore) Append(ctx context.Context, round types.RoundResult) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.Path(s.now())
	day, err := s.read(path)
	if err != nil {
		return err
	}

	day.RoundResults = append(day.RoundResults, round)

	if err := s.write(path, day); err != nil {
		return err
	}

	s.logger.Debug(ctx, "round appended",
		logger.String("path", path),
		logger.String("track", round.TrackName),
		logger.Int("rounds", len(day.RoundResults)),
	)
	return nil
}

// Load returns every round stored for the UTC day containing day.
func (s *FileStore) Load(ctx context.Context, day time.Time) (types.DayResults, error) {
	if err := ctx.Err(); err != nil {
		return types.DayResults{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.read(s.Path(day))
}

// Days lists the UTC days that have a results file, oldest first.
func (s *FileStore) Days(ctx context.Context) ([]time.Time, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: list %s: %w", ErrPersistence, s.dir, err)
	}

	var days []time.Time
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
		day, err := time.Parse(dayLayout, stamp)
		if err != nil {
			continue
		}
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days, nil
}

// read loads a day file. Callers hold s.mu.
func (s *FileStore) read(path string) (types.DayResults, error) {
	day := types.DayResults{RoundResults: []types.RoundResult{}}

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return day, nil
	}
	if err != nil {
		return types.DayResults{}, fmt.Errorf("%w: read %s: %w", ErrPersistence, path, err)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return day, nil
	}

	if err := json.Unmarshal(raw, &day); err != nil {
		return types.DayResults{}, fmt.Errorf("%w: %w: %s: %w", ErrPersistence, ErrCorruptFile, path, err)
	}
	if day.RoundResults == nil {
		day.RoundResults = []types.RoundResult{}
	}
	return day, nil
}

// write replaces a day file through a temp file and rename so readers never
// see a half-written file. Callers hold s.mu.
func (s *FileStore) write(path string, day types.DayResults) error {
	raw, err := json.MarshalIndent(day, "", jsonIndent)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", ErrPersistence, path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp for %s: %w", ErrPersistence, path, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: write %s: %w", ErrPersistence, tmpName, err)
	}
	if err := tmp.Chmod(s.fileMode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: chmod %s: %w", ErrPersistence, tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrPersistence, tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%w: replace %s: %w", ErrPersistence, path, err)
	}
	return nil
}
