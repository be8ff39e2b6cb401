package core

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/JonMunkholm/csvprof/internal/chart"
	"github.com/JonMunkholm/csvprof/internal/dataset"
)

// DefaultMaxUploadBytes caps a single file when Options leaves it unset.
const DefaultMaxUploadBytes = 100 << 20

// Options configures a Service.
type Options struct {
	ScratchRoot         string
	MaxUploadBytes      int64
	MaxConcurrentParses int
	ParseWait           time.Duration
}

// Service is the entry point for every dataset operation. Each call takes
// the Session it acts on; the Service itself holds no per-user state.
type Service struct {
	sessions *SessionStore
	limiter  *UploadLimiter
	maxBytes int64
}

// NewService creates the scratch root if needed and returns a Service.
func NewService(opts Options) (*Service, error) {
	if opts.ScratchRoot == "" {
		return nil, fmt.Errorf("scratch root is required")
	}
	if err := os.MkdirAll(opts.ScratchRoot, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch root: %w", err)
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}

	return &Service{
		sessions: NewSessionStore(opts.ScratchRoot),
		limiter:  NewUploadLimiter(opts.MaxConcurrentParses, opts.ParseWait),
		maxBytes: opts.MaxUploadBytes,
	}, nil
}

// Sessions returns the session store.
func (s *Service) Sessions() *SessionStore {
	return s.sessions
}

// Login sets the session's user label. Switching to a different label
// starts from an empty workspace; logging in from an anonymous session keeps
// its datasets and renames their scratch copies.
func (s *Service) Login(sess *Session, user string) error {
	user = strings.TrimSpace(user)
	if user == "" {
		return fmt.Errorf("%w: username is required", ErrInvalidValue)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	prev := sess.user
	if prev != "" && prev != user {
		if err := sess.reset(); err != nil {
			return err
		}
	}
	sess.user = user
	if prev == "" {
		if err := sess.renameScratch(prev); err != nil {
			return err
		}
	}
	slog.Info("login", "session_id", sess.ID, "user", user)
	return nil
}

// Logout clears identity and datasets and wipes the scratch directory.
func (s *Service) Logout(sess *Session) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	user := sess.user
	if err := sess.reset(); err != nil {
		return err
	}
	slog.Info("logout", "session_id", sess.ID, "user", user)
	return nil
}

// Upload parses one file and stores it under name, replacing any dataset
// already loaded under that name. A parse failure returns *ParseError and
// leaves the session unchanged.
func (s *Service) Upload(ctx context.Context, sess *Session, name string, r io.Reader) (Entry, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Entry{}, fmt.Errorf("%w: missing file name", ErrNoFile)
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return Entry{}, err
	}
	defer s.limiter.Release()

	start := time.Now()
	raw, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return Entry{}, fmt.Errorf("read %q: %w", name, err)
	}
	if int64(len(raw)) > s.maxBytes {
		return Entry{}, fmt.Errorf("%q: %w (limit %d bytes)", name, ErrFileTooLarge, s.maxBytes)
	}

	ds, stats, err := dataset.Parse(bytes.NewReader(raw))
	if err != nil {
		slog.Warn("upload rejected", "session_id", sess.ID, "file", name, "error", err)
		return Entry{}, &ParseError{File: name, Err: err}
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := sess.writeScratch(name, ds); err != nil {
		return Entry{}, err
	}
	e := sess.registry.Put(name, ds)

	slog.Info("dataset loaded",
		"session_id", sess.ID,
		"file", name,
		"rows", stats.Rows,
		"columns", ds.NumCols(),
		"bytes", stats.Bytes,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return e, nil
}

// UploadFile is one file of a batch upload.
type UploadFile struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// UploadResult is the outcome for one file of a batch.
type UploadResult struct {
	Name  string
	Entry Entry
	Err   error
}

// UploadBatch uploads files in order. Each file succeeds or fails on its
// own; one failure never stops the rest.
func (s *Service) UploadBatch(ctx context.Context, sess *Session, files []UploadFile) []UploadResult {
	results := make([]UploadResult, 0, len(files))
	for _, f := range files {
		res := UploadResult{Name: f.Name}
		rc, err := f.Open()
		if err != nil {
			res.Err = fmt.Errorf("open %q: %w", f.Name, err)
			results = append(results, res)
			continue
		}
		res.Entry, res.Err = s.Upload(ctx, sess, f.Name, rc)
		rc.Close()
		results = append(results, res)
	}
	return results
}

// Lookup returns the named entry. Absence is a normal outcome.
func (s *Service) Lookup(sess *Session, name string) (Entry, bool) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.registry.Get(name)
}

// Get is Lookup with absence reported as ErrNotFound.
func (s *Service) Get(sess *Session, name string) (Entry, error) {
	e, ok := s.Lookup(sess, name)
	if !ok {
		return Entry{}, fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	return e, nil
}

// Names lists the session's datasets in upload order.
func (s *Service) Names(sess *Session) []string {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.registry.Names()
}

// Entries lists the session's datasets in upload order.
func (s *Service) Entries(sess *Session) []Entry {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.registry.Entries()
}

// Remove drops one dataset and its scratch copy.
func (s *Service) Remove(sess *Session, name string) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if !sess.registry.Remove(name) {
		return fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	return sess.removeScratch(name)
}

// UpdateCell sets one cell, parsed against the column's type. Null markers
// make the cell missing.
func (s *Service) UpdateCell(sess *Session, name string, row int, column, value string) (Entry, error) {
	return s.edit(sess, name, func(ds *dataset.Dataset) (*dataset.Dataset, error) {
		return ds.WithCell(row, column, value)
	})
}

// DeleteRows removes rows by zero-based index.
func (s *Service) DeleteRows(sess *Session, name string, rows []int) (Entry, error) {
	return s.edit(sess, name, func(ds *dataset.Dataset) (*dataset.Dataset, error) {
		return ds.WithoutRows(rows)
	})
}

// edit applies fn to the named dataset, rewrites the scratch copy and swaps
// the entry, all under the session lock.
func (s *Service) edit(sess *Session, name string, fn func(*dataset.Dataset) (*dataset.Dataset, error)) (Entry, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	e, ok := sess.registry.Get(name)
	if !ok {
		return Entry{}, fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	ds, err := fn(e.Data)
	if err != nil {
		return Entry{}, err
	}
	if err := sess.writeScratch(name, ds); err != nil {
		return Entry{}, err
	}
	e, err = sess.registry.Replace(name, ds)
	if err != nil {
		return Entry{}, err
	}
	slog.Info("dataset edited", "session_id", sess.ID, "file", name, "rows", ds.NumRows())
	return e, nil
}

// Compare summarizes two datasets side by side. It needs two different
// names and at least two datasets in the session.
func (s *Service) Compare(sess *Session, a, b string) (Comparison, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.registry.Len() < 2 {
		return Comparison{}, fmt.Errorf("compare: %w: need two datasets, have %d", ErrEmptySelection, sess.registry.Len())
	}
	if a == b {
		return Comparison{}, fmt.Errorf("compare: %w: pick two different datasets", ErrEmptySelection)
	}
	ea, ok := sess.registry.Get(a)
	if !ok {
		return Comparison{}, fmt.Errorf("%q: %w", a, ErrNotFound)
	}
	eb, ok := sess.registry.Get(b)
	if !ok {
		return Comparison{}, fmt.Errorf("%q: %w", b, ErrNotFound)
	}
	return Compare(ea, eb), nil
}

// Chart builds a figure from the named dataset.
func (s *Service) Chart(sess *Session, name string, req chart.Request) (chart.Figure, error) {
	e, err := s.Get(sess, name)
	if err != nil {
		return chart.Figure{}, err
	}
	return chart.Build(e.Data, req)
}

// WaitForUploads blocks until running parses finish or ctx ends.
func (s *Service) WaitForUploads(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// Status is a snapshot for the status endpoint.
type Status struct {
	Uploads  UploadLimiterStatus `json:"uploads"`
	Sessions int                 `json:"sessions"`
}

// Status reports parse slots and live session count.
func (s *Service) Status() Status {
	return Status{
		Uploads:  s.limiter.Status(),
		Sessions: s.sessions.Len(),
	}
}
