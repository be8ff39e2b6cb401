package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/csvprof/internal/chart"
	"github.com/JonMunkholm/csvprof/internal/core"
)

const (
	defaultHeadRows = 5
	maxHeadRows     = 100

	// multipartMemory is how much of a multipart body is held in memory
	// before spilling file parts to temp files.
	multipartMemory = 32 << 20
)

// parseIntParam parses an integer query parameter, clamped to [1, max],
// with a default for missing or invalid values.
func parseIntParam(r *http.Request, name string, defaultVal, max int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	if i > max {
		return max
	}
	return i
}

// parseRowList parses "0, 4,7" into row indexes.
func parseRowList(s string) ([]int, error) {
	var rows []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("%w: row %q is not a number", core.ErrInvalidValue, part)
		}
		rows = append(rows, n)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows given", core.ErrInvalidValue)
	}
	return rows, nil
}

// chartRequest reads kind, x, y, agg and bins from the query string.
// kind defaults to histogram.
func chartRequest(r *http.Request) (chart.Request, error) {
	q := r.URL.Query()

	kindName := q.Get("kind")
	if kindName == "" {
		kindName = chart.Histogram.String()
	}
	kind, err := chart.ParseKind(kindName)
	if err != nil {
		return chart.Request{}, err
	}
	agg, err := chart.ParseAggregation(q.Get("agg"))
	if err != nil {
		return chart.Request{}, err
	}

	var bins int
	if b := q.Get("bins"); b != "" {
		bins, err = strconv.Atoi(b)
		if err != nil || bins < 1 {
			return chart.Request{}, fmt.Errorf("%w: bins must be a positive integer", core.ErrInvalidValue)
		}
	}

	return chart.Request{
		Kind: kind,
		X:    q.Get("x"),
		Y:    q.Get("y"),
		Agg:  agg,
		Bins: bins,
	}, nil
}

// uploadFiles reads the "files" parts of a multipart upload. The body is
// capped at MaxFiles times MaxFileSize; each file is size-checked again by
// the service.
func (s *Server) uploadFiles(w http.ResponseWriter, r *http.Request) ([]core.UploadFile, func(), error) {
	limit := s.cfg.Upload.MaxFileSize * int64(s.cfg.Upload.MaxFiles)
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) || strings.Contains(err.Error(), "request body too large") {
			return nil, nil, fmt.Errorf("upload: %w (limit %d bytes)", core.ErrFileTooLarge, limit)
		}
		return nil, nil, fmt.Errorf("%w: %v", core.ErrNoFile, err)
	}
	cleanup := func() { r.MultipartForm.RemoveAll() }

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		cleanup()
		return nil, nil, core.ErrNoFile
	}
	if len(headers) > s.cfg.Upload.MaxFiles {
		cleanup()
		return nil, nil, fmt.Errorf("%w: %d files, at most %d per upload", core.ErrInvalidValue, len(headers), s.cfg.Upload.MaxFiles)
	}

	files := make([]core.UploadFile, len(headers))
	for i, fh := range headers {
		files[i] = core.UploadFile{
			Name: fh.Filename,
			Open: func() (io.ReadCloser, error) { return fh.Open() },
		}
	}
	return files, cleanup, nil
}

// attachmentName swaps the extension of name for ext.
func attachmentName(name, ext string) string {
	base := name
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	return base + ext
}
