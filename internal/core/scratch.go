package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/csvprof/internal/dataset"
)

// anonymousUser names scratch copies written without a login.
const anonymousUser = "anonymous"

// scratchName builds "<user>_<file>" from untrusted parts. Each part is
// reduced to a base name of letters, digits, dot, dash and underscore. A file
// name that sanitising changed gets a hash of the original before its
// extension, so distinct upload names never share a copy.
func scratchName(user, file string) string {
	u := safeBase(user)
	if u == "" {
		u = anonymousUser
	}
	f := safeBase(file)
	switch {
	case f == "":
		f = "upload-" + shortHash(file) + ".csv"
	case f != file:
		ext := filepath.Ext(f)
		f = strings.TrimSuffix(f, ext) + "-" + shortHash(file) + ext
	}
	return u + "_" + f
}

func shortHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:4])
}

func safeBase(s string) string {
	s = filepath.Base(strings.ReplaceAll(strings.TrimSpace(s), `\`, "/"))
	if s == "." || s == ".." || s == "/" {
		return ""
	}
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return strings.TrimLeft(b.String(), ".")
}

// scratchPath returns where the copy of name lives. The caller holds s.mu.
func (s *Session) scratchPath(name string) string {
	return filepath.Join(s.dir, scratchName(s.user, name))
}

// writeScratch stores ds as delimited text, replacing any earlier copy.
// The file is written beside its target and renamed into place.
func (s *Session) writeScratch(name string, ds *dataset.Dataset) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create scratch dir: %w", err)
	}

	path := s.scratchPath(name)
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create scratch file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := ds.WriteCSV(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("write scratch copy: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close scratch file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename scratch file: %w", err)
	}
	return nil
}

func (s *Session) removeScratch(name string) error {
	err := os.Remove(s.scratchPath(name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove scratch copy: %w", err)
	}
	return nil
}

// renameScratch moves every loaded dataset's copy from oldUser's name to the
// current user's. Copies already missing are skipped. The caller holds s.mu.
func (s *Session) renameScratch(oldUser string) error {
	for _, name := range s.registry.Names() {
		from := filepath.Join(s.dir, scratchName(oldUser, name))
		to := s.scratchPath(name)
		if from == to {
			continue
		}
		if err := os.Rename(from, to); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("rename scratch copy: %w", err)
		}
	}
	return nil
}
