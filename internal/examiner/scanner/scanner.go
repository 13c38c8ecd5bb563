// Package scanner finds search-notes documents under a root directory with
// one folder per patent application. It only reads the tree; nothing is
// renamed, moved or deleted.
package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rgra/examiner-check/internal/examiner/domain"
	apperrors "github.com/rgra/examiner-check/pkg/errors"
	"github.com/rgra/examiner-check/pkg/logger"
)

// DefaultPattern selects search-notes documents.
const DefaultPattern = "*SRFW*"

// Scanner walks a directory tree and selects documents by filename glob
type Scanner struct {
	pattern string
	log     *logger.Logger
}

// New creates a scanner for the given case-sensitive glob.
func New(pattern string, log *logger.Logger) (*Scanner, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, apperrors.Config("scanner pattern", fmt.Errorf("%q: %w", pattern, err))
	}
	return &Scanner{pattern: pattern, log: logger.OrNop(log).WithComponent("scanner")}, nil
}

// Scan returns every directory under root, root included, in lexical walk
// order. Each entry carries the matching regular files directly inside it,
// so a directory without matches still appears with no documents.
//
// A missing or unreadable root is an error. Unreadable subdirectories are
// skipped with a warning.
func (s *Scanner) Scan(ctx context.Context, root string) ([]domain.Application, error) {
	root = filepath.Clean(root)

	info, err := os.Stat(root)
	if err != nil {
		return nil, apperrors.IO("scan root", err)
	}
	if !info.IsDir() {
		return nil, apperrors.IO("scan root", fmt.Errorf("%s is not a directory", root))
	}
	// WalkDir does not follow a symlinked root; walk its target and report
	// paths under the root as given.
	target, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, apperrors.IO("scan root", err)
	}

	apps := make([]domain.Application, 0, 64)
	index := make(map[string]int)

	err = filepath.WalkDir(target, func(walked string, d fs.DirEntry, walkErr error) error {
		rel, err := filepath.Rel(target, walked)
		if err != nil {
			return err
		}
		path := filepath.Join(root, rel)

		if walkErr != nil {
			if walked == target {
				return walkErr
			}
			s.log.Warn().Err(walkErr).Str("path", path).Msg("skipping unreadable path")
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if err := ctx.Err(); err != nil {
				return err
			}
			index[path] = len(apps)
			apps = append(apps, domain.Application{ID: domain.ApplicationID(rel), Dir: path})
			return nil
		}

		name := d.Name()
		if ok, _ := filepath.Match(s.pattern, name); !ok {
			return nil
		}

		size, regular := s.regularSize(walked, d)
		if !regular {
			return nil
		}

		i, ok := index[filepath.Dir(path)]
		if !ok {
			return nil
		}
		app := &apps[i]
		app.Documents = append(app.Documents, domain.Document{
			Application: app.ID,
			Name:        name,
			Path:        path,
			Size:        size,
		})
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, apperrors.IO("scan", err)
	}

	s.log.Debug().Int("applications", len(apps)).Str("root", root).Msg("scan finished")
	return apps, nil
}

// regularSize follows symlinks so linked documents are treated like the
// files they point to.
func (s *Scanner) regularSize(path string, d fs.DirEntry) (int64, bool) {
	var info fs.FileInfo
	var err error
	if d.Type()&fs.ModeSymlink != 0 {
		info, err = os.Stat(path)
	} else {
		info, err = d.Info()
	}
	if err != nil {
		s.log.Warn().Err(err).Str("path", path).Msg("skipping unreadable file")
		return 0, false
	}
	if !info.Mode().IsRegular() {
		return 0, false
	}
	return info.Size(), true
}
