package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rgra/examiner-check/internal/examiner/domain"
	apperrors "github.com/rgra/examiner-check/pkg/errors"
)

func TestScan_HeaderForEveryDirectory(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "app1", "foo_SRFW.pdf"))
	touch(t, filepath.Join(root, "app2", "bar.pdf"))

	s, err := New("", nil)
	require.NoError(t, err)

	apps, err := s.Scan(context.Background(), root)
	require.NoError(t, err)

	require.Len(t, apps, 3)
	assert.Equal(t, domain.ApplicationID("."), apps[0].ID)
	assert.Empty(t, apps[0].Documents)

	assert.Equal(t, domain.ApplicationID("app1"), apps[1].ID)
	require.Len(t, apps[1].Documents, 1)
	doc := apps[1].Documents[0]
	assert.Equal(t, "foo_SRFW.pdf", doc.Name)
	assert.Equal(t, filepath.Join(root, "app1", "foo_SRFW.pdf"), doc.Path)
	assert.Equal(t, domain.ApplicationID("app1"), doc.Application)
	assert.Equal(t, int64(1), doc.Size)

	assert.Equal(t, domain.ApplicationID("app2"), apps[2].ID)
	assert.Empty(t, apps[2].Documents)
}

func TestScan_NestedDirectoriesKeepTheirOwnFiles(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a", "b", "inner_SRFW.pdf"))
	touch(t, filepath.Join(root, "a", "c_SRFW.pdf"))

	s, err := New(DefaultPattern, nil)
	require.NoError(t, err)

	apps, err := s.Scan(context.Background(), root)
	require.NoError(t, err)

	require.Len(t, apps, 3)
	assert.Equal(t, domain.ApplicationID("a"), apps[1].ID)
	require.Len(t, apps[1].Documents, 1)
	assert.Equal(t, "c_SRFW.pdf", apps[1].Documents[0].Name)

	assert.Equal(t, domain.ApplicationID(filepath.Join("a", "b")), apps[2].ID)
	require.Len(t, apps[2].Documents, 1)
	assert.Equal(t, "inner_SRFW.pdf", apps[2].Documents[0].Name)
}

func TestScan_PatternIsCaseSensitive(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "12345678", "x_srfw.pdf"))
	touch(t, filepath.Join(root, "12345678", "y_SRFW.pdf"))
	touch(t, filepath.Join(root, "12345678", "SRFW"))

	s, err := New(DefaultPattern, nil)
	require.NoError(t, err)

	apps, err := s.Scan(context.Background(), root)
	require.NoError(t, err)

	require.Len(t, apps, 2)
	names := []string{}
	for _, d := range apps[1].Documents {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"SRFW", "y_SRFW.pdf"}, names)
}

func TestScan_DirectoryNamedLikePatternIsNotADocument(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "dir_SRFW"), 0o755))

	s, err := New(DefaultPattern, nil)
	require.NoError(t, err)

	apps, err := s.Scan(context.Background(), root)
	require.NoError(t, err)

	require.Len(t, apps, 2)
	assert.Empty(t, apps[0].Documents)
	assert.Empty(t, apps[1].Documents)
}

func TestScan_FollowsSymlinkedRoot(t *testing.T) {
	target := t.TempDir()
	touch(t, filepath.Join(target, "app1", "foo_SRFW.pdf"))
	touch(t, filepath.Join(target, "app2", "bar_SRFW.pdf"))
	link := filepath.Join(t.TempDir(), "data")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	s, err := New(DefaultPattern, nil)
	require.NoError(t, err)

	direct, err := s.Scan(context.Background(), target)
	require.NoError(t, err)
	linked, err := s.Scan(context.Background(), link)
	require.NoError(t, err)

	require.Len(t, linked, len(direct))
	require.Len(t, linked, 3)
	for i := range direct {
		assert.Equal(t, direct[i].ID, linked[i].ID)
		assert.Len(t, linked[i].Documents, len(direct[i].Documents))
	}
	assert.Equal(t, filepath.Join(link, "app1"), linked[1].Dir)
	require.Len(t, linked[1].Documents, 1)
	assert.Equal(t, filepath.Join(link, "app1", "foo_SRFW.pdf"), linked[1].Documents[0].Path)
}

func TestScan_MissingRoot(t *testing.T) {
	s, err := New(DefaultPattern, nil)
	require.NoError(t, err)

	_, err = s.Scan(context.Background(), filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Equal(t, apperrors.KindIO, apperrors.KindOf(err))
}

func TestScan_RootIsAFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "x_SRFW.pdf")
	touch(t, file)

	s, err := New(DefaultPattern, nil)
	require.NoError(t, err)

	_, err = s.Scan(context.Background(), file)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindIO, apperrors.KindOf(err))
}

func TestScan_DoesNotModifyTree(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "app1", "foo_SRFW.pdf")
	touch(t, path)
	before, err := os.Stat(path)
	require.NoError(t, err)

	s, err := New(DefaultPattern, nil)
	require.NoError(t, err)
	_, err = s.Scan(context.Background(), root)
	require.NoError(t, err)

	after, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())
	assert.Equal(t, before.Size(), after.Size())
}

func TestScan_Cancelled(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "app1", "foo_SRFW.pdf"))

	s, err := New(DefaultPattern, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.Scan(ctx, root)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_BadPattern(t *testing.T) {
	_, err := New("[", nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindConfig, apperrors.KindOf(err))
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
}
