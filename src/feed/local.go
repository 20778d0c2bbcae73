package feed

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Local implements Transport against a directory tree. It backs --dry-run
// (stage into a local directory instead of the real feed) and tests.
type Local struct {
	Root string
}

// NewLocal creates a filesystem transport rooted at dir.
func NewLocal(dir string) *Local {
	return &Local{Root: dir}
}

// localPath maps a remote address to a path under Root. Addresses may be
// full URLs (the path component is used) or plain relative paths.
func (l *Local) localPath(remoteAddress string) (string, error) {
	p := remoteAddress
	if u, err := url.Parse(remoteAddress); err == nil && u.Scheme != "" {
		p = u.Path
	}
	p = strings.TrimPrefix(p, "/")
	clean := filepath.Clean(filepath.FromSlash(p))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("remote address %q escapes the feed root", remoteAddress)
	}
	return filepath.Join(l.Root, clean), nil
}

func (l *Local) Upload(ctx context.Context, localPath, remoteAddress string, overwrite bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dest, err := l.localPath(remoteAddress)
	if err != nil {
		return err
	}

	if !overwrite {
		if _, err := os.Stat(dest); err == nil {
			return ErrExists
		}
	}

	src, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", localPath, err)
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(dest), err)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dest, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return fmt.Errorf("writing %s: %w", dest, err)
	}
	return nil
}

func (l *Local) Exists(ctx context.Context, remoteAddress string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	dest, err := l.localPath(remoteAddress)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(dest); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (l *Local) Fetch(ctx context.Context, remoteAddress string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dest, err := l.localPath(remoteAddress)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(dest)
}
