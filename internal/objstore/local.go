package objstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Local serves objects from a directory tree, used in development and
// tests.
type Local struct {
	root string
}

// NewLocal creates a Local store rooted at dir.
func NewLocal(dir string) (*Local, error) {
	if dir == "" {
		return nil, eris.New("objstore: local dir not configured")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "objstore: resolve dir %s", dir)
	}
	return &Local{root: abs}, nil
}

// resolve maps an object name onto the root, rejecting path escapes.
func (l *Local) resolve(name string) (string, error) {
	p := filepath.Join(l.root, filepath.FromSlash(name))
	if p != l.root && !strings.HasPrefix(p, l.root+string(filepath.Separator)) {
		return "", eris.Errorf("objstore: object name %q escapes bucket root", name)
	}
	return p, nil
}

func (l *Local) FetchToFile(_ context.Context, name, path string) error {
	src, err := l.resolve(name)
	if err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return eris.Wrapf(err, "objstore: open object %s", name)
	}
	defer in.Close()

	out, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "objstore: create %s", path)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return eris.Wrapf(err, "objstore: copy object %s", name)
	}
	return nil
}

func (l *Local) Delete(_ context.Context, name string) error {
	p, err := l.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return eris.Wrapf(err, "objstore: delete object %s", name)
	}
	return nil
}
