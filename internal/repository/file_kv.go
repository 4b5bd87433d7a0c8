package repository

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

type fileKV struct{ dir string }

// NewFileKV stores each key as <dir>/<key>.json. Writes go through a temp
// file and a rename so a crash never leaves a half-written blob.
func NewFileKV(dir string) (KVStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &fileKV{dir: dir}, nil
}

func (f *fileKV) path(key string) string {
	return filepath.Join(f.dir, filepath.Base(key)+".json")
}

func (f *fileKV) Save(_ context.Context, key string, value []byte) bool {
	tmp, err := os.CreateTemp(f.dir, ".tmp-"+filepath.Base(key)+"-*")
	if err != nil {
		logFailure("file", "save", key, err)
		return false
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		logFailure("file", "save", key, err)
		return false
	}
	if err := tmp.Close(); err != nil {
		logFailure("file", "save", key, err)
		return false
	}
	if err := os.Rename(tmp.Name(), f.path(key)); err != nil {
		logFailure("file", "save", key, err)
		return false
	}
	return true
}

func (f *fileKV) Load(_ context.Context, key string) ([]byte, bool) {
	b, err := os.ReadFile(f.path(key))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logFailure("file", "load", key, err)
		}
		return nil, false
	}
	return b, true
}

func (f *fileKV) Clear(_ context.Context, key string) bool {
	if err := os.Remove(f.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logFailure("file", "clear", key, err)
		return false
	}
	return true
}
