package vectorDB

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const indexFileName = "index.json"

// FileStorage lays indexes out as <root>/session_<id>/index.json.
type FileStorage struct {
	root string
}

func NewFileStorage(root string) (*FileStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating index root %s: %w", root, err)
	}
	return &FileStorage{root: root}, nil
}

func (f *FileStorage) dir(sessionId string) (string, error) {
	if sessionId == "" || strings.ContainsAny(sessionId, `/\`) || strings.Contains(sessionId, "..") {
		return "", fmt.Errorf("invalid session id %q", sessionId)
	}
	return filepath.Join(f.root, "session_"+sessionId), nil
}

// Write stages the blob in a temp file next to the target and renames it into place.
func (f *FileStorage) Write(ctx context.Context, sessionId string, blob []byte) error {
	dir, err := f.dir(sessionId)
	if err != nil {
		return err
	}
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "index-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(blob); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	//the caller may have given up while we were writing
	if err = ctx.Err(); err != nil {
		return err
	}
	if err = os.Rename(tmpName, filepath.Join(dir, indexFileName)); err != nil {
		return err
	}
	committed = true
	return nil
}

func (f *FileStorage) Read(ctx context.Context, sessionId string) ([]byte, error) {
	dir, err := f.dir(sessionId)
	if err != nil {
		return nil, err
	}
	blob, err := os.ReadFile(filepath.Join(dir, indexFileName))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrBlobNotFound
	}
	return blob, err
}

func (f *FileStorage) Exists(ctx context.Context, sessionId string) (bool, error) {
	dir, err := f.dir(sessionId)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(filepath.Join(dir, indexFileName))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

func (f *FileStorage) Delete(ctx context.Context, sessionId string) error {
	dir, err := f.dir(sessionId)
	if err != nil {
		return err
	}
	return os.RemoveAll(dir)
}
