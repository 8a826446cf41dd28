package db

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/chepyr/go-task-manager/internal/models"
)

// JSONFileBackend stores tasks as a JSON array in a single file.
//
// Writes go to a temp file in the same directory which is synced and renamed
// over the target, so a failed Save never leaves a half-written file behind.
type JSONFileBackend struct {
	path string
}

func NewJSONFileBackend(path string) (*JSONFileBackend, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("tasks file path is required")
	}
	return &JSONFileBackend{path: filepath.Clean(path)}, nil
}

func (b *JSONFileBackend) Path() string { return b.path }

// Load returns no records and no error when the file does not exist yet.
func (b *JSONFileBackend) Load(_ context.Context) ([]models.Record, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, models.NewFileOperationError("read tasks file", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, models.NewFileOperationError(
			fmt.Sprintf("parse tasks file %s", b.path), errors.New("top-level value must be a JSON array"))
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, models.NewFileOperationError(fmt.Sprintf("parse tasks file %s", b.path), err)
	}

	records := make([]models.Record, 0, len(raw))
	for i, item := range raw {
		var r models.Record
		if err := json.Unmarshal(item, &r); err != nil {
			return nil, models.NewValidationError(fmt.Sprintf("record %d", i), err)
		}
		records = append(records, r)
	}
	return records, nil
}

func (b *JSONFileBackend) Save(_ context.Context, records []models.Record) error {
	if records == nil {
		records = []models.Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return models.NewFileOperationError("encode tasks", err)
	}
	data = append(data, '\n')
	if err := writeFileAtomic(b.path, data, 0o644); err != nil {
		return models.NewFileOperationError("write tasks file", err)
	}
	return nil
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	// rename is the commit point
	_ = syncDir(dir)
	return nil
}

func syncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
