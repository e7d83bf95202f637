package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// File appends one JSON object per line.
type File struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

func NewFile(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("Не удалось открыть журнал %s: %w", path, err)
	}
	return &File{path: path, f: f}, nil
}

func (j *File) Record(_ context.Context, e Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.f == nil {
		return fmt.Errorf("Журнал %s закрыт", j.path)
	}
	if err := json.NewEncoder(j.f).Encode(e); err != nil {
		return fmt.Errorf("Не удалось записать в журнал %s: %w", j.path, err)
	}
	return nil
}

func (j *File) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.f == nil {
		return nil
	}
	err := j.f.Close()
	j.f = nil
	return err
}
