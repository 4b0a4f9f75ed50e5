package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FS stores artifacts as plain files under a configured directory.
type FS struct {
	dir string
}

func NewFS(dir string) (*FS, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir %s: %w", dir, err)
	}
	return &FS{dir: dir}, nil
}

func (s *FS) Put(_ context.Context, name string, data []byte, onStored func(string)) error {
	path := filepath.Join(s.dir, name)

	// Write-then-rename so a concurrent Fetch never observes a partial
	// artifact. Identical content per name makes last-write-wins safe.
	tmp, err := os.CreateTemp(s.dir, name+".tmp*")
	if err != nil {
		return fmt.Errorf("create artifact temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write artifact %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close artifact %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("publish artifact %s: %w", name, err)
	}

	if onStored != nil {
		onStored(path)
	}
	return nil
}

func (s *FS) Fetch(_ context.Context, location string) ([]byte, error) {
	data, err := os.ReadFile(location)
	if err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", location, err)
	}
	return data, nil
}
