package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/globaltierra/crm-api/internal/entity"
)

// FilePublisher writes the KPI snapshot where the dashboard fetches
// it and keeps the latest copy in memory for /kpis/current. Publish
// goes through a temp file plus rename so readers never observe a
// half-written document.
type FilePublisher struct {
	path string

	mu      sync.RWMutex
	current *entity.KPISnapshot
}

func NewFilePublisher(path string) *FilePublisher {
	return &FilePublisher{path: path}
}

// Load restores the last published snapshot after a restart. A
// missing file is not an error; there is just no snapshot yet.
func (p *FilePublisher) Load() error {
	data, err := os.ReadFile(p.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read snapshot file: %w", err)
	}

	var snap entity.KPISnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("decode snapshot file: %w", err)
	}

	p.mu.Lock()
	p.current = &snap
	p.mu.Unlock()
	return nil
}

func (p *FilePublisher) Publish(ctx context.Context, snap *entity.KPISnapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".kpis-*.json")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp snapshot: %w", err)
	}

	// Atomic swap: the old document stays intact until this succeeds.
	if err := os.Rename(tmpName, p.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("swap snapshot: %w", err)
	}

	p.mu.Lock()
	p.current = snap
	p.mu.Unlock()
	return nil
}

// Current returns the snapshot in effect at call time, or nil when
// nothing has been published yet.
func (p *FilePublisher) Current() *entity.KPISnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}
