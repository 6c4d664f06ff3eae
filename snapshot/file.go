package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
)

// FileRepository keeps each pending order in its own JSON file under Dir.
type FileRepository struct {
	Dir string
}

func NewFileRepository(dir string) (*FileRepository, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &FileRepository{Dir: dir}, nil
}

func (r *FileRepository) path(key string) string {
	return filepath.Join(r.Dir, "pending-"+url.PathEscape(key)+".json")
}

// Save writes through a temporary file and a rename, so readers never see a partial record.
func (r *FileRepository) Save(ctx context.Context, key string, order PendingOrder) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("marshal pending order: %w", err)
	}

	tmp, err := os.CreateTemp(r.Dir, ".pending-*")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path(key)); err != nil {
		return fmt.Errorf("store snapshot: %w", err)
	}
	return nil
}

func (r *FileRepository) Load(ctx context.Context, key string) (PendingOrder, error) {
	if err := ctx.Err(); err != nil {
		return PendingOrder{}, err
	}

	data, err := os.ReadFile(r.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return PendingOrder{}, ErrNotFound
	}
	if err != nil {
		return PendingOrder{}, fmt.Errorf("read snapshot: %w", err)
	}

	var order PendingOrder
	if err := json.Unmarshal(data, &order); err != nil {
		return PendingOrder{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return order, nil
}

func (r *FileRepository) Clear(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(r.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove snapshot: %w", err)
	}
	return nil
}
