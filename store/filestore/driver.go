package filestore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jrsteele09/go-auth-client/store"
)

// Driver is a store.Repo kept as a single JSON object on disk.
// Writes replace the whole file through a rename so a reader only ever sees a
// complete object.
type Driver struct {
	path string
	lock sync.Mutex
}

var _ store.Repo = (*Driver)(nil)

// New creates a driver backed by the file at path. The parent directory is
// created on the first write.
func New(path string) *Driver {
	return &Driver{path: path}
}

// Path returns the backing file path
func (d *Driver) Path() string {
	return d.path
}

func (d *Driver) Get(key string) (string, bool, error) {
	d.lock.Lock()
	defer d.lock.Unlock()

	entries, err := d.read()
	if err != nil {
		return "", false, err
	}
	v, ok := entries[key]
	return v, ok, nil
}

func (d *Driver) Upsert(entries map[string]string) error {
	d.lock.Lock()
	defer d.lock.Unlock()

	current, err := d.read()
	if err != nil {
		return err
	}
	for k, v := range entries {
		current[k] = v
	}
	return d.write(current)
}

func (d *Driver) Delete(keys ...string) error {
	d.lock.Lock()
	defer d.lock.Unlock()

	current, err := d.read()
	if err != nil {
		return err
	}
	changed := false
	for _, k := range keys {
		if _, ok := current[k]; ok {
			delete(current, k)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return d.write(current)
}

func (d *Driver) read() (map[string]string, error) {
	data, err := os.ReadFile(d.path)
	if os.IsNotExist(err) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("filestore read %s: %w", d.path, err)
	}
	entries := make(map[string]string)
	if len(data) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("filestore decode %s: %w", d.path, err)
	}
	return entries, nil
}

func (d *Driver) write(entries map[string]string) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(d.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("filestore mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(d.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("filestore temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("filestore write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("filestore close: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return fmt.Errorf("filestore chmod: %w", err)
	}
	return os.Rename(tmp.Name(), d.path)
}
