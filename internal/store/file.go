package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	util "github.com/CodeAndHammer/stelfalo/internal/util"
)

// FileStore keeps the whole key space in one JSON file. The file is read
// once at open and rewritten on every Set/Delete via a temp-file rename so
// a crash mid-write never leaves a torn file behind.
type FileStore struct {
	path   string
	mu     sync.Mutex
	values map[string]string
}

func OpenFileStore(path string) (*FileStore, error) {
	fs := &FileStore{
		path:   path,
		values: make(map[string]string),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		util.LogInfo("Store file %s does not exist yet, starting empty", path)
		return fs, nil
	}

	if err := json.Unmarshal(data, &fs.values); err != nil {
		return nil, err
	}
	util.LogInfo("Loaded %d keys from %s", len(fs.values), path)
	return fs, nil
}

func (f *FileStore) Get(key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return v, nil
}

func (f *FileStore) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
	return f.flushLocked()
}

func (f *FileStore) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.values, key)
	return f.flushLocked()
}

func (f *FileStore) Close() error { return nil }

func (f *FileStore) flushLocked() error {
	data, err := json.MarshalIndent(f.values, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".store-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, f.path)
}
