package thresholds

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// Backend persists the config document and its change history.
type Backend interface {
	// ReadConfig returns the raw config document, or an error matching
	// fs.ErrNotExist when none has been written yet.
	ReadConfig() ([]byte, error)
	// ReadHistory returns the raw history document; a missing history is
	// reported as (nil, nil).
	ReadHistory() ([]byte, error)
	// Write replaces both documents. Either both are written or neither is.
	Write(config, history []byte) error
}

// FileBackend stores the two documents as JSON files.
type FileBackend struct {
	ConfigPath  string
	HistoryPath string
}

// NewFileBackend returns a FileBackend for the given paths.
func NewFileBackend(configPath, historyPath string) *FileBackend {
	return &FileBackend{ConfigPath: configPath, HistoryPath: historyPath}
}

func (b *FileBackend) ReadConfig() ([]byte, error) {
	data, err := os.ReadFile(b.ConfigPath)
	if err != nil {
		return nil, eris.Wrapf(err, "thresholds: read config %s", b.ConfigPath)
	}
	return data, nil
}

func (b *FileBackend) ReadHistory() ([]byte, error) {
	data, err := os.ReadFile(b.HistoryPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "thresholds: read history %s", b.HistoryPath)
	}
	return data, nil
}

// Write stages both documents in temp files and renames them into place. If
// the history rename fails the previous config is restored.
func (b *FileBackend) Write(config, history []byte) error {
	prevConfig, prevErr := os.ReadFile(b.ConfigPath)
	hadConfig := prevErr == nil

	cfgTmp, err := stage(b.ConfigPath, config)
	if err != nil {
		return err
	}
	histTmp, err := stage(b.HistoryPath, history)
	if err != nil {
		os.Remove(cfgTmp) //nolint:errcheck
		return err
	}

	if err := os.Rename(cfgTmp, b.ConfigPath); err != nil {
		os.Remove(cfgTmp)  //nolint:errcheck
		os.Remove(histTmp) //nolint:errcheck
		return eris.Wrapf(err, "thresholds: replace config %s", b.ConfigPath)
	}
	if err := os.Rename(histTmp, b.HistoryPath); err != nil {
		os.Remove(histTmp) //nolint:errcheck
		if hadConfig {
			if restoreErr := writeAtomic(b.ConfigPath, prevConfig); restoreErr != nil {
				return eris.Wrapf(err, "thresholds: replace history %s (config restore failed: %v)", b.HistoryPath, restoreErr)
			}
		} else {
			os.Remove(b.ConfigPath) //nolint:errcheck
		}
		return eris.Wrapf(err, "thresholds: replace history %s", b.HistoryPath)
	}
	return nil
}

// stage writes data to a temp file next to path and returns its name.
func stage(path string, data []byte) (string, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrapf(err, "thresholds: create dir %s", dir)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", eris.Wrapf(err, "thresholds: create temp for %s", path)
	}
	name := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()       //nolint:errcheck
		os.Remove(name) //nolint:errcheck
		return "", eris.Wrapf(err, "thresholds: write temp for %s", path)
	}
	if err := f.Sync(); err != nil {
		f.Close()       //nolint:errcheck
		os.Remove(name) //nolint:errcheck
		return "", eris.Wrapf(err, "thresholds: sync temp for %s", path)
	}
	if err := f.Close(); err != nil {
		os.Remove(name) //nolint:errcheck
		return "", eris.Wrapf(err, "thresholds: close temp for %s", path)
	}
	return name, nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := stage(path, data)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp) //nolint:errcheck
		return eris.Wrapf(err, "thresholds: replace %s", path)
	}
	return nil
}
