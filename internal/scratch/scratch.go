// Package scratch manages the short-lived on-disk area where downloaded audio
// lives for the duration of one pipeline run. Entries are keyed by media id,
// so runs for different messages never collide.
package scratch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"voice-complaint-go/internal/logger"
)

// Extension of stored voice notes; the transport only delivers OGG/Opus.
const Extension = ".ogg"

var ErrInvalidKey = errors.New("invalid scratch key")

type Dir struct {
	root string
	log  *logrus.Entry
}

func New(root string) (*Dir, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("scratch: resolve dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("scratch: create dir: %w", err)
	}
	return &Dir{root: abs, log: logger.Component("scratch")}, nil
}

// WithLogger replaces the logger, mainly for tests.
func (d *Dir) WithLogger(log *logrus.Entry) *Dir {
	d.log = log
	return d
}

func (d *Dir) Root() string { return d.root }

// Path returns the file backing key.
func (d *Dir) Path(key string) (string, error) {
	if err := validKey(key); err != nil {
		return "", err
	}
	return filepath.Join(d.root, key+Extension), nil
}

// Write stores data under key, replacing any previous content.
func (d *Dir) Write(key string, data []byte) (string, error) {
	p, err := d.Path(key)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(p, data, 0o640); err != nil {
		_ = os.Remove(p)
		return "", fmt.Errorf("scratch: write %s: %w", key, err)
	}
	return p, nil
}

// Exists reports whether an entry is stored under key.
func (d *Dir) Exists(key string) bool {
	p, err := d.Path(key)
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}

// Remove deletes the entry for key. Missing entries are not an error.
func (d *Dir) Remove(key string) error {
	p, err := d.Path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("scratch: remove %s: %w", key, err)
	}
	return nil
}

// Sweep deletes regular files last modified before now-retention and
// returns how many were removed.
func (d *Dir) Sweep(now time.Time, retention time.Duration) (int, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return 0, fmt.Errorf("scratch: read dir: %w", err)
	}
	cutoff := now.Add(-retention)
	removed := 0
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(d.root, e.Name())); err != nil && !errors.Is(err, os.ErrNotExist) {
			d.log.WithField("file", e.Name()).WithField("error", err.Error()).Warn("sweep could not delete file")
			continue
		}
		removed++
		d.log.WithField("file", e.Name()).Info("deleted stale scratch file")
	}
	return removed, nil
}

// Janitor runs Sweep every interval until ctx is done. It backstops runs
// that died before releasing their asset.
func (d *Dir) Janitor(ctx context.Context, interval, retention time.Duration) {
	if interval <= 0 {
		d.log.WithField("interval", interval.String()).Error("scratch janitor not started, interval must be positive")
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := d.Sweep(now, retention)
			if err != nil {
				d.log.WithField("error", err.Error()).Error("scratch sweep failed")
				continue
			}
			if n > 0 {
				d.log.WithField("removed", n).Info("scratch sweep finished")
			}
		}
	}
}

func validKey(key string) error {
	if key == "" || key == "." || key == ".." ||
		strings.ContainsAny(key, `/\`) || strings.ContainsRune(key, 0) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
