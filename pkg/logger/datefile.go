package logger

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const defaultDateLayout = "2006-01-02"

// dateFile writes to <name>-<date><ext> and switches files when the date changes.
type dateFile struct {
	now    func() time.Time
	file   *os.File
	base   string
	ext    string
	layout string
	day    string
	mu     sync.Mutex
}

func newDateFile(filename, layout string) (*dateFile, error) {
	if filename == "" {
		return nil, ErrMissingFilename
	}
	if layout == "" {
		layout = defaultDateLayout
	}
	ext := filepath.Ext(filename)
	return &dateFile{
		now:    time.Now,
		base:   strings.TrimSuffix(filename, ext),
		ext:    ext,
		layout: layout,
	}, nil
}

func (d *dateFile) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if day := d.now().Format(d.layout); day != d.day || d.file == nil {
		if err := d.rotate(day); err != nil {
			return 0, err
		}
	}
	return d.file.Write(p)
}

// rotate closes the current file and opens the one for day.
// Caller must hold the mutex.
func (d *dateFile) rotate(day string) error {
	if d.file != nil {
		_ = d.file.Close()
		d.file = nil
	}
	f, err := openFile(d.path(day))
	if err != nil {
		return err
	}
	d.file, d.day = f, day
	return nil
}

func (d *dateFile) path(day string) string {
	return d.base + "-" + day + d.ext
}

func (d *dateFile) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}
