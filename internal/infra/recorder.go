package infra

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gridsim/internal/domain"
)

// TickRecorder appends ticks to a daily-rotated CSV file, one line per
// tick: unix nanoseconds, bid, bid size, ask, ask size. Rotation follows
// the tick's own timestamp so replayed history lands in the right files.
type TickRecorder struct {
	mu   sync.Mutex
	dir  string
	day  string
	file *os.File
	w    *bufio.Writer
}

// NewTickRecorder creates a recorder writing into dir.
func NewTickRecorder(dir string) (*TickRecorder, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create recorder dir: %w", err)
	}
	return &TickRecorder{dir: dir}, nil
}

// Record appends one tick, rotating to a new file when the date changes.
func (r *TickRecorder) Record(nbbo domain.Nbbo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	day := nbbo.Time.Format("2006-01-02")
	if day != r.day {
		if err := r.rotate(day); err != nil {
			return err
		}
	}

	if _, err := r.w.WriteString(nbbo.CSVRecord() + "\n"); err != nil {
		return fmt.Errorf("write tick: %w", err)
	}
	return nil
}

func (r *TickRecorder) rotate(day string) error {
	if err := r.closeCurrent(); err != nil {
		return err
	}

	path := filepath.Join(r.dir, "ticks-"+day+".csv")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open tick file: %w", err)
	}

	r.file = f
	r.w = bufio.NewWriter(f)
	r.day = day
	return nil
}

// Flush drains buffered lines to disk.
func (r *TickRecorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.w == nil {
		return nil
	}
	return r.w.Flush()
}

// Close flushes and closes the current file.
func (r *TickRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closeCurrent()
}

func (r *TickRecorder) closeCurrent() error {
	if r.file == nil {
		return nil
	}
	if err := r.w.Flush(); err != nil {
		return err
	}
	err := r.file.Close()
	r.file = nil
	r.w = nil
	r.day = ""
	return err
}
