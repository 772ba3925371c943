package infra

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gridsim/internal/domain"

	"github.com/shopspring/decimal"
)

func recTick(ts time.Time) domain.Nbbo {
	return domain.Nbbo{
		Time:    ts,
		Bid:     decimal.NewFromInt(100),
		BidSize: decimal.RequireFromString("0.5"),
		Ask:     decimal.NewFromInt(102),
		AskSize: decimal.RequireFromString("0.25"),
	}
}

func TestTickRecorder_WritesLineFormat(t *testing.T) {
	dir := t.TempDir()
	rec, err := NewTickRecorder(dir)
	if err != nil {
		t.Fatalf("NewTickRecorder failed: %v", err)
	}

	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	if err := rec.Record(recTick(ts)); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "ticks-2024-03-01.csv"))
	if err != nil {
		t.Fatalf("read tick file: %v", err)
	}

	line := strings.TrimSpace(string(data))
	fields := strings.Split(line, ",")
	if len(fields) != 5 {
		t.Fatalf("Expected 5 fields, got %d: %q", len(fields), line)
	}
	if fields[1] != "100" || fields[4] != "0.25" {
		t.Errorf("Unexpected line content: %q", line)
	}
}

func TestTickRecorder_DailyRotation(t *testing.T) {
	dir := t.TempDir()
	rec, err := NewTickRecorder(dir)
	if err != nil {
		t.Fatalf("NewTickRecorder failed: %v", err)
	}
	defer rec.Close()

	day1 := time.Date(2024, 3, 1, 23, 59, 0, 0, time.UTC)
	day2 := time.Date(2024, 3, 2, 0, 1, 0, 0, time.UTC)

	rec.Record(recTick(day1))
	rec.Record(recTick(day2))
	rec.Record(recTick(day2.Add(time.Minute)))
	if err := rec.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	for file, wantLines := range map[string]int{
		"ticks-2024-03-01.csv": 1,
		"ticks-2024-03-02.csv": 2,
	} {
		data, err := os.ReadFile(filepath.Join(dir, file))
		if err != nil {
			t.Fatalf("read %s: %v", file, err)
		}
		lines := strings.Count(string(data), "\n")
		if lines != wantLines {
			t.Errorf("%s has %d lines, want %d", file, lines, wantLines)
		}
	}
}

func TestTickRecorder_AppendsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 2; i++ {
		rec, err := NewTickRecorder(dir)
		if err != nil {
			t.Fatalf("NewTickRecorder failed: %v", err)
		}
		if err := rec.Record(recTick(ts)); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
		if err := rec.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "ticks-2024-03-01.csv"))
	if err != nil {
		t.Fatalf("read tick file: %v", err)
	}
	if got := strings.Count(string(data), "\n"); got != 2 {
		t.Errorf("Expected 2 appended lines, got %d", got)
	}
}
