package models

import (
	"testing"
	"time"
)

func TestSpeedMeterUsesLastSampleOnly(t *testing.T) {
	var s SpeedMeter
	t0 := time.Unix(1000, 0)

	if label, _ := s.Observe(0, t0); label != CalculatingLabel {
		t.Fatalf("first label = %q, want %q", label, CalculatingLabel)
	}

	// Долгий медленный участок не должен влиять на следующий замер.
	s.Observe(1024, t0.Add(10*time.Second))
	label, bps := s.Observe(1024+2*1024*1024, t0.Add(11*time.Second))
	if bps != 2*1024*1024 {
		t.Fatalf("bps = %v, want %v", bps, 2*1024*1024)
	}
	if label != "2.0 MB/s" {
		t.Fatalf("label = %q, want 2.0 MB/s", label)
	}
}

func TestSpeedMeterNonNegative(t *testing.T) {
	var s SpeedMeter
	t0 := time.Unix(1000, 0)
	s.Observe(100, t0)

	if label, bps := s.Observe(100, t0); bps != 0 || label != "0.0 KB/s" {
		t.Fatalf("zero interval = %q/%v, want 0.0 KB/s", label, bps)
	}
	if _, bps := s.Observe(50, t0.Add(time.Second)); bps < 0 {
		t.Fatalf("bps = %v, want non-negative", bps)
	}

	s.Reset()
	if label, _ := s.Observe(10, t0.Add(2*time.Second)); label != CalculatingLabel {
		t.Fatalf("after reset label = %q", label)
	}
}

func TestFormatSpeed(t *testing.T) {
	tests := []struct {
		bps  float64
		want string
	}{
		{0, "0.0 KB/s"},
		{512, "0.5 KB/s"},
		{1024 * 1024, "1024.0 KB/s"},
		{1.5 * 1024 * 1024, "1.5 MB/s"},
	}
	for _, tt := range tests {
		if got := FormatSpeed(tt.bps); got != tt.want {
			t.Errorf("FormatSpeed(%v) = %q, want %q", tt.bps, got, tt.want)
		}
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		downloaded, total int64
		want              int
	}{
		{0, 0, 0},
		{0, 100, 0},
		{50, 100, 50},
		{999, 1000, 100},
		{150, 100, 100},
	}
	for _, tt := range tests {
		if got := Percent(tt.downloaded, tt.total); got != tt.want {
			t.Errorf("Percent(%d, %d) = %d, want %d", tt.downloaded, tt.total, got, tt.want)
		}
	}
}
