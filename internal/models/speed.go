package models

import (
	"fmt"
	"math"
	"time"
)

// CalculatingLabel показывается, пока нет предыдущего замера.
const CalculatingLabel = "Calculating..."

// SpeedMeter оценивает мгновенную скорость по двум последним замерам.
// Скользящее окно не используется: старые замеры не влияют на результат.
type SpeedMeter struct {
	lastAt    time.Time
	lastBytes int64
}

// Reset сбрасывает замеры перед новой загрузкой.
func (s *SpeedMeter) Reset() {
	s.lastAt = time.Time{}
	s.lastBytes = 0
}

// Observe учитывает новый замер и возвращает подпись скорости и байты в секунду.
func (s *SpeedMeter) Observe(bytes int64, at time.Time) (string, float64) {
	prevAt, prevBytes := s.lastAt, s.lastBytes
	s.lastAt, s.lastBytes = at, bytes

	if prevAt.IsZero() {
		return CalculatingLabel, 0
	}

	elapsed := at.Sub(prevAt).Seconds()
	delta := bytes - prevBytes
	if elapsed <= 0 || delta < 0 {
		return FormatSpeed(0), 0
	}

	bps := float64(delta) / elapsed
	return FormatSpeed(bps), bps
}

// FormatSpeed форматирует скорость как "12.3 KB/s" или "4.5 MB/s".
func FormatSpeed(bytesPerSecond float64) string {
	kbps := bytesPerSecond / 1024
	if kbps > 1024 {
		return fmt.Sprintf("%.1f MB/s", kbps/1024)
	}
	return fmt.Sprintf("%.1f KB/s", kbps)
}

// Percent возвращает округлённый процент загрузки в диапазоне 0..100.
func Percent(downloaded, total int64) int {
	if total <= 0 {
		return 0
	}
	p := int(math.Round(float64(downloaded) / float64(total) * 100))
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}
