package generator

import (
	"encoding/json"
	"os"
	"time"
)

// TimingEnv names a JSONL file that receives stage timings when
// Options.TimingPath is empty
const TimingEnv = "SV_TBGEN_TIMING_JSONL"

type timingEvent struct {
	Stage      string  `json:"stage"`
	File       string  `json:"file,omitempty"`
	Status     string  `json:"status,omitempty"`
	StartMS    float64 `json:"start_ms"`
	DurationMS float64 `json:"duration_ms"`
	EndMS      float64 `json:"end_ms"`
}

// timingRecorder appends one JSON line per pipeline stage. A nil or
// disabled recorder drops everything.
type timingRecorder struct {
	enabled bool
	start   time.Time
	file    *os.File
	enc     *json.Encoder
	err     error
}

func newTimingRecorder(start time.Time, path string) *timingRecorder {
	tr := &timingRecorder{start: start}
	if path == "" {
		return tr
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		tr.err = err
		return tr
	}
	tr.enabled = true
	tr.file = f
	tr.enc = json.NewEncoder(f)
	return tr
}

func resolveTimingPath(path string) string {
	if path != "" {
		return path
	}
	return os.Getenv(TimingEnv)
}

func (tr *timingRecorder) Err() error {
	if tr == nil {
		return nil
	}
	return tr.err
}

func (tr *timingRecorder) Close() {
	if tr == nil || tr.file == nil {
		return
	}
	_ = tr.file.Close()
}

// stage records a stage that began at start and ends now
func (tr *timingRecorder) stage(name, file, status string, start time.Time) {
	if tr == nil || !tr.enabled {
		return
	}
	startMS := durationToMS(start.Sub(tr.start))
	durationMS := durationToMS(time.Since(start))
	event := timingEvent{
		Stage:      name,
		File:       file,
		Status:     status,
		StartMS:    startMS,
		DurationMS: durationMS,
		EndMS:      startMS + durationMS,
	}
	if tr.enc != nil {
		_ = tr.enc.Encode(event)
	}
}

func durationToMS(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1_000_000.0
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
