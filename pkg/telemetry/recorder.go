// Package telemetry records one row per answered query to Parquet files
// for offline analysis of retrieval quality and latency.
package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"
)

// defaultBatchSize is how many turn records buffer before a file flush.
const defaultBatchSize = 100

// TurnRecord is one completed query turn.
type TurnRecord struct {
	ID           string    `parquet:"id"`
	Timestamp    time.Time `parquet:"timestamp"`
	SessionID    string    `parquet:"session_id"`
	UserID       string    `parquet:"user_id"`
	Query        string    `parquet:"query"`
	Intent       string    `parquet:"intent"`
	ResultCount  int       `parquet:"result_count"`
	Sufficiency  float64   `parquet:"sufficiency"`
	Attempts     int       `parquet:"attempts"`
	Streamed     bool      `parquet:"streamed"`
	DurationMS   int64     `parquet:"duration_ms"`
	ErrorMessage string    `parquet:"error_message"`
}

// Recorder buffers turn records and batch-writes them to Parquet files in
// its output directory. Safe for concurrent use.
type Recorder struct {
	mu        sync.Mutex
	outputDir string
	batchSize int
	buffer    []TurnRecord
}

// NewRecorder creates a recorder writing under outputDir, creating the
// directory if needed.
func NewRecorder(outputDir string) (*Recorder, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating telemetry directory: %w", err)
	}
	return &Recorder{
		outputDir: outputDir,
		batchSize: defaultBatchSize,
		buffer:    make([]TurnRecord, 0, defaultBatchSize),
	}, nil
}

// Record buffers one turn, flushing when the batch fills.
func (r *Recorder) Record(record TurnRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.buffer = append(r.buffer, record)
	if len(r.buffer) >= r.batchSize {
		return r.flush()
	}
	return nil
}

// Flush writes any buffered records immediately.
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flush()
}

// Close flushes the remaining buffer.
func (r *Recorder) Close() error {
	return r.Flush()
}

// flush writes the buffer to a new Parquet file. Caller holds the lock.
func (r *Recorder) flush() error {
	if len(r.buffer) == 0 {
		return nil
	}

	filename := fmt.Sprintf("turns_%s_%d.parquet", time.Now().Format("20060102_150405"), time.Now().UnixNano())
	path := filepath.Join(r.outputDir, filename)

	if err := parquet.WriteFile(path, r.buffer); err != nil {
		return fmt.Errorf("writing telemetry file: %w", err)
	}

	r.buffer = r.buffer[:0]
	return nil
}
