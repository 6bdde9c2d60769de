package leads

import (
	"encoding/csv"
	"fmt"
	"os"
	"sync"
	"time"
)

const timestampLayout = "2006-01-02 15:04:05"

var csvHeader = []string{"Date", "Name", "Contact", "Interest"}

// Sink durably appends captured leads. Implementations never rewrite or
// delete previously written records.
type Sink interface {
	Record(lead Lead, capturedAt time.Time) error
}

// CSVSink appends leads to a comma-delimited UTF-8 file, writing the header
// row when it creates the file. Writes are mutually exclusive so concurrent
// captures never interleave rows.
type CSVSink struct {
	mu   sync.Mutex
	path string
}

func NewCSVSink(path string) *CSVSink {
	return &CSVSink{path: path}
}

func (s *CSVSink) Record(lead Lead, capturedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	writeHeader := false
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		writeHeader = true
	}

	file, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open leads file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if writeHeader {
		if err := writer.Write(csvHeader); err != nil {
			return fmt.Errorf("write leads header: %w", err)
		}
	}

	row := []string{capturedAt.Format(timestampLayout), lead.Name, lead.Contact, lead.Interest}
	if err := writer.Write(row); err != nil {
		return fmt.Errorf("write lead row: %w", err)
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush leads file: %w", err)
	}

	return nil
}

var _ Sink = (*CSVSink)(nil)

// Entry is one persisted lead row, as read back from the sink file.
type Entry struct {
	Date     string
	Name     string
	Contact  string
	Interest string
}

// ReadAll loads every lead recorded in the CSV file at path. A missing file
// yields no entries.
func ReadAll(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open leads file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse leads file: %w", err)
	}

	entries := make([]Entry, 0, len(records))
	for i, record := range records {
		if i == 0 || len(record) < 4 {
			continue
		}
		entries = append(entries, Entry{
			Date:     record[0],
			Name:     record[1],
			Contact:  record[2],
			Interest: record[3],
		})
	}

	return entries, nil
}
