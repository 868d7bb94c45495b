package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/facmaker/facmaker/sim"
)

// SeriesRecord is one line of a series file: the full stock history of one item.
type SeriesRecord struct {
	Item   sim.ID  `json:"item"`
	Name   string  `json:"name"`
	Role   string  `json:"role"`
	Values []int64 `json:"values"`
}

// SeriesRecords lists the series of every summarized item, in summary order.
func SeriesRecords(s *Summary, c *sim.Cache) []SeriesRecord {
	records := make([]SeriesRecord, 0, len(s.Items))
	for _, it := range s.Items {
		series, ok := c.Series(it.ID)
		if !ok {
			continue
		}
		records = append(records, SeriesRecord{Item: it.ID, Name: it.Name, Role: it.Role, Values: series.Values()})
	}
	return records
}

// WriteSeries writes records as zstd-compressed JSON lines.
func WriteSeries(w io.Writer, records []SeriesRecord) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 256*1024)
	je := json.NewEncoder(bw)
	for _, r := range records {
		if err := je.Encode(r); err != nil {
			_ = enc.Close()
			return fmt.Errorf("encoding series of item %d: %w", r.Item, err)
		}
	}
	if err := bw.Flush(); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}

// ReadSeries reads a stream written by WriteSeries.
func ReadSeries(r io.Reader) ([]SeriesRecord, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var records []SeriesRecord
	jd := json.NewDecoder(bufio.NewReaderSize(dec, 256*1024))
	for {
		var rec SeriesRecord
		err := jd.Decode(&rec)
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("decoding series record %d: %w", len(records), err)
		}
		records = append(records, rec)
	}
}

// SaveSeries writes records to the file at path (conventionally *.jsonl.zst).
func SaveSeries(path string, records []SeriesRecord) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if err := WriteSeries(f, records); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// LoadSeries reads a file written by SaveSeries.
func LoadSeries(path string) ([]SeriesRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadSeries(f)
}
