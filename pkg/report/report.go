//go:build linux

package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/ja7ad/powerlog/pkg/sampler"
)

// Header is the first line of every output file.
var Header = []string{"date", "time", "timestamp", "ujoules", "watt_pkg", "watt_core", "voltage"}

// Writer prints each sample to the console and, when a file is attached,
// appends a ';'-delimited row to it.
type Writer struct {
	console io.Writer

	f    *os.File
	rows *csv.Writer
}

// New returns a console-only Writer.
func New(console io.Writer) *Writer {
	return &Writer{console: console}
}

// Open returns a Writer that also logs to path. The file is truncated and
// starts with Header. An empty path yields a console-only Writer.
func Open(console io.Writer, path string) (*Writer, error) {
	w := New(console)
	if path == "" {
		return w, nil
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o666)
	if err != nil {
		return nil, err
	}
	if err := w.attach(f); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}
	return w, nil
}

func (w *Writer) attach(f *os.File) error {
	rows := csv.NewWriter(f)
	rows.Comma = ';'
	if err := rows.Write(Header); err != nil {
		return err
	}
	rows.Flush()
	if err := rows.Error(); err != nil {
		return err
	}
	w.f, w.rows = f, rows
	return nil
}

// Line formats the console report of s.
func Line(s sampler.Sample) string {
	return fmt.Sprintf("ts=%d total_uj=%d watts(pkg)=%f watts(core)=%f voltage=%f",
		s.At.Unix(), s.TotalUJ, s.Watts[sampler.Pkg], s.Watts[sampler.Core], s.Voltage)
}

// Row formats the file record of s, in local time.
func Row(s sampler.Sample) []string {
	at := s.At.Local()
	return []string{
		at.Format("01/02/2006"),
		at.Format("15:04:05"),
		strconv.FormatInt(s.Timestamp(), 10),
		strconv.FormatInt(s.TotalUJ, 10),
		fmtFloat(s.Watts[sampler.Pkg]),
		fmtFloat(s.Watts[sampler.Core]),
		fmtFloat(s.Voltage),
	}
}

func fmtFloat(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }

// Report implements sampler.Reporter. The row is flushed before returning.
func (w *Writer) Report(s sampler.Sample) error {
	var errs []error
	if _, err := fmt.Fprintln(w.console, Line(s)); err != nil {
		errs = append(errs, fmt.Errorf("console: %w", err))
	}
	if w.rows != nil {
		err := w.rows.Write(Row(s))
		w.rows.Flush()
		if err == nil {
			err = w.rows.Error()
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", w.f.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Path returns the output file name, or "" for a console-only Writer.
func (w *Writer) Path() string {
	if w.f == nil {
		return ""
	}
	return w.f.Name()
}

// Close flushes and closes the output file, if any.
func (w *Writer) Close() error {
	if w.f == nil {
		return nil
	}
	w.rows.Flush()
	err := errors.Join(w.rows.Error(), w.f.Close())
	w.f, w.rows = nil, nil
	return err
}
