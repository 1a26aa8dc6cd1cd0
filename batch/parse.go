// Package batch turns a CSV or TXT upload into many QR codes and packs
// them into one ZIP archive.
package batch

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

// ErrNoValues is returned when a file yields nothing to encode.
var ErrNoValues = errors.New("batch: no values found in file")

// ParseError reports a malformed batch file.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("batch: parse line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("batch: parse: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Value is one text to encode and the file line it came from.
type Value struct {
	Line int    `json:"line"`
	Text string `json:"value"`
}

// Parse reads values from r. Files named *.txt hold one value per line;
// anything else is read as CSV, using the column headed "value" (any case)
// or else the first column of every row. Quotes inside unquoted CSV cells
// are kept literally. Values are trimmed, blank ones dropped and invalid
// UTF-8 removed.
func Parse(name string, r io.Reader) ([]Value, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	text := strings.ToValidUTF8(string(data), "")
	text = strings.TrimPrefix(text, "\ufeff")

	var values []Value
	if strings.EqualFold(path.Ext(name), ".txt") {
		values, err = parseLines(text)
	} else {
		values, err = parseCSV(text)
	}
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, ErrNoValues
	}
	return values, nil
}

func parseLines(text string) ([]Value, error) {
	var values []Value
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		if v := strings.TrimSpace(sc.Text()); v != "" {
			values = append(values, Value{Line: line, Text: v})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, &ParseError{Line: line + 1, Err: err}
	}
	return values, nil
}

func parseCSV(text string) ([]Value, error) {
	cr := csv.NewReader(strings.NewReader(text))
	cr.FieldsPerRecord = -1
	// Spreadsheet exports leave quotes inside unquoted cells as is.
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoValues
	}
	if err != nil {
		return nil, csvError(err)
	}

	column := -1
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), "value") {
			column = i
			break
		}
	}

	var values []Value
	add := func(record []string, col int) {
		if col >= len(record) {
			return
		}
		if v := strings.TrimSpace(record[col]); v != "" {
			line, _ := cr.FieldPos(0)
			values = append(values, Value{Line: line, Text: v})
		}
	}

	if column < 0 {
		// No "value" header: the first row is data too.
		column = 0
		add(header, column)
	}
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, csvError(err)
		}
		add(record, column)
	}
	return values, nil
}

func csvError(err error) error {
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		return &ParseError{Line: perr.Line, Err: perr.Err}
	}
	return &ParseError{Err: err}
}
