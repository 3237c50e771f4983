// Package interchange reads and writes the locked-state export format:
// one record per line, KEY=iv:ciphertext, UTF-8, '\n' line endings. Lines
// starting with '#' are comments and blank lines are ignored.
//
// iv and ciphertext are base64 and may end in '=' padding, so a line is split
// on the first '=' only, and the value on the first ':' only.
package interchange

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Record is one exported field. IV and Ciphertext are kept verbatim.
type Record struct {
	Key        string
	IV         string
	Ciphertext string
}

// ErrInvalidLine is wrapped by every parse error.
var ErrInvalidLine = errors.New("invalid line")

// ParseLine parses a single line. ok is false for comments and blank lines.
func ParseLine(line string) (rec Record, ok bool, err error) {
	if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
		return Record{}, false, nil
	}

	key, value, found := strings.Cut(line, "=")
	if !found {
		return Record{}, false, fmt.Errorf("%w: no '=' found", ErrInvalidLine)
	}
	if key == "" {
		return Record{}, false, fmt.Errorf("%w: empty key", ErrInvalidLine)
	}

	iv, ciphertext, found := strings.Cut(value, ":")
	if !found {
		return Record{}, false, fmt.Errorf("%w: no ':' in value of %q", ErrInvalidLine, key)
	}

	return Record{Key: key, IV: iv, Ciphertext: ciphertext}, true, nil
}

// Parse reads all records from r. Errors carry the 1-based line number.
func Parse(r io.Reader) ([]Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	records := make([]Record, 0)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		rec, ok, err := ParseLine(scanner.Text())
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		if ok {
			records = append(records, rec)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return records, nil
}

// Write emits recs in order, one per line. Keys containing '=' or a newline,
// and values containing a newline, cannot round-trip and are rejected.
func Write(w io.Writer, recs []Record) error {
	bw := bufio.NewWriter(w)
	for _, rec := range recs {
		if err := validate(rec); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(bw, "%s=%s:%s\n", rec.Key, rec.IV, rec.Ciphertext); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func validate(rec Record) error {
	switch {
	case rec.Key == "":
		return fmt.Errorf("%w: empty key", ErrInvalidLine)
	case strings.HasPrefix(rec.Key, "#"):
		return fmt.Errorf("%w: key %q would be read as a comment", ErrInvalidLine, rec.Key)
	case strings.ContainsAny(rec.Key, "=\n"):
		return fmt.Errorf("%w: key %q contains '=' or newline", ErrInvalidLine, rec.Key)
	case strings.Contains(rec.IV, ":"):
		return fmt.Errorf("%w: iv of %q contains ':'", ErrInvalidLine, rec.Key)
	case strings.Contains(rec.IV+rec.Ciphertext, "\n"):
		return fmt.Errorf("%w: value of %q contains newline", ErrInvalidLine, rec.Key)
	}
	return nil
}
