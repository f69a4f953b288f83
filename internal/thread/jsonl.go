package thread

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// WriteJSONL writes one {"role","content"} object per line.
func WriteJSONL(w io.Writer, msgs []Message) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for i, m := range msgs {
		if err := enc.Encode(m); err != nil {
			return fmt.Errorf("encode message %d: %w", i, err)
		}
	}
	return nil
}

// SaveJSONL writes msgs to path. Paths ending in .gz are gzip-compressed.
func SaveJSONL(path string, msgs []Message) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	bw := bufio.NewWriter(f)
	var w io.Writer = bw
	var zw *gzip.Writer
	if strings.HasSuffix(path, ".gz") {
		zw = gzip.NewWriter(bw)
		w = zw
	}

	if err := WriteJSONL(w, msgs); err != nil {
		return err
	}
	if zw != nil {
		if err := zw.Close(); err != nil {
			return fmt.Errorf("gzip close: %w", err)
		}
	}
	return bw.Flush()
}

// ReadJSONL parses a JSON Lines message list. Blank lines are skipped.
func ReadJSONL(r io.Reader) ([]Message, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	var msgs []Message
	line := 0
	for scanner.Scan() {
		line++
		b := scanner.Bytes()
		if len(strings.TrimSpace(string(b))) == 0 {
			continue
		}
		var m Message
		if err := json.Unmarshal(b, &m); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if !m.Role.Valid() {
			return nil, fmt.Errorf("line %d: unknown role %q", line, m.Role)
		}
		msgs = append(msgs, m)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	return msgs, nil
}

// LoadJSONL reads a file written by SaveJSONL.
func LoadJSONL(path string) ([]Message, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("gzip open %s: %w", path, err)
		}
		defer zr.Close()
		r = zr
	}
	return ReadJSONL(r)
}
