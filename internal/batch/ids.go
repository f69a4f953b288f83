package batch

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadThreadIDs parses one thread id per line. Blank lines and lines starting
// with # are skipped, and repeated ids are kept once in first-seen order.
func ReadThreadIDs(r io.Reader) ([]string, error) {
	var ids []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if seen[line] {
			continue
		}
		seen[line] = true
		ids = append(ids, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan ids: %w", err)
	}
	return ids, nil
}

func LoadThreadIDs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadThreadIDs(f)
}
