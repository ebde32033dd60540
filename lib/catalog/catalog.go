package catalog

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// Read parses a product catalog: one search query per line. Blank lines
// and comment lines starting with "#" or "//" are skipped. Order and
// duplicates are preserved, ordering in the final report follows the
// catalog.
func Read(r io.Reader) ([]string, error) {
	var queries []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}
		queries = append(queries, line)
	}
	return queries, scanner.Err()
}

func ReadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}
