package dedupe

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
)

// headerToken is the reserved first-line marker of the single-column state
// files. It is written exactly once, at file creation, and recognized
// case-insensitively on the first non-blank row only.
const headerToken = "url"

// utf8BOM is written at the start of a freshly created state file so
// spreadsheet tools detect the encoding without any other format metadata.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// readColumn reads a single-column text file into a set of trimmed values.
//
// A missing file yields an empty set and no error. A first non-blank row that
// case-insensitively equals the header token is skipped; the same value later
// in the file is kept as data. Scan failures mid-file keep whatever was read
// so far and log a warning. Errors opening an existing file (e.g. permission
// denied) propagate to the caller.
func readColumn(logger *slog.Logger, path string) (map[string]struct{}, error) {
	if logger == nil {
		logger = slog.Default()
	}
	set := map[string]struct{}{}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return set, nil
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	firstLine := true
	headerChecked := false
	for scanner.Scan() {
		line := scanner.Text()
		if firstLine {
			line = strings.TrimPrefix(line, "\ufeff")
			firstLine = false
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !headerChecked {
			headerChecked = true
			if strings.EqualFold(line, headerToken) {
				continue
			}
		}
		set[line] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		logger.Warn("partial read of state file", "path", path, "rows", len(set), "error", err)
	}
	return set, nil
}

// fileFresh reports whether path is eligible for header and BOM writing:
// the file does not exist or has zero bytes. A populated file only ever
// receives appends.
func fileFresh(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return true, nil
		}
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	return info.Size() == 0, nil
}

// appendColumn writes values to the single-column file at path, one per line.
// A fresh file is created with the BOM and header first; a populated file is
// opened in append mode and gains only the value lines. An empty values slice
// performs no file operation at all.
func appendColumn(path, header string, values []string) error {
	if len(values) == 0 {
		return nil
	}
	fresh, err := fileFresh(path)
	if err != nil {
		return err
	}

	flags := os.O_WRONLY | os.O_APPEND | os.O_CREATE
	if fresh {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	w := bufio.NewWriter(f)
	if fresh {
		if _, err := w.Write(utf8BOM); err != nil {
			_ = f.Close()
			return fmt.Errorf("write %s: %w", path, err)
		}
		if header != "" {
			if _, err := w.WriteString(header + "\n"); err != nil {
				_ = f.Close()
				return fmt.Errorf("write %s: %w", path, err)
			}
		}
	}
	for _, v := range values {
		if _, err := w.WriteString(v + "\n"); err != nil {
			_ = f.Close()
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return f.Close()
}
