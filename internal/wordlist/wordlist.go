// Package wordlist loads practice phrase lists from files or the built-in set.
package wordlist

import (
	"bufio"
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
)

// ErrEmpty is returned for a list with no phrases.
var ErrEmpty = errors.New("word list is empty")

//go:embed builtin/*.txt
var builtinFS embed.FS

// LoadWords reads one phrase per line from the provided file path. Blank
// lines and lines starting with # are skipped.
func LoadWords(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open word list: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()
	return readWords(file)
}

func readWords(r io.Reader) ([]string, error) {
	var words []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read word list: %w", err)
	}
	if len(words) == 0 {
		return nil, ErrEmpty
	}
	return words, nil
}

// Builtin returns the built-in phrases for a layout. Layouts without their
// own list share the alpha phrases.
func Builtin(layout string) ([]string, error) {
	name := strings.ToLower(strings.TrimSpace(layout))
	data, err := builtinFS.Open(path.Join("builtin", name+".txt"))
	if err != nil {
		data, err = builtinFS.Open("builtin/alpha.txt")
		if err != nil {
			return nil, fmt.Errorf("failed to open built-in phrases: %w", err)
		}
	}
	defer func() {
		_ = data.Close()
	}()
	return readWords(data)
}
