package confluxer

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// commentMarker starts a comment that runs to the end of the line.
const commentMarker = "#"

// ParseWords reads a word list from r. Everything from the first '#' on a line
// is discarded, the rest is split on whitespace, and the resulting words are
// returned sorted in byte order. Empty tokens never appear in the result.
// Lines may be of any length.
func ParseWords(r io.Reader) ([]string, error) {
	reader := bufio.NewReader(r)

	var words []string
	for {
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("could not read word list: %w", err)
		}
		if i := strings.Index(line, commentMarker); i >= 0 {
			line = line[:i]
		}
		// strings.Fields never yields empty tokens
		words = append(words, strings.Fields(line)...)
		if err != nil {
			break
		}
	}

	sort.Strings(words)
	return words, nil
}

// LoadFile reads the word list at path and builds a Model from it.
// The returned error wraps the underlying *fs.PathError when the file cannot
// be opened, so callers can test it with errors.Is(err, fs.ErrNotExist).
func LoadFile(path string) (*Model, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open word list: %w", err)
	}
	defer func(file *os.File) {
		_ = file.Close()
	}(file)

	words, err := ParseWords(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return BuildModel(words), nil
}
