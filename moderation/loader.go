package moderation

import (
	"bufio"
	"bytes"
	"embed"
	"io/fs"
	"strings"

	relayerrors "chat-relay/errors"
)

// Dictionaries carries the loaded word lists plus metadata for logging.
type Dictionaries struct {
	Words     []string
	Languages []string
}

// Loader reads blacklisted words from embedded .txt dictionaries, one file
// per language, one word per line.
type Loader struct {
	fs embed.FS
}

func NewLoader(f embed.FS) *Loader {
	return &Loader{fs: f}
}

// LoadAll scans the directory for .txt dictionaries and merges their
// contents into a unique word list.
func (l *Loader) LoadAll(path string) (*Dictionaries, error) {
	entries, err := fs.ReadDir(l.fs, path)
	if err != nil {
		return nil, err
	}

	var languages []string
	uniqueWords := make(map[string]struct{})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		languages = append(languages, strings.TrimSuffix(entry.Name(), ".txt"))

		data, err := l.fs.ReadFile(path + "/" + entry.Name())
		if err != nil {
			return nil, err
		}

		// A scanner handles both \n and \r\n line endings.
		scanner := bufio.NewScanner(bytes.NewReader(data))
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line != "" {
				uniqueWords[line] = struct{}{}
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, err
		}
	}

	if len(uniqueWords) == 0 {
		return nil, relayerrors.ErrEmptyWords
	}

	words := make([]string, 0, len(uniqueWords))
	for w := range uniqueWords {
		words = append(words, w)
	}
	return &Dictionaries{Words: words, Languages: languages}, nil
}
