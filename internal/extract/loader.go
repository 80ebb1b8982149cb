package extract

import (
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Input describes where the stat page HTML comes from.
type Input struct {
	// Path is a file on disk. "-" or empty selects Stdin instead.
	Path string

	// Stdin is used when Path does not name a file. If nil, stdin reads as
	// empty.
	Stdin io.Reader
}

// Load returns the HTML source for the given input.
//
// Stat pages saved from older sites are frequently Windows-1252 rather
// than UTF-8. When the raw bytes are not valid UTF-8, Load re-decodes them
// as Windows-1252 so degree signs and friends survive into extraction.
//
// A missing or unreadable file is fatal for the run; the caller aborts
// before any extraction happens.
func Load(input Input) (string, error) {
	var raw []byte
	var err error

	if input.Path == "" || input.Path == "-" {
		if input.Stdin == nil {
			return "", nil
		}
		raw, err = io.ReadAll(input.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
	} else {
		raw, err = os.ReadFile(input.Path)
		if err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}
	}

	if utf8.Valid(raw) {
		return string(raw), nil
	}

	decoded, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), raw)
	if err != nil {
		return "", fmt.Errorf("decode windows-1252: %w", err)
	}
	return string(decoded), nil
}
