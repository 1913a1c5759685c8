package listing

import (
	"fmt"
	"os"
)

// PlaceholderDescription is submitted when no description text is available.
const PlaceholderDescription = "Placeholder description."

// Source supplies the listing description text.
type Source interface {
	// Text returns the current description. ok is false when no text is
	// available and the placeholder should be used.
	Text() (text string, ok bool, err error)
}

// FileSource reads the description from a file on every call, so edits take
// effect on the next cycle without a restart.
type FileSource struct {
	Path string
}

// Text reads the file. A missing file is not an error.
func (s FileSource) Text() (string, bool, error) {
	if s.Path == "" {
		return "", false, nil
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read description file: %w", err)
	}
	return string(data), true, nil
}

// StaticSource always returns the same text.
type StaticSource string

// Text returns the static text.
func (s StaticSource) Text() (string, bool, error) {
	return string(s), true, nil
}

// Mutate derives the description submitted on a cycle: odd cycles append a
// '.', even cycles drop the last character. Applying cycle 2k+1 then 2k+2
// returns the original string.
func Mutate(description string, cycle int) string {
	if cycle%2 == 1 {
		return description + "."
	}
	runes := []rune(description)
	if len(runes) == 0 {
		return description
	}
	return string(runes[:len(runes)-1])
}

// describer tracks the last submitted description so consecutive cycles
// alternate between base+"." and base while the source is unchanged.
type describer struct {
	source Source
	base   string
	last   string
	primed bool
}

// next returns the description for cycle, reading the source first.
func (d *describer) next(cycle int) (string, error) {
	text, ok, err := d.source.Text()
	if err != nil {
		return "", err
	}
	if !ok {
		text = PlaceholderDescription
	}

	current := d.last
	if !d.primed || text != d.base {
		current = text
	}

	next := Mutate(current, cycle)
	d.base = text
	d.last = next
	d.primed = true
	return next, nil
}
