// Package library manages the local archive of Age of Empires II audio
// clips: category listing, uniform random selection, lookups, and the
// first-run download + extraction of the bundled archives.
//
// All clips live flat in a single directory. Categories are filename
// conventions carried over from the extracted game assets:
//
//   - taunts: padded number + space + name, e.g. "11 laugh.mp3"
//   - civilizations: capitalized name, e.g. "Britons.mp3"
//   - in-game sounds: lowercase name, e.g. "monk1.wav"
package library

import (
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"sort"
	"strings"
)

// Category identifies one group of audio clips.
type Category string

const (
	Taunts        Category = "taunts"
	Civilizations Category = "civilizations"
	Sounds        Category = "sounds"
)

// Glob patterns per category, matched against file names in the audio
// directory. Same conventions as the extracted assets.
var patterns = map[Category]string{
	Taunts:        "[0-9][0-9] *.mp3",
	Civilizations: "[A-Z][a-z]*.mp3",
	Sounds:        "*.wav",
}

var (
	// ErrNoFiles means a category has no files on disk (corrupted or
	// missing install).
	ErrNoFiles = errors.New("library: no audio files in category")

	// ErrNotFound means a specific taunt number or civilization name has
	// no matching file.
	ErrNotFound = errors.New("library: no such clip")
)

// Library reads audio clips from a single flat directory.
type Library struct {
	dir string
}

// New returns a Library over the given audio directory. The directory does
// not need to exist yet; Ensure populates it on first run.
func New(dir string) *Library {
	return &Library{dir: dir}
}

// Dir returns the audio directory path.
func (l *Library) Dir() string {
	return l.dir
}

// Files returns the paths of all files in the category, unsorted.
func (l *Library) Files(cat Category) ([]string, error) {
	pattern, ok := patterns[cat]
	if !ok {
		return nil, fmt.Errorf("library: unknown category %q", cat)
	}
	matches, err := filepath.Glob(filepath.Join(l.dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("library: globbing %s: %w", cat, err)
	}
	return matches, nil
}

// List returns the sorted stems (file names without extension) of all
// clips in the category.
func (l *Library) List(cat Category) ([]string, error) {
	files, err := l.Files(cat)
	if err != nil {
		return nil, err
	}
	stems := make([]string, 0, len(files))
	for _, f := range files {
		stems = append(stems, stem(f))
	}
	sort.Strings(stems)
	return stems, nil
}

// Random returns the path of a uniformly chosen clip from the category.
// Returns ErrNoFiles when the category is empty.
func (l *Library) Random(cat Category) (string, error) {
	files, err := l.Files(cat)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNoFiles, cat)
	}
	return files[rand.Intn(len(files))], nil
}

// TauntByNumber returns the taunt whose file name starts with the
// zero-padded number, e.g. 11 -> "11 laugh.mp3".
func (l *Library) TauntByNumber(n int) (string, error) {
	if n < 0 || n > 99 {
		return "", fmt.Errorf("%w: taunt %d", ErrNotFound, n)
	}
	matches, err := filepath.Glob(filepath.Join(l.dir, fmt.Sprintf("%02d *.mp3", n)))
	if err != nil {
		return "", fmt.Errorf("library: globbing taunt %d: %w", n, err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%w: taunt %d", ErrNotFound, n)
	}
	return matches[0], nil
}

// CivilizationByName returns the civilization clip matching the name,
// case-insensitively, e.g. "britons" -> "Britons.mp3".
func (l *Library) CivilizationByName(name string) (string, error) {
	files, err := l.Files(Civilizations)
	if err != nil {
		return "", err
	}
	for _, f := range files {
		if strings.EqualFold(stem(f), name) {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: civilization %s", ErrNotFound, name)
}

// Counts returns the number of clips per category.
func (l *Library) Counts() map[Category]int {
	counts := make(map[Category]int, len(patterns))
	for cat := range patterns {
		files, err := l.Files(cat)
		if err != nil {
			continue
		}
		counts[cat] = len(files)
	}
	return counts
}

// Stem returns the file name without directory or extension.
func Stem(path string) string {
	return stem(path)
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
