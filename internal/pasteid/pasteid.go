// Package pasteid generates and validates paste identifiers.
//
// Identifiers are fixed-length strings over the 62 ASCII letters and digits,
// so they are usable unescaped both as a URL path segment and as a file
// name. Generation only makes collisions improbable; the storage layer is
// responsible for detecting them.
package pasteid

import (
	"fmt"
	"sync"

	nanoid "github.com/matoous/go-nanoid/v2"
	"github.com/newthinker/rbin/internal/core"
)

// Alphabet is the set of characters an identifier may contain.
const Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

const (
	// DefaultLength gives 62^6 (about 5.7e10) possible identifiers.
	DefaultLength = 6
	MinLength     = 4
	MaxLength     = 32
)

// Generator proposes candidate identifiers.
type Generator interface {
	Generate() (string, error)
}

// NanoID draws identifiers from crypto/rand. It holds no mutable state and
// is safe for concurrent use.
type NanoID struct {
	length int
}

// New creates a NanoID generator producing identifiers of the given length.
func New(length int) (*NanoID, error) {
	if length < MinLength || length > MaxLength {
		return nil, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("id length must be between %d and %d, got %d", MinLength, MaxLength, length))
	}
	return &NanoID{length: length}, nil
}

// Length returns the length of generated identifiers.
func (g *NanoID) Length() int {
	return g.length
}

func (g *NanoID) Generate() (string, error) {
	return nanoid.Generate(Alphabet, g.length)
}

// Validate reports core.ErrInvalidIdentifier unless id is exactly length
// characters drawn from Alphabet.
func Validate(id string, length int) error {
	if len(id) != length {
		return core.WrapError(core.ErrInvalidIdentifier,
			fmt.Errorf("expected %d characters, got %d", length, len(id)))
	}
	for i := 0; i < len(id); i++ {
		if !isAlphanumeric(id[i]) {
			return core.WrapError(core.ErrInvalidIdentifier,
				fmt.Errorf("unexpected character %q at offset %d", id[i], i))
		}
	}
	return nil
}

func isAlphanumeric(c byte) bool {
	return ('0' <= c && c <= '9') || ('A' <= c && c <= 'Z') || ('a' <= c && c <= 'z')
}

// Sequence returns pre-seeded identifiers in order, then falls back to its
// Next generator (if any). It is meant for forcing collisions in tests.
type Sequence struct {
	mu   sync.Mutex
	ids  []string
	Next Generator
}

// NewSequence creates a Sequence yielding ids in order.
func NewSequence(ids ...string) *Sequence {
	return &Sequence{ids: ids}
}

func (s *Sequence) Generate() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.ids) == 0 {
		if s.Next == nil {
			return "", fmt.Errorf("sequence exhausted")
		}
		return s.Next.Generate()
	}
	id := s.ids[0]
	s.ids = s.ids[1:]
	return id, nil
}

// Repeat always returns the same identifier.
type Repeat string

func (r Repeat) Generate() (string, error) {
	return string(r), nil
}
