package testutil

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// NameGenerator produces account names.
type NameGenerator interface {
	Generate() string
}

const (
	nameLetters = "abcdefghijklmnopqrstuvwxyz"
	nameChars   = nameLetters + "12345"
	// nameLength is the longest name whose every character is free.
	nameLength = 12
)

// RandomNames generates random 12 character account names from UUIDv4
// bytes. The first character is always a letter.
//
// Thread-safety: RandomNames is stateless and safe for concurrent use.
type RandomNames struct{}

// Generate returns a new random name.
func (RandomNames) Generate() string {
	id := uuid.New()
	out := make([]byte, nameLength)
	out[0] = nameLetters[int(id[0])%len(nameLetters)]
	for i := 1; i < nameLength; i++ {
		out[i] = nameChars[int(id[i])%len(nameChars)]
	}
	return string(out)
}

// SequentialNames generates prefix1, prefix2, ... prefix5, prefix11, ...
// using only the digits valid in account names. Used where names must be
// the same on every run.
//
// Thread-safety: SequentialNames is safe for concurrent use via internal
// mutex.
type SequentialNames struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialNames creates a generator for prefix. Panics if prefix
// leaves no room for a suffix.
func NewSequentialNames(prefix string) *SequentialNames {
	if len(prefix) >= nameLength {
		panic(fmt.Sprintf("SequentialNames: prefix %q too long", prefix))
	}
	return &SequentialNames{prefix: prefix}
}

// Generate returns the next name in the sequence.
//
// Panics once the suffix would push the name past 12 characters.
func (g *SequentialNames) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.n++
	suffix := base5(g.n)
	if len(g.prefix)+len(suffix) > nameLength {
		panic("SequentialNames: all names exhausted")
	}
	return g.prefix + suffix
}

// base5 writes n in bijective base 5 with digits 1-5.
func base5(n int) string {
	var out []byte
	for n > 0 {
		n--
		out = append([]byte{byte('1' + n%5)}, out...)
		n /= 5
	}
	return string(out)
}

// FixedNames returns predetermined names in order.
//
// Thread-safety: FixedNames is safe for concurrent use via internal mutex.
type FixedNames struct {
	mu    sync.Mutex
	names []string
	idx   int
}

// NewFixedNames creates a generator that returns names in order.
func NewFixedNames(names ...string) *FixedNames {
	return &FixedNames{names: names}
}

// Generate returns the next predetermined name.
//
// Panics if all names have been consumed, which means a test created more
// accounts than it declared.
func (g *FixedNames) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.names) {
		panic("FixedNames: all names exhausted")
	}
	name := g.names[g.idx]
	g.idx++
	return name
}
