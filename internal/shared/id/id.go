// Package id provides centralized ID generation for the pipeline.
//
// Purchase events need locally generated, unique, monotonic identifiers so
// the ledger can dedupe resubmissions; ULIDs give lexicographic
// sortability and collision-free generation without coordination. Prefixes
// keep logs readable (pur_*, page_*, req_*).
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// PurchaseID identifies a locally recorded purchase event
type PurchaseID string

// PageID identifies a page context connected to the router
type PageID string

// RequestID identifies a router request
type RequestID string

const (
	PurchasePrefix = "pur"
	PagePrefix     = "page"
	RequestPrefix  = "req"
)

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a new ULID generator with secure entropy
func NewGenerator() *Generator {
	return &Generator{entropy: rand.Reader}
}

// NewGeneratorWithEntropy creates a generator with custom entropy source.
// Useful for testing with deterministic entropy.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateString creates a new ULID as a string
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

// NewPurchaseID generates a new purchase event ID
func NewPurchaseID() PurchaseID {
	return PurchaseID(Default().GenerateWithPrefix(PurchasePrefix))
}

// NewPageID generates a new page context ID
func NewPageID() PageID {
	return PageID(Default().GenerateWithPrefix(PagePrefix))
}

// NewRequestID generates a new request ID
func NewRequestID() RequestID {
	return RequestID(Default().GenerateWithPrefix(RequestPrefix))
}

func (id PurchaseID) String() string { return string(id) }
func (id PageID) String() string     { return string(id) }
func (id RequestID) String() string  { return string(id) }

// IsValid checks if an ID string is a valid ULID
func IsValid(id string) bool {
	_, err := ulid.Parse(id)
	return err == nil
}

// Timestamp extracts the creation time from an unprefixed ULID string
func Timestamp(id string) (time.Time, error) {
	parsed, err := ulid.Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
