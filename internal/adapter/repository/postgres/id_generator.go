package postgres

import (
	"github.com/oklog/ulid/v2"
)

// ReferenceGenerator issues ledger entry references. ULIDs sort by creation
// time and fit the CHAR(26) reference column.
type ReferenceGenerator struct{}

// NewReferenceGenerator creates a new ReferenceGenerator.
func NewReferenceGenerator() *ReferenceGenerator {
	return &ReferenceGenerator{}
}

// Generate returns a new reference.
func (g *ReferenceGenerator) Generate() string {
	return ulid.Make().String()
}
