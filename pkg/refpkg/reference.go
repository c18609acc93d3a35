// Package refpkg generates external identifiers: transaction reference numbers and account numbers.
package refpkg

import (
	"time"

	"github.com/fraol163/Banking-Managment-System-sub001/pkg/randompkg"
)

const (
	referencePrefix     = "TXN"
	referenceTimeLayout = "20060102150405"
	referenceSuffixLen  = 6

	// AccountNumberLen is the length of an external account number.
	AccountNumberLen = 10
)

// Generator produces collision-resistant reference numbers.
type Generator struct {
	now func() time.Time
}

// NewGenerator returns reference Generator using the wall clock.
func NewGenerator() *Generator {
	return &Generator{now: time.Now}
}

// Reference returns a new transaction reference number, e.g. TXN20261019143005K3J9QZ.
func (g *Generator) Reference() string {
	return referencePrefix + g.now().UTC().Format(referenceTimeLayout) + randompkg.UpperAlnum(referenceSuffixLen)
}

// AccountNumber returns a new external account number. The first digit is never zero.
func (g *Generator) AccountNumber() string {
	first := randompkg.IntBetween(1, 9)
	return string(rune('0'+first)) + randompkg.Digits(AccountNumberLen-1)
}

// ValidAccountNumber reports whether number is well formed.
func ValidAccountNumber(number string) bool {
	if len(number) != AccountNumberLen {
		return false
	}

	for _, c := range number {
		if c < '0' || c > '9' {
			return false
		}
	}

	return number[0] != '0'
}
