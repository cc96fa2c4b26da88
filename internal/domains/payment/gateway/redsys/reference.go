package redsys

import (
	"strconv"
	"strings"
	"time"
)

const (
	// OrderReferenceLength is the fixed length of DS_MERCHANT_ORDER.
	OrderReferenceLength = 12
	orderReferencePrefix = '3'
	timestampDigits      = 6
)

// NewOrderReference derives the 12-digit gateway order reference for an
// internal order id.
//
// Algorithm:
//  1. last 6 digits of now in epoch milliseconds
//  2. + every digit of internalOrderID (non-digits dropped)
//  3. prefix '3' unless the result already starts with it
//  4. right-pad with '0' or truncate to 12 characters
//
// The result is not guaranteed unique. Two calls within the same
// millisecond for ids sharing their digits collide, and the mapping table
// rejects the second one.
func NewOrderReference(internalOrderID string, now time.Time) string {
	millis := strconv.FormatInt(now.UnixMilli(), 10)
	if len(millis) > timestampDigits {
		millis = millis[len(millis)-timestampDigits:]
	} else {
		millis = strings.Repeat("0", timestampDigits-len(millis)) + millis
	}

	var b strings.Builder
	b.Grow(OrderReferenceLength + len(internalOrderID))
	b.WriteString(millis)
	for _, r := range internalOrderID {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	ref := b.String()
	if ref[0] != orderReferencePrefix {
		ref = string(orderReferencePrefix) + ref
	}

	if len(ref) < OrderReferenceLength {
		return ref + strings.Repeat("0", OrderReferenceLength-len(ref))
	}
	return ref[:OrderReferenceLength]
}

// IsValidOrderReference reports whether s has the shape produced by
// NewOrderReference.
func IsValidOrderReference(s string) bool {
	if len(s) != OrderReferenceLength || s[0] != orderReferencePrefix {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ReferenceGenerator binds the codec to a clock.
type ReferenceGenerator struct {
	now func() time.Time
}

// NewReferenceGenerator returns a generator reading the given clock.
// A nil clock falls back to time.Now.
func NewReferenceGenerator(now func() time.Time) *ReferenceGenerator {
	if now == nil {
		now = time.Now
	}
	return &ReferenceGenerator{now: now}
}

func (g *ReferenceGenerator) Generate(internalOrderID string) string {
	return NewOrderReference(internalOrderID, g.now())
}
