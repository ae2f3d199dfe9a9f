// Package fingerprint derives stable cache identifiers from normalized
// request parameters.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
)

const sep = "|"

// coordinates are rounded to 4 decimals before hashing so float jitter
// between otherwise identical requests cannot fragment the cache.
const coordPrecision = 4

// Params is a set of named request parameters. Insertion order is
// irrelevant; absent parameters are simply not set.
type Params map[string]string

func (p Params) Set(name, value string) { p[name] = value }

func (p Params) SetInt(name string, v int) { p[name] = strconv.Itoa(v) }

func (p Params) SetBool(name string, v bool) { p[name] = strconv.FormatBool(v) }

// SetCoord stores a coordinate rounded to a fixed precision.
func (p Params) SetCoord(name string, v float64) {
	p[name] = strconv.FormatFloat(v, 'f', coordPrecision, 64)
}

// Hash returns the hex SHA-256 of the lexicographically ordered
// name:value pairs. Identical parameter sets always hash identically.
func (p Params) Hash() string {
	names := make([]string, 0, len(p))
	for k := range p {
		names = append(names, k)
	}
	sort.Strings(names)

	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteString(sep)
		}
		b.WriteString(name)
		b.WriteByte(':')
		b.WriteString(p[name])
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Key composes the storage key for one rendered format of a fingerprint,
// of the form <fingerprint>.<ext>.
func Key(fp, format string) string {
	return fp + "." + strings.ToLower(strings.TrimSpace(format))
}
