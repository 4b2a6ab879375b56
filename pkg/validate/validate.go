// pkg/validate/validate.go

package validate

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/bastionsec/bastion/pkg/bastion_err"
	cerr "github.com/cockroachdb/errors"
)

// Operator-supplied strings are validated here before they reach any
// mutation or provisioning step. These are pure predicates: no I/O, no
// logging, so they can be exercised exhaustively in tests.

var identifierRe = regexp.MustCompile(`^[a-z_][a-z0-9_-]*$`)

// IsValidIdentifier accepts UNIX-style account names: first character in
// [a-z_], the rest in [a-z0-9_-]. Rejects empty strings, uppercase, and
// leading digits or hyphens.
func IsValidIdentifier(s string) bool {
	return identifierRe.MatchString(s)
}

// IsValidPort accepts decimal digit strings in the range 1..65535.
func IsValidPort(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return false
	}
	return n >= 1 && n <= 65535
}

// BatchPolicy decides what happens when a batch of inputs contains invalid
// entries among valid ones.
type BatchPolicy string

const (
	// BatchPolicySkip drops invalid entries and returns them so the caller
	// can warn per item.
	BatchPolicySkip BatchPolicy = "skip"
	// BatchPolicyStrict rejects the whole batch on the first invalid entry.
	BatchPolicyStrict BatchPolicy = "strict"
)

// FilterBatch applies pred to each entry under the given policy. Under
// skip it returns the valid entries plus the rejected ones; under strict
// it returns ErrInputInvalid naming the first offender.
func FilterBatch(entries []string, pred func(string) bool, policy BatchPolicy) (valid, rejected []string, err error) {
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if pred(e) {
			valid = append(valid, e)
			continue
		}
		if policy == BatchPolicyStrict {
			return nil, nil, cerr.Wrapf(bastion_err.ErrInputInvalid, "invalid entry %q", e)
		}
		rejected = append(rejected, e)
	}
	return valid, rejected, nil
}
