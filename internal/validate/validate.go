// Package validate implements the syntactic checks required for
// usernames, passwords, answer options, and the LIST_ROOMS filter
// keyword. It follows the shape of a validators package (small pure
// functions returning sentinel errors) but with this system's own
// bounds.
package validate

import "errors"

var (
	ErrInvalidUsername = errors.New("username must be 3-20 chars, alphanumeric or underscore")
	ErrWeakPassword     = errors.New("password must be at least 8 chars with upper, lower, and digit")
	ErrInvalidOption    = errors.New("answer option must be A, B, C, or D")
	ErrInvalidFilter    = errors.New("filter must be ALL, NOT_STARTED, IN_PROGRESS, or FINISHED")
)

// Username reports whether u is 3-20 chars of [A-Za-z0-9_].
func Username(u string) error {
	if len(u) < 3 || len(u) > 20 {
		return ErrInvalidUsername
	}
	for _, c := range []byte(u) {
		if !isAlnumOrUnderscore(c) {
			return ErrInvalidUsername
		}
	}
	return nil
}

func isAlnumOrUnderscore(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z':
		return true
	case c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return true
	case c == '_':
		return true
	default:
		return false
	}
}

// Password reports whether p is at least 8 chars and contains at least
// one uppercase letter, one lowercase letter, and one digit.
func Password(p string) error {
	if len(p) < 8 {
		return ErrWeakPassword
	}
	var hasUpper, hasLower, hasDigit bool
	for _, c := range []byte(p) {
		switch {
		case c >= 'A' && c <= 'Z':
			hasUpper = true
		case c >= 'a' && c <= 'z':
			hasLower = true
		case c >= '0' && c <= '9':
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return ErrWeakPassword
	}
	return nil
}

// Option normalizes a single-character answer option to uppercase and
// validates it is one of A, B, C, D.
func Option(opt string) (string, error) {
	if len(opt) != 1 {
		return "", ErrInvalidOption
	}
	c := opt[0]
	if c >= 'a' && c <= 'd' {
		c -= 'a' - 'A'
	}
	if c < 'A' || c > 'D' {
		return "", ErrInvalidOption
	}
	return string(c), nil
}

// Filter validates a LIST_ROOMS filter keyword; "" is accepted as ALL.
func Filter(keyword string) error {
	switch keyword {
	case "", "ALL", "NOT_STARTED", "IN_PROGRESS", "FINISHED":
		return nil
	default:
		return ErrInvalidFilter
	}
}
