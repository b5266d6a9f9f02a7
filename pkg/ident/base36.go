// Package ident provides base-36 identifier arithmetic for vehicle feeds:
// an injective integer-to-fixed-width encoder and shifting of existing
// alphanumeric identifiers, used to mint duplicate VINs/IDs.
package ident

import (
	"errors"
	"fmt"
	"strings"
)

const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

var (
	ErrNotBase36 = errors.New("identifier contains non base-36 characters")
	ErrOverflow  = errors.New("value does not fit requested width")
)

// Encode renders n as a fixed-width lowercase base-36 string. It is injective
// for 0 <= n < 36^width; values outside that range return ErrOverflow so a
// caller can never silently collide two sequence numbers.
func Encode(n int64, width int) (string, error) {
	if n < 0 || width <= 0 {
		return "", ErrOverflow
	}
	buf := make([]byte, width)
	for i := width - 1; i >= 0; i-- {
		buf[i] = alphabet[n%36]
		n /= 36
	}
	if n != 0 {
		return "", ErrOverflow
	}
	return string(buf), nil
}

// Decode parses a lowercase base-36 string back into an integer.
func Decode(s string) (int64, error) {
	var n int64
	for _, r := range s {
		idx := strings.IndexRune(alphabet, r)
		if idx < 0 {
			return 0, ErrNotBase36
		}
		n = n*36 + int64(idx)
	}
	return n, nil
}

// Shift treats the trailing width characters of id as a base-36 number and
// adds delta to it, preserving width and the casing of the original tail.
// Marketplace exports use it to move a whole block of VINs/IDs up without
// colliding with the source feed.
func Shift(id string, delta int64, width int) (string, error) {
	if len(id) < width || width <= 0 {
		return "", fmt.Errorf("ident: %q shorter than shift width %d", id, width)
	}
	head, tail := id[:len(id)-width], id[len(id)-width:]
	upper := tail != strings.ToLower(tail)

	n, err := Decode(strings.ToLower(tail))
	if err != nil {
		return "", err
	}
	shifted, err := Encode(n+delta, width)
	if err != nil {
		return "", err
	}
	if upper {
		shifted = strings.ToUpper(shifted)
	}
	return head + shifted, nil
}
