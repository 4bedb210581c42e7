// Package idgen provides short, URL-safe unique ID generation backed by nanoid.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// RoutePrefix is prepended to every computed route ID.
const RoutePrefix = "rt-"

// Alphabet defines the character set used for the random portion of the ID.
var Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Length is the number of random characters generated (excluding the prefix).
var Length = 10

// TokenLength is the length of lock ownership tokens.
const TokenLength = 21

// NewRouteID returns a new route ID such as "rt-V1StGXR8Z5".
func NewRouteID() (string, error) {
	return GenerateWithPrefix(RoutePrefix)
}

// GenerateWithPrefix returns a new unique ID with the given prefix.
func GenerateWithPrefix(prefix string) (string, error) {
	id, err := nanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return prefix + id, nil
}

// NewToken returns an opaque random token that identifies a lock holder.
func NewToken() (string, error) {
	tok, err := nanoid.New(TokenLength)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return tok, nil
}
