// Package util holds small text helpers shared by the dashboard and the CLI.
package util

import (
	"fmt"
	"strings"
)

// Pluralize returns singular if count is 1, otherwise plural.
func Pluralize(count int, singular, plural string) string {
	if count == 1 {
		return singular
	}
	return plural
}

// Count formats count with a regular noun: "1 device", "3 devices".
func Count(count int, noun string) string {
	return fmt.Sprintf("%d %s", count, Pluralize(count, noun, noun+"s"))
}

// JoinOrDefault joins items with ", " or returns def for an empty slice.
func JoinOrDefault(items []string, def string) string {
	if len(items) == 0 {
		return def
	}
	return strings.Join(items, ", ")
}
