// Package textutil provides small text helpers for filename sanitization
// and display formatting.
package textutil
