// Package common holds small helpers shared by the client packages.
package common

// WipeByteArray overwrites b with zeros. Use it for passwords read from
// the terminal once they have been handed on.
func WipeByteArray(b []byte) {
	clear(b)
}
