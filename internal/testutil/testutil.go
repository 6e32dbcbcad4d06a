// this code is adapted from https://github.com/ryogrid/SamehadaDB
// there is license and copyright notice in licenses/samehadadb dir

// Package testutil supplies the small set of assertion helpers the buffer
// pool, replacer and extendible hash tests share, in place of a matcher
// library. reflect.DeepEqual is enough for the plain value and byte-array
// comparisons these tests make.
package testutil

import (
	"reflect"
	"testing"
)

// Equals fails the test if got and want are not deeply equal.
func Equals(tb testing.TB, want, got interface{}) {
	tb.Helper()
	if !reflect.DeepEqual(want, got) {
		tb.Fatalf("want: %#v\ngot:  %#v", want, got)
	}
}

// Ok fails the test if err is non-nil.
func Ok(tb testing.TB, err error) {
	tb.Helper()
	if err != nil {
		tb.Fatalf("unexpected error: %v", err)
	}
}

// Nok fails the test if err is nil.
func Nok(tb testing.TB, err error) {
	tb.Helper()
	if err == nil {
		tb.Fatalf("expected an error, got nil")
	}
}

// True fails the test if cond is false.
func True(tb testing.TB, cond bool, msg string) {
	tb.Helper()
	if !cond {
		tb.Fatalf("%s", msg)
	}
}
