// Package sessiontest provides a scriptable in-memory implementation of
// session.Session for package tests.
//
// A Fake holds a set of named pages (URL to HTML) and renders one at a
// time through goquery. Tests script behavior by registering click
// handlers and navigation outcomes against CSS selectors, then assert on
// what the engine extracted. No network or browser is involved, so tests
// stay fast and deterministic.
package sessiontest
