// Package config provides configuration structures and utilities for the
// crawler. It defines the main options for searching, pagination limits,
// output destinations, and report generation preferences.
package config
