// Package sink persists accumulated crawl records.
//
// Every sink implements the crawler's Flush contract: each call carries
// the full growing record sequences, so a flush fully rewrites its
// outputs. Repeating a flush is harmless, and the files on disk always
// reflect the most recent checkpoint.
package sink
