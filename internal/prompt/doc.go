// Package prompt reads operator input from the terminal.
//
// The crawler is interactive at exactly one point: the operator reads
// the CAPTCHA image in the browser window and types the code. This
// package provides that single line-oriented exchange.
package prompt
