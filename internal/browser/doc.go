// Package browser drives a real Chrome instance as a renderable
// document session.
//
// The procurement portal renders its result table client-side and gates
// queries behind an image CAPTCHA, so plain HTTP fetching cannot crawl
// it. This package implements the session contract over the Chrome
// DevTools Protocol via chromedp: navigation, CSS-selector element
// access, synthetic clicks with new-tab detection, and history-based
// context restoration.
//
// A Browser owns exactly one tab at a time. Synthetic clicks that spawn
// a new tab switch the session's focus to it; Restore closes the tab
// and returns focus to the original document.
package browser
