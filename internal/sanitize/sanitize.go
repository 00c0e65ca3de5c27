// Package sanitize provides HTML sanitization for content that ends up in
// generated documents and chat transcripts. Uses bluemonday to strip
// dangerous HTML (script tags, event handlers, javascript: URLs) from
// LLM-produced document markup while preserving the formatting the document
// generator is instructed to emit (headings, paragraphs, signature tables,
// inline styles).
package sanitize

import (
	"html"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// policy is the singleton bluemonday policy for generated-document HTML.
// Initialized once via sync.Once for thread-safe lazy initialization.
var (
	policy     *bluemonday.Policy
	policyOnce sync.Once
)

// getPolicy returns the shared sanitization policy, initializing it on first call.
func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.UGCPolicy()

		// Generated documents carry inline styles for print layout
		// (signature tables, margins, font sizing).
		policy.AllowAttrs("style").OnElements("span", "p", "div", "td", "th", "table", "h1", "h2", "h3")

		// Allow table elements for signature blocks and tabular clauses.
		policy.AllowElements("table", "thead", "tbody", "tfoot", "tr", "td", "th", "colgroup", "col", "caption")
		policy.AllowAttrs("colspan", "rowspan").OnElements("td", "th")

		// Class attributes are used by the chat formatter's answer markup.
		policy.AllowAttrs("class").Globally()
	})
	return policy
}

// HTML sanitizes generated HTML (LLM document output, formatted chat answers)
// by stripping dangerous elements while preserving safe formatting.
//
// This MUST be called on all model-produced HTML before it is stored in the
// database or handed to the PDF exporter. The sanitized output is safe to
// render via innerHTML on the client.
func HTML(input string) string {
	if input == "" {
		return ""
	}
	return getPolicy().Sanitize(input)
}

// Text escapes a plain-text value for literal inclusion in template HTML.
// Field values substituted into document templates pass through here so a
// value like "<b>Alice</b>" lands in the document as text, not markup.
func Text(input string) string {
	return html.EscapeString(input)
}
