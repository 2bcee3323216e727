// Copyright (c) 2025-2026 Lumen Learning Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package pagectx

import (
	"net/url"
	"strings"
	"sync"
)

// =============================================================================
// PAGE CONTEXT
// =============================================================================

// PageContext is a point-in-time snapshot of the material being studied.
type PageContext struct {
	URL      string   `json:"url"`
	Title    string   `json:"title"`
	Headings []string `json:"headings"`
}

// HeaderURL returns the URL percent-encoded for header transport.
func (c PageContext) HeaderURL() string {
	return url.PathEscape(c.URL)
}

// HeaderTitle returns the title percent-encoded for header transport.
func (c PageContext) HeaderTitle() string {
	return url.PathEscape(c.Title)
}

// HeaderHeadings returns the headings individually percent-encoded and
// comma-joined, so the separator survives headings that themselves
// contain commas.
func (c PageContext) HeaderHeadings() string {
	parts := make([]string, 0, len(c.Headings))
	for _, h := range c.Headings {
		parts = append(parts, url.PathEscape(h))
	}
	return strings.Join(parts, ",")
}

// =============================================================================
// DOCUMENT SOURCE
// =============================================================================

// Document is the read-only view of the current study material.
type Document interface {
	URL() string
	Title() string
	Headings() []string

	// Selection returns the learner's current text selection, empty if
	// none.
	Selection() string
}

// Extractor reads the current document state. Pure read at call time; no
// caching - always fresh per call.
type Extractor struct {
	doc Document
}

// NewExtractor creates an extractor over the given document.
func NewExtractor(doc Document) *Extractor {
	return &Extractor{doc: doc}
}

// Snapshot captures the document state at call time.
func (e *Extractor) Snapshot() PageContext {
	if e.doc == nil {
		return PageContext{}
	}
	headings := e.doc.Headings()
	cp := make([]string, len(headings))
	copy(cp, headings)
	return PageContext{
		URL:      e.doc.URL(),
		Title:    e.doc.Title(),
		Headings: cp,
	}
}

// Selection returns the current text selection.
func (e *Extractor) Selection() string {
	if e.doc == nil {
		return ""
	}
	return e.doc.Selection()
}

// =============================================================================
// MATERIAL DOCUMENT
// =============================================================================

// Material is a Document describing study material handed to the client
// at startup, with a mutable selection slot driven by the UI.
type Material struct {
	mu        sync.Mutex
	url       string
	title     string
	headings  []string
	selection string
}

// NewMaterial creates a document for the given material.
func NewMaterial(rawURL, title string, headings []string) *Material {
	cp := make([]string, len(headings))
	copy(cp, headings)
	return &Material{url: rawURL, title: title, headings: cp}
}

// URL returns the material URL.
func (m *Material) URL() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.url
}

// Title returns the material title.
func (m *Material) Title() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.title
}

// Headings returns the material's section headings.
func (m *Material) Headings() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]string, len(m.headings))
	copy(cp, m.headings)
	return cp
}

// Selection returns the current selection.
func (m *Material) Selection() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selection
}

// SetSelection records the learner's selection.
func (m *Material) SetSelection(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selection = text
}

// ClearSelection drops the transient selection. Called when an exchange
// reaches a terminal state.
func (m *Material) ClearSelection() {
	m.SetSelection("")
}
