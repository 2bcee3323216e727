// Copyright (c) 2025-2026 Lumen Learning Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package pagectx

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeaderEncodingRoundTrips(t *testing.T) {
	pc := PageContext{
		URL:   "https://lumen.education/algebra intro?unit=2",
		Title: "Algebra – Fraktionen & Brüche",
	}

	decodedURL, err := url.PathUnescape(pc.HeaderURL())
	require.NoError(t, err)
	require.Equal(t, pc.URL, decodedURL)

	decodedTitle, err := url.PathUnescape(pc.HeaderTitle())
	require.NoError(t, err)
	require.Equal(t, pc.Title, decodedTitle)

	// Header values stay ASCII.
	for _, c := range pc.HeaderTitle() {
		require.Less(t, c, rune(128))
	}
}

func TestHeaderHeadingsSurvivesEmbeddedCommas(t *testing.T) {
	pc := PageContext{Headings: []string{"Sums, differences", "Products"}}

	parts := strings.Split(pc.HeaderHeadings(), ",")
	require.Len(t, parts, 2)

	first, err := url.PathUnescape(parts[0])
	require.NoError(t, err)
	require.Equal(t, "Sums, differences", first)
}

func TestExtractorSnapshotIsFreshPerCall(t *testing.T) {
	doc := NewMaterial("https://lumen.education/a", "A", []string{"One"})
	ex := NewExtractor(doc)

	before := ex.Snapshot()
	doc.mu.Lock()
	doc.title = "B"
	doc.mu.Unlock()
	after := ex.Snapshot()

	require.Equal(t, "A", before.Title)
	require.Equal(t, "B", after.Title)
}

func TestExtractorNilDocument(t *testing.T) {
	ex := NewExtractor(nil)
	require.Equal(t, PageContext{}, ex.Snapshot())
	require.Equal(t, "", ex.Selection())
}

func TestMaterialSelectionLifecycle(t *testing.T) {
	doc := NewMaterial("u", "t", nil)
	ex := NewExtractor(doc)

	doc.SetSelection("a fraction is...")
	require.Equal(t, "a fraction is...", ex.Selection())

	doc.ClearSelection()
	require.Equal(t, "", ex.Selection())
}

func TestSnapshotCopiesHeadings(t *testing.T) {
	doc := NewMaterial("u", "t", []string{"One", "Two"})
	snap := NewExtractor(doc).Snapshot()

	snap.Headings[0] = "mutated"
	require.Equal(t, "One", doc.Headings()[0])
}
