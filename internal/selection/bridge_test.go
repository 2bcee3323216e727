// Copyright (c) 2025-2026 Lumen Learning Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package selection

import (
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/require"
)

func TestFromSelectionPassthrough(t *testing.T) {
	require.Equal(t, "What does this mean?", FromSelection("  What does this mean?  "))
}

func TestFromSelectionEmpty(t *testing.T) {
	require.Equal(t, "", FromSelection("   \n\t "))
}

func TestFromSelectionTruncatesByDisplayWidth(t *testing.T) {
	long := strings.Repeat("x", MaxSelectionWidth+40)
	got := FromSelection(long)

	require.LessOrEqual(t, runewidth.StringWidth(got), MaxSelectionWidth)
	require.True(t, strings.HasSuffix(got, Ellipsis))
}

func TestFromSelectionWideRunes(t *testing.T) {
	// CJK runes are two columns each; truncation counts columns, not runes.
	long := strings.Repeat("数", MaxSelectionWidth)
	got := FromSelection(long)

	require.LessOrEqual(t, runewidth.StringWidth(got), MaxSelectionWidth)
	require.Less(t, len([]rune(got)), MaxSelectionWidth)
}

func TestFromSelectionNormalizesNFC(t *testing.T) {
	// "e" + combining acute composes to the precomposed form.
	require.Equal(t, "caf\u00e9", FromSelection("cafe\u0301"))
}
