// Copyright (c) 2025-2026 Lumen Learning Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package selection

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/unicode/norm"
)

// MaxSelectionWidth is the display-width threshold above which a
// selection is truncated before prefilling the composer. Measured in
// terminal columns so CJK selections truncate at the same visual length.
const MaxSelectionWidth = 280

// Ellipsis marks a truncated selection.
const Ellipsis = "…"

// FromSelection produces the pre-filled prompt for a text selection.
// Selections pasted from documents often carry decomposed Unicode forms,
// so the text is NFC-normalized before measuring. The result is handed
// to the normal send path unchanged.
func FromSelection(text string) string {
	text = norm.NFC.String(strings.TrimSpace(text))
	if text == "" {
		return ""
	}
	if runewidth.StringWidth(text) <= MaxSelectionWidth {
		return text
	}
	return runewidth.Truncate(text, MaxSelectionWidth, Ellipsis)
}
