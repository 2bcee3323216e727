// Copyright (c) 2025-2026 Lumen Learning Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package thread

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLES
// =============================================================================

// Role identifies the author of a message.
type Role string

const (
	// RoleUser marks a message typed by the learner.
	RoleUser Role = "user"

	// RoleAssistant marks a message produced by the tutoring assistant.
	RoleAssistant Role = "assistant"
)

// =============================================================================
// MESSAGE
// =============================================================================

// Message is a single conversation entry. Identity is the ID: user
// messages carry a client-generated temporary id until the server
// confirms the exchange, assistant messages carry the server-issued id
// (or a synthesized one when the terminal marker never arrived).
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// NewUserMessage creates a user message with a temporary client id.
func NewUserMessage(content string) Message {
	return Message{
		ID:        "tmp_" + uuid.NewString(),
		Role:      RoleUser,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// NewAssistantMessage creates an assistant message with the given id.
// An empty id is replaced with a synthesized one so an exchange never
// silently discards assistant text.
func NewAssistantMessage(id, content string) Message {
	if id == "" {
		id = "local_" + uuid.NewString()
	}
	return Message{
		ID:        id,
		Role:      RoleAssistant,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// =============================================================================
// THREAD
// =============================================================================

// Thread is the metadata of one server-side conversation, plus its
// messages when loaded.
type Thread struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updated_at"`
	Messages  []Message `json:"messages,omitempty"`
}

// TitleOrDefault returns the thread title, falling back to a preview of
// the first user message, then to a placeholder.
func (t *Thread) TitleOrDefault() string {
	if strings.TrimSpace(t.Title) != "" {
		return t.Title
	}
	for _, m := range t.Messages {
		if m.Role == RoleUser && m.Content != "" {
			return previewOf(m.Content)
		}
	}
	return "New conversation"
}

// previewOf produces a one-line, rune-safe preview of message content.
func previewOf(content string) string {
	content = strings.ReplaceAll(content, "\n", " ")
	content = strings.ReplaceAll(content, "\r", "")
	runes := []rune(content)
	if len(runes) > 50 {
		return string(runes[:47]) + "..."
	}
	return content
}
