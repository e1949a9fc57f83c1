// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dailymind/dailymind-tui/internal/model"
	"github.com/dailymind/dailymind-tui/internal/util"
)

// Export formats understood by Export.
const (
	FormatMarkdown = "md"
	FormatJSON     = "json"
)

// Export renders conv in format ("md" or "json").
func Export(conv *model.Conversation, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "", FormatMarkdown, "markdown":
		return []byte(ExportMarkdown(conv)), nil
	case FormatJSON:
		return json.MarshalIndent(conv, "", "  ")
	default:
		return nil, fmt.Errorf("unknown export format %q (want md or json)", format)
	}
}

// ExportMarkdown renders the conversation with role labels and timestamps.
// Upgrade affordances are omitted.
func ExportMarkdown(conv *model.Conversation) string {
	var sb strings.Builder
	sb.WriteString("# " + conv.GetTitle() + "\n\n")
	sb.WriteString("Created: " + conv.CreatedAt.Format(time.RFC3339) + "\n")
	if conv.Personality != "" {
		sb.WriteString("Personality: " + conv.Personality + "\n")
	}
	sb.WriteString("\n---\n\n")

	for _, e := range conv.Entries {
		switch e.Kind {
		case model.KindUpgrade:
			continue
		case model.KindNotice:
			sb.WriteString("> " + e.Text + "\n\n")
			continue
		}
		sb.WriteString("**" + e.Role.DisplayName() + "** (" + e.Timestamp.Format("15:04") + "):\n\n")
		sb.WriteString(e.Text)
		sb.WriteString("\n\n---\n\n")
	}
	return sb.String()
}

// FormatList renders conversation metadata as a fixed-width table.
func FormatList(metas []model.ConversationMeta) string {
	if len(metas) == 0 {
		return "No saved conversations."
	}

	var sb strings.Builder
	sb.WriteString(pad("#", 4) + pad("ID", 10) + pad("Updated", 18) + pad("Msgs", 6) + "Title\n")
	sb.WriteString(strings.Repeat("-", 72) + "\n")
	for i, m := range metas {
		sb.WriteString(pad(fmt.Sprintf("%d", i+1), 4))
		sb.WriteString(pad(m.ID[:8], 10))
		sb.WriteString(pad(m.UpdatedAt.Format("2006-01-02 15:04"), 18))
		sb.WriteString(pad(fmt.Sprintf("%d", m.MessageCount), 6))
		sb.WriteString(util.TruncateWidth(m.Title, 34))
		sb.WriteString("\n")
	}
	return sb.String()
}

// pad right-pads s to width terminal cells.
func pad(s string, width int) string {
	s = util.TruncateWidth(s, width-1)
	return s + strings.Repeat(" ", width-util.StringWidth(s))
}
