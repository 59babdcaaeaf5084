package agent

import (
	"fmt"
	"os"
	"strings"
)

const (
	// maxPreviewSourceBytes bounds which attachments get inlined previews.
	maxPreviewSourceBytes = 200_000

	// previewLimit caps the preview excerpt handed to a backend prompt.
	previewLimit = 2000
)

// BuildAttachmentContext renders a prompt fragment describing the run's
// attachments for a model backend. Small on-disk text attachments get an
// inlined content preview; everything else is listed by name, type, and
// size. Returns "" when there are no attachments.
func BuildAttachmentContext(attachments []AttachmentMeta) string {
	if len(attachments) == 0 {
		return ""
	}

	parts := make([]string, 0, len(attachments))
	for _, att := range attachments {
		declared := att.Type
		if declared == "" {
			declared = "unknown"
		}
		meta := fmt.Sprintf("- %s (%s, %d bytes)", att.Name, declared, att.Size)

		if att.Path != "" && strings.HasPrefix(att.Type, "text") && att.Size < maxPreviewSourceBytes {
			content, err := os.ReadFile(att.Path)
			if err == nil {
				preview := string(content)
				if len(preview) > previewLimit {
					preview = preview[:previewLimit]
				}
				parts = append(parts, fmt.Sprintf("%s\n  Preview:\n%s", meta, preview))
				continue
			}
		}

		parts = append(parts, meta)
	}

	return "You have access to these attachments:\n" + strings.Join(parts, "\n")
}
