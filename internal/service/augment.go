package service

import (
	"context"
	"log/slog"

	"github.com/velumlaw/counsel/internal/domain/chat"
	"github.com/velumlaw/counsel/internal/port/blob"
	"github.com/velumlaw/counsel/internal/port/llm"
)

// attachmentPrefix is the explicit marker prepended to the final user
// message when attached documents are injected.
var attachmentPrefix = map[string]string{
	langPL: "Załączone dokumenty sprawy:",
	langEN: "Attached case documents:",
}

// DocumentAugmentor fetches attached case documents and injects their binary
// content as leading multimodal parts of the final user turn.
type DocumentAugmentor struct {
	blobs blob.Store
}

// NewDocumentAugmentor creates a DocumentAugmentor. blobs may be nil, which
// disables augmentation.
func NewDocumentAugmentor(blobs blob.Store) *DocumentAugmentor {
	return &DocumentAugmentor{blobs: blobs}
}

// Augment injects the turn's attachments into messages and reports whether
// any document was injected. A fetch failure for one attachment skips that
// attachment and continues; a degraded blob store never aborts the turn.
func (a *DocumentAugmentor) Augment(ctx context.Context, messages []llm.Message, attachments []chat.Attachment, lang string) ([]llm.Message, bool) {
	if a.blobs == nil || len(attachments) == 0 || len(messages) == 0 {
		return messages, false
	}

	last := len(messages) - 1
	if messages[last].Role != llm.RoleUser {
		return messages, false
	}

	var parts []llm.Part
	for _, att := range attachments {
		data, err := a.blobs.Download(ctx, att.Path)
		if err != nil {
			slog.Warn("attachment fetch failed, skipping",
				"path", att.Path, "name", att.Name, "error", err)
			continue
		}
		mime := att.MIMEType
		if mime == "" {
			mime = "application/octet-stream"
		}
		parts = append(parts, llm.Part{Blob: &llm.Blob{MIMEType: mime, Data: data}})
	}
	if len(parts) == 0 {
		return messages, false
	}

	lang = normalizeLanguage(lang)
	final := llm.Message{Role: llm.RoleUser}
	final.Parts = append(final.Parts, parts...)
	final.Parts = append(final.Parts, llm.Part{Text: attachmentPrefix[lang] + "\n\n" + messages[last].Text()})

	out := make([]llm.Message, last, last+1)
	copy(out, messages[:last])
	return append(out, final), true
}
