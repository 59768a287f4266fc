package service

import (
	"context"
	"errors"
	"testing"

	"github.com/velumlaw/counsel/internal/domain/chat"
	"github.com/velumlaw/counsel/internal/port/llm"
)

// stubBlobs serves fixed content per path; missing paths fail.
type stubBlobs struct {
	files map[string][]byte
}

func (s *stubBlobs) Download(_ context.Context, path string) ([]byte, error) {
	data, ok := s.files[path]
	if !ok {
		return nil, errors.New("object not found")
	}
	return data, nil
}

func TestAugment_InjectsLeadingBlobParts(t *testing.T) {
	a := NewDocumentAugmentor(&stubBlobs{files: map[string][]byte{
		"cases/1/umowa.pdf": []byte("pdf-bytes"),
	}})
	msgs := []llm.Message{llm.TextMessage(llm.RoleUser, "przeanalizuj umowę")}
	atts := []chat.Attachment{{Name: "umowa.pdf", Path: "cases/1/umowa.pdf", MIMEType: "application/pdf"}}

	out, injected := a.Augment(context.Background(), msgs, atts, "pl")
	if !injected {
		t.Fatal("expected injection")
	}
	final := out[len(out)-1]
	if final.Parts[0].Blob == nil || final.Parts[0].Blob.MIMEType != "application/pdf" {
		t.Fatalf("expected leading blob part, got %+v", final.Parts[0])
	}
	text := final.Parts[len(final.Parts)-1].Text
	if text == "" || text == "przeanalizuj umowę" {
		t.Fatalf("expected attachment marker prefix, got %q", text)
	}
}

func TestAugment_SkipsFailedAttachment(t *testing.T) {
	a := NewDocumentAugmentor(&stubBlobs{files: map[string][]byte{
		"ok.pdf": []byte("x"),
	}})
	msgs := []llm.Message{llm.TextMessage(llm.RoleUser, "q")}
	atts := []chat.Attachment{
		{Name: "missing.pdf", Path: "missing.pdf"},
		{Name: "ok.pdf", Path: "ok.pdf", MIMEType: "application/pdf"},
	}

	out, injected := a.Augment(context.Background(), msgs, atts, "en")
	if !injected {
		t.Fatal("one good attachment must still inject")
	}
	final := out[len(out)-1]
	blobs := 0
	for _, p := range final.Parts {
		if p.Blob != nil {
			blobs++
		}
	}
	if blobs != 1 {
		t.Fatalf("expected exactly 1 blob part, got %d", blobs)
	}
}

func TestAugment_AllFailedMeansNoInjection(t *testing.T) {
	a := NewDocumentAugmentor(&stubBlobs{})
	msgs := []llm.Message{llm.TextMessage(llm.RoleUser, "q")}
	atts := []chat.Attachment{{Name: "a", Path: "a"}}

	out, injected := a.Augment(context.Background(), msgs, atts, "pl")
	if injected {
		t.Fatal("no attachment fetched, nothing to inject")
	}
	if out[0].Text() != "q" {
		t.Fatalf("messages must be unchanged, got %+v", out)
	}
}

func TestAugment_NoAttachments(t *testing.T) {
	a := NewDocumentAugmentor(&stubBlobs{})
	msgs := []llm.Message{llm.TextMessage(llm.RoleUser, "q")}
	out, injected := a.Augment(context.Background(), msgs, nil, "pl")
	if injected || len(out) != 1 {
		t.Fatalf("expected passthrough, got injected=%v len=%d", injected, len(out))
	}
}
