package inject

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeClipboard struct {
	lastText string
	err      error
}

func (f *fakeClipboard) SetText(_ context.Context, text string) error {
	f.lastText = text
	return f.err
}

func newTestInjector(clip *fakeClipboard, paste func() error) *PasteInjector {
	injector := NewPasteInjector(clip)
	injector.pasteDelay = time.Millisecond
	injector.pressPaste = paste
	return injector
}

func TestTypeStagesTextAndPastes(t *testing.T) {
	t.Parallel()

	clip := &fakeClipboard{}
	pasted := false
	injector := newTestInjector(clip, func() error {
		pasted = true
		return nil
	})

	if err := injector.Type(context.Background(), "hello focus"); err != nil {
		t.Fatalf("type failed: %v", err)
	}
	if clip.lastText != "hello focus" {
		t.Fatalf("clipboard did not receive text: %q", clip.lastText)
	}
	if !pasted {
		t.Fatalf("paste chord was not pressed")
	}
}

func TestTypeEmptyTextIsNoop(t *testing.T) {
	t.Parallel()

	clip := &fakeClipboard{}
	injector := newTestInjector(clip, func() error {
		t.Fatal("paste must not run for empty text")
		return nil
	})

	if err := injector.Type(context.Background(), ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clip.lastText != "" {
		t.Fatalf("clipboard must stay untouched")
	}
}

func TestTypeSurfacesClipboardFailure(t *testing.T) {
	t.Parallel()

	clip := &fakeClipboard{err: errors.New("clipboard down")}
	injector := newTestInjector(clip, func() error {
		t.Fatal("paste must not run when staging fails")
		return nil
	})

	if err := injector.Type(context.Background(), "text"); err == nil {
		t.Fatalf("expected clipboard error")
	}
}

func TestTypeSurfacesPasteFailure(t *testing.T) {
	t.Parallel()

	injector := newTestInjector(&fakeClipboard{}, func() error {
		return errors.New("no virtual keyboard")
	})

	if err := injector.Type(context.Background(), "text"); err == nil {
		t.Fatalf("expected paste error")
	}
}

func TestTypeHonorsCancelledContext(t *testing.T) {
	t.Parallel()

	injector := newTestInjector(&fakeClipboard{}, func() error {
		t.Fatal("paste must not run after cancellation")
		return nil
	})
	injector.pasteDelay = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := injector.Type(ctx, "text"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
