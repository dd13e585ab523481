package inject

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/atotto/clipboard"
	"github.com/micmonay/keybd_event"

	"github.com/Ester-D-Kate/Audio-Flow/internal/ports"
)

// PasteInjector delivers text into whatever currently has OS input
// focus: the text is staged on the clipboard and a paste chord is
// synthesized. Injection is fire-and-forget; callers must not retry on
// failure since a partial paste would duplicate output.
type PasteInjector struct {
	clipboard  ports.Clipboard
	pasteDelay time.Duration
	pressPaste func() error
}

func NewPasteInjector(clip ports.Clipboard) *PasteInjector {
	return &PasteInjector{
		clipboard:  clip,
		pasteDelay: 150 * time.Millisecond,
		pressPaste: pressPasteChord,
	}
}

func (i *PasteInjector) Type(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}
	if err := i.clipboard.SetText(ctx, text); err != nil {
		return fmt.Errorf("failed to stage text on clipboard: %w", err)
	}

	// Give the focus target a moment to settle after the hotkey chord
	// that triggered the send was released.
	select {
	case <-time.After(i.pasteDelay):
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := i.pressPaste(); err != nil {
		return fmt.Errorf("failed to synthesize paste: %w", err)
	}
	return nil
}

func pressPasteChord() error {
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return err
	}
	if runtime.GOOS == "linux" {
		// uinput needs time to register the virtual keyboard.
		time.Sleep(2 * time.Second)
	}

	kb.SetKeys(keybd_event.VK_V)
	if runtime.GOOS == "darwin" {
		kb.HasSuper(true)
	} else {
		kb.HasCTRL(true)
	}
	return kb.Launching()
}

// SystemClipboard writes through the OS clipboard.
type SystemClipboard struct{}

func (SystemClipboard) SetText(_ context.Context, text string) error {
	return clipboard.WriteAll(text)
}
