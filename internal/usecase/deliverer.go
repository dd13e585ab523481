package usecase

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/Ester-D-Kate/Audio-Flow/internal/domain"
	"github.com/Ester-D-Kate/Audio-Flow/internal/ports"
)

// textDeliverer pushes final text into the focused application. Delivery
// is attempted exactly once: a retry could paste the text twice into
// whatever now holds focus.
type textDeliverer struct {
	rules     ports.TextRules
	injector  ports.TextInjector
	clipboard ports.Clipboard
	notifier  ports.Notifier
	events    ports.EventSink
	log       zerolog.Logger
	archive   string
	now       func() time.Time
}

func newTextDeliverer(
	rules ports.TextRules,
	injector ports.TextInjector,
	clipboard ports.Clipboard,
	notifier ports.Notifier,
	events ports.EventSink,
	log zerolog.Logger,
	archive string,
) textDeliverer {
	return textDeliverer{
		rules:     rules,
		injector:  injector,
		clipboard: clipboard,
		notifier:  notifier,
		events:    events,
		log:       log,
		archive:   archive,
		now:       time.Now,
	}
}

func (d textDeliverer) Deliver(ctx context.Context, sessionID string, mode domain.Mode, transcript, final string) (domain.SendResult, domain.SessionStateReason) {
	text, err := d.rules.Apply(final)
	if err != nil {
		// Substitution problems must not lose the dictation.
		d.log.Warn().Err(err).Msg("keyword substitution failed, delivering unmodified text")
		text = final
	}

	d.appendArchive(mode, text)

	result := domain.SendResult{
		SessionID:  sessionID,
		Mode:       mode,
		Transcript: transcript,
		FinalText:  text,
		Delivered:  true,
	}

	if err := d.injector.Type(ctx, text); err != nil {
		result.Delivered = false
		d.events.SessionError(domain.ErrorCodeInjectionFailed, "text ready but could not be typed into focus")
		d.log.Error().Err(err).Str("session", sessionID).Msg("text injection failed")
		if clipErr := d.clipboard.SetText(ctx, text); clipErr != nil {
			d.notify("Audio Flow", "Delivery failed; clipboard also unavailable")
		} else {
			d.notify("Audio Flow", "Could not type into focus; text copied to clipboard")
		}
		return result, domain.SessionReasonDeliveryFailed
	}

	d.log.Info().Str("session", sessionID).Str("mode", string(mode)).Int("chars", len(text)).Msg("text delivered")
	d.notify("Audio Flow", "Text delivered")
	return result, domain.SessionReasonTextDelivered
}

// appendArchive keeps a plain-text record of everything delivered, so a
// lost paste can be recovered by hand.
func (d textDeliverer) appendArchive(mode domain.Mode, text string) {
	if d.archive == "" || text == "" {
		return
	}
	file, err := os.OpenFile(d.archive, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		d.log.Warn().Err(err).Msg("could not open delivery archive")
		return
	}
	defer file.Close()

	line := fmt.Sprintf("%s [%s] %s\n", d.now().Format(time.RFC3339), mode, text)
	if _, err := file.WriteString(line); err != nil {
		d.log.Warn().Err(err).Msg("could not append to delivery archive")
	}
}

func (d textDeliverer) notify(title, body string) {
	if d.notifier == nil {
		return
	}
	if err := d.notifier.Notify(title, body); err != nil {
		d.log.Debug().Err(err).Msg("desktop notification failed")
	}
}
