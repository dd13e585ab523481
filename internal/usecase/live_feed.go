package usecase

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/Ester-D-Kate/Audio-Flow/internal/domain"
	"github.com/Ester-D-Kate/Audio-Flow/internal/ports"
)

// pumpLevels forwards normalized microphone levels to the overlay until
// the capture worker closes the channel.
func pumpLevels(levels <-chan float64, sink ports.EventSink, done chan struct{}) {
	defer close(done)

	for level := range levels {
		sink.Level(domain.LevelSample{Level: level, At: time.Now().UnixMilli()})
	}
}

// pumpLiveAudio streams captured blocks into the interim transcription
// feed. The feed is advisory, so a send failure ends the pump without
// touching the session; the frame channel producer never blocks on us.
func pumpLiveAudio(frames <-chan []int16, live ports.LiveSession, sink ports.EventSink, done chan struct{}) {
	defer close(done)

	for frame := range frames {
		if err := live.SendAudio(encodeFrame(frame)); err != nil {
			sink.SessionError(domain.ErrorCodeLiveFeed, err.Error())
			return
		}
	}
}

// consumeLiveEvents forwards interim transcript text to the overlay
// until the live session closes its event channel.
func consumeLiveEvents(events <-chan domain.TranscriptEvent, sink ports.EventSink, done chan struct{}) {
	defer close(done)

	for event := range events {
		if strings.TrimSpace(event.Text) == "" {
			continue
		}
		sink.PartialTranscript(event.Text)
	}
}

// encodeFrame converts interleaved samples to little-endian PCM bytes.
func encodeFrame(frame []int16) []byte {
	buf := make([]byte, len(frame)*2)
	for i, sample := range frame {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(sample))
	}
	return buf
}
