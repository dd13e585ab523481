package audio

import (
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/Ester-D-Kate/Audio-Flow/internal/domain"
)

// EncodeWAV renders a recording as a 16-bit PCM WAV payload. The wav
// encoder needs a seekable writer to patch the header, so the payload is
// staged through a temp file.
func EncodeWAV(rec domain.Recording, channels int) ([]byte, error) {
	if len(rec.Samples) == 0 {
		return nil, fmt.Errorf("recording is empty")
	}
	if channels <= 0 {
		channels = 1
	}

	file, err := os.CreateTemp("", "audioflow_*.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp wav: %w", err)
	}
	path := file.Name()
	defer os.Remove(path)

	enc := wav.NewEncoder(file, rec.SampleRate, 16, channels, 1)
	data := make([]int, len(rec.Samples))
	for i, v := range rec.Samples {
		data[i] = int(v)
	}
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: rec.SampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		_ = enc.Close()
		_ = file.Close()
		return nil, fmt.Errorf("failed to write wav data: %w", err)
	}
	if err := enc.Close(); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to finalize wav: %w", err)
	}
	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("failed to close temp wav: %w", err)
	}

	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read back wav: %w", err)
	}
	return payload, nil
}
