package audio

import (
	"context"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/Ester-D-Kate/Audio-Flow/internal/ports"
)

// PortAudioSource opens the default input device through PortAudio.
type PortAudioSource struct{}

func NewPortAudioSource() *PortAudioSource {
	return &PortAudioSource{}
}

func (p *PortAudioSource) Open(_ context.Context, cfg ports.AudioConfig) (ports.SampleStream, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio init failed: %w", err)
	}

	in := make([]int16, cfg.BlockSize*cfg.Channels)
	stream, err := portaudio.OpenDefaultStream(cfg.Channels, 0, float64(cfg.SampleRate), cfg.BlockSize, in)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("failed to open input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("failed to start input stream: %w", err)
	}

	return &portAudioStream{stream: stream, in: in}, nil
}

type portAudioStream struct {
	stream *portaudio.Stream
	in     []int16

	closeOnce sync.Once
	closeErr  error
}

func (s *portAudioStream) ReadBlock() ([]int16, error) {
	if err := s.stream.Read(); err != nil {
		return nil, fmt.Errorf("input stream read failed: %w", err)
	}
	block := make([]int16, len(s.in))
	copy(block, s.in)
	return block, nil
}

func (s *portAudioStream) Close() error {
	s.closeOnce.Do(func() {
		_ = s.stream.Stop()
		s.closeErr = s.stream.Close()
		_ = portaudio.Terminate()
	})
	return s.closeErr
}
