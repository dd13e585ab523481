package audio

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/Ester-D-Kate/Audio-Flow/internal/domain"
	"github.com/Ester-D-Kate/Audio-Flow/internal/ports"
)

// ErrSessionFinished is returned for control calls after the capture
// worker has already exited.
var ErrSessionFinished = errors.New("capture session already finished")

// finishTimeout bounds how long Stop and Cancel wait for the worker to
// pick up their command. A device block read completes in tens of
// milliseconds, so a worker still unreachable after this long is wedged
// inside a read that will never return.
const finishTimeout = time.Second

// Segmenter captures microphone audio in fixed-duration overlapping
// windows. Each window after the first is seeded with the tail of its
// predecessor, so speech on a window edge is captured twice; the seeded
// region is dropped again on concatenation, which keeps the assembled
// waveform gapless and free of duplicated samples.
type Segmenter struct {
	source ports.SampleSource
}

func NewSegmenter(source ports.SampleSource) *Segmenter {
	return &Segmenter{source: source}
}

// Start opens the device and launches the capture worker.
func (s *Segmenter) Start(ctx context.Context, cfg ports.AudioConfig) (ports.CaptureSession, error) {
	applyDefaults(&cfg)

	stream, err := s.source.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture device: %w", err)
	}

	session := &captureSession{
		cfg:      cfg,
		stream:   stream,
		commands: make(chan command),
		stopped:  make(chan struct{}),
		fatal:    make(chan error, 1),
		levels:   make(chan float64, 64),
		frames:   make(chan []int16, 32),
	}
	go session.run()
	return session, nil
}

func applyDefaults(cfg *ports.AudioConfig) {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	if cfg.BlockSize <= 0 {
		cfg.BlockSize = 1024
	}
	if cfg.SegmentDuration <= 0 {
		cfg.SegmentDuration = 15 * time.Second
	}
	if cfg.SegmentOverlap < 0 || cfg.SegmentOverlap >= cfg.SegmentDuration {
		cfg.SegmentOverlap = 3 * time.Second
	}
}

type commandKind int

const (
	cmdPause commandKind = iota
	cmdResume
	cmdStop
	cmdCancel
)

type command struct {
	kind commandKind
	ack  chan error
}

// segment pairs a captured chunk with the number of seeded samples that
// must be dropped when chunks are concatenated.
type segment struct {
	chunk   domain.AudioChunk
	overlap int
}

type captureResult struct {
	segments  []segment
	cancelled bool
	err       error
}

type captureSession struct {
	cfg      ports.AudioConfig
	stream   ports.SampleStream
	commands chan command
	stopped  chan struct{}
	fatal    chan error
	levels   chan float64
	frames   chan []int16

	mu       sync.Mutex
	finished bool
	result   captureResult
}

func (s *captureSession) Fatal() <-chan error    { return s.fatal }
func (s *captureSession) Levels() <-chan float64 { return s.levels }
func (s *captureSession) Frames() <-chan []int16 { return s.frames }

// Pause suspends capture. It returns only after the worker has finished
// its in-flight block and sealed the current chunk.
func (s *captureSession) Pause(ctx context.Context) error {
	return s.send(ctx, cmdPause)
}

func (s *captureSession) Resume() error {
	return s.send(context.Background(), cmdResume)
}

// Stop ends capture and assembles the de-overlapped waveform.
func (s *captureSession) Stop() (domain.Recording, error) {
	res, err := s.finish(cmdStop)
	if err != nil {
		return domain.Recording{}, err
	}
	if res.err != nil {
		return domain.Recording{}, res.err
	}
	return concatenate(res.segments, s.cfg.SampleRate), nil
}

// Cancel ends capture and discards all captured audio.
func (s *captureSession) Cancel() error {
	res, err := s.finish(cmdCancel)
	if err != nil {
		return err
	}
	return res.err
}

func (s *captureSession) send(ctx context.Context, kind commandKind) error {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return ErrSessionFinished
	}
	s.mu.Unlock()

	cmd := command{kind: kind, ack: make(chan error, 1)}
	select {
	case s.commands <- cmd:
	case <-s.stopped:
		return ErrSessionFinished
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-cmd.ack:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *captureSession) finish(kind commandKind) (captureResult, error) {
	s.mu.Lock()
	if s.finished {
		res := s.result
		s.mu.Unlock()
		return res, nil
	}
	s.mu.Unlock()

	cmd := command{kind: kind, ack: make(chan error, 1)}
	select {
	case s.commands <- cmd:
	case <-s.stopped:
		// Worker already exited, typically after a device failure or a
		// concurrent Stop/Cancel that won the race.
	case <-time.After(finishTimeout):
		// The worker is stuck in a device read. Closing the stream fails
		// the pending read so the worker can seal what it has and exit.
		_ = s.stream.Close()
	}
	<-s.stopped

	s.mu.Lock()
	res := s.result
	s.mu.Unlock()
	return res, nil
}

func (s *captureSession) remember(res captureResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.finished {
		s.finished = true
		s.result = res
	}
}

func (s *captureSession) run() {
	defer close(s.levels)
	defer close(s.frames)

	var (
		segments []segment
		current  segment
		paused   bool
	)
	segmentSamples := int(s.cfg.SegmentDuration.Seconds() * float64(s.cfg.SampleRate))
	overlapSamples := int(s.cfg.SegmentOverlap.Seconds() * float64(s.cfg.SampleRate))

	current = newSegment(0, 0, nil)

	seal := func() {
		if len(current.chunk.Samples) > current.overlap {
			current.chunk.End = time.Now()
			segments = append(segments, current)
		}
	}

	finish := func(res captureResult) {
		_ = s.stream.Close()
		s.remember(res)
		close(s.stopped)
	}

	for {
		if paused {
			cmd := <-s.commands
			switch cmd.kind {
			case cmdResume:
				paused = false
				// Chunks across a pause boundary share no audio, so the
				// new chunk carries no seeded overlap.
				current = newSegment(nextSeq(segments), 0, nil)
				cmd.ack <- nil
			case cmdPause:
				cmd.ack <- nil
			case cmdStop:
				cmd.ack <- nil
				finish(captureResult{segments: segments})
				return
			case cmdCancel:
				cmd.ack <- nil
				finish(captureResult{cancelled: true})
				return
			}
			continue
		}

		select {
		case cmd := <-s.commands:
			switch cmd.kind {
			case cmdPause:
				seal()
				paused = true
				cmd.ack <- nil
			case cmdResume:
				cmd.ack <- nil
			case cmdStop:
				seal()
				cmd.ack <- nil
				finish(captureResult{segments: segments})
				return
			case cmdCancel:
				cmd.ack <- nil
				finish(captureResult{cancelled: true})
				return
			}
			continue
		default:
		}

		block, err := s.stream.ReadBlock()
		if len(block) > 0 {
			current.chunk.Samples = append(current.chunk.Samples, block...)
			s.emitLevel(block)
			s.emitFrame(block)

			if len(current.chunk.Samples) >= segmentSamples {
				current.chunk.End = time.Now()
				segments = append(segments, current)
				// Seed the next window with this window's tail so the
				// boundary is captured in both.
				tail := current.chunk.Samples[len(current.chunk.Samples)-overlapSamples:]
				current = newSegment(current.chunk.Seq+1, overlapSamples, tail)
			}
		}
		if err != nil {
			seal()
			captureErr := fmt.Errorf("capture device failed: %w", err)
			s.fatal <- captureErr
			finish(captureResult{segments: segments, err: captureErr})
			return
		}
	}
}

func newSegment(seq int, overlap int, seed []int16) segment {
	samples := make([]int16, len(seed), len(seed)+4096)
	copy(samples, seed)
	return segment{
		chunk:   domain.AudioChunk{Seq: seq, Start: time.Now(), Samples: samples},
		overlap: overlap,
	}
}

func nextSeq(segments []segment) int {
	if len(segments) == 0 {
		return 0
	}
	return segments[len(segments)-1].chunk.Seq + 1
}

func (s *captureSession) emitLevel(block []int16) {
	var sum float64
	for _, v := range block {
		f := float64(v) / 32768.0
		sum += f * f
	}
	rms := math.Sqrt(sum / float64(len(block)))
	level := math.Min(rms*10, 1)
	select {
	case s.levels <- level:
	default:
	}
}

func (s *captureSession) emitFrame(block []int16) {
	copied := make([]int16, len(block))
	copy(copied, block)
	select {
	case s.frames <- copied:
	default:
	}
}

// concatenate assembles the session waveform, dropping each segment's
// seeded leading overlap so no sample appears twice.
func concatenate(segments []segment, sampleRate int) domain.Recording {
	total := 0
	for _, seg := range segments {
		total += len(seg.chunk.Samples) - seg.overlap
	}

	samples := make([]int16, 0, total)
	for _, seg := range segments {
		samples = append(samples, seg.chunk.Samples[seg.overlap:]...)
	}
	return domain.Recording{SampleRate: sampleRate, Samples: samples, Chunks: len(segments)}
}
