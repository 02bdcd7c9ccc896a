package texsource

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// TextureSource is the capability every feed provides.
//
// DidUpdateThisFrame and Texture are stable within one tick of the shared
// Clock: repeated calls return the same result without doing the work
// again.
type TextureSource interface {
	// Start acquires the feed. Starting a started source does nothing.
	Start() error
	// Stop releases the feed. Stopping a stopped source does nothing.
	Stop() error
	// Next switches to the next camera, file or facing, cyclically.
	// It does nothing when there is nothing to switch to.
	Next() error
	// DidUpdateThisFrame reports whether a new frame arrived this tick.
	DidUpdateThisFrame() bool
	// Texture returns the current normalized frame.
	Texture() (ImagePlane, error)
}

// SourceKind tags the variant of a Source.
type SourceKind uint8

const (
	// SourceWebCam is a device camera opened through a CameraPlatform.
	SourceWebCam SourceKind = iota
	// SourceARCamera is the AR session's camera passthrough.
	SourceARCamera
	// SourceARDepth is the AR passthrough with environment depth in alpha.
	SourceARDepth
	// SourceVideo plays a list of video files.
	SourceVideo
)

var sourceKindNames = [...]string{
	SourceWebCam:   "webcam",
	SourceARCamera: "ar-camera",
	SourceARDepth:  "ar-depth",
	SourceVideo:    "video",
}

func (k SourceKind) String() string {
	if int(k) < len(sourceKindNames) {
		return sourceKindNames[k]
	}
	return fmt.Sprintf("SourceKind(%d)", uint8(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k SourceKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *SourceKind) UnmarshalText(text []byte) error {
	s := normalizeEnum(string(text))
	for i, name := range sourceKindNames {
		if normalizeEnum(name) == s {
			*k = SourceKind(i)
			return nil
		}
	}
	return fmt.Errorf("%w: unknown source %q (want one of %s)",
		ErrConfiguration, text, strings.Join(sourceKindNames[:], ", "))
}

// Source is a feed of one of the SourceKind variants. Construct it with
// NewWebCamSource, NewVideoSource, NewARCameraSource or NewARDepthSource.
//
// A Source is driven from the tick goroutine only.
type Source struct {
	kind SourceKind
	id   string
	env  *Env

	webcam *webcamState
	video  *videoState
	ar     *arState

	updated tickMemo[bool]
	texture tickMemo[texResult]
}

type texResult struct {
	plane ImagePlane
	err   error
}

// tickMemo caches one value for the tick it was computed in.
type tickMemo[T any] struct {
	tick  int64
	valid bool
	value T
}

func (m *tickMemo[T]) get(tick int64) (T, bool) {
	if m.valid && m.tick == tick {
		return m.value, true
	}
	var zero T
	return zero, false
}

func (m *tickMemo[T]) set(tick int64, v T) {
	m.tick, m.valid, m.value = tick, true, v
}

func (m *tickMemo[T]) reset() {
	m.valid = false
}

func newSource(kind SourceKind, env *Env) *Source {
	return &Source{kind: kind, id: uuid.New().String(), env: env}
}

// Kind returns the variant tag.
func (s *Source) Kind() SourceKind { return s.kind }

// ID returns the unique instance ID used in log records.
func (s *Source) ID() string { return s.id }

// Start acquires the feed.
func (s *Source) Start() error {
	var err error
	switch s.kind {
	case SourceWebCam:
		err = s.webcam.start(s)
	case SourceVideo:
		err = s.video.start(s)
	case SourceARCamera, SourceARDepth:
		err = s.ar.start(s)
	}
	if err != nil {
		return err
	}
	s.logger().Info("texsource: source started")
	return nil
}

// Stop releases the feed. It can be called any number of times.
func (s *Source) Stop() error {
	s.resetMemo()
	switch s.kind {
	case SourceWebCam:
		return s.webcam.stop()
	case SourceVideo:
		return s.video.stop()
	case SourceARCamera, SourceARDepth:
		return s.ar.stop()
	}
	return nil
}

// Next switches to the next device, file or AR facing.
func (s *Source) Next() error {
	s.resetMemo()
	switch s.kind {
	case SourceWebCam:
		return s.webcam.next(s)
	case SourceVideo:
		return s.video.next(s)
	case SourceARCamera, SourceARDepth:
		return s.ar.next()
	}
	return nil
}

// DidUpdateThisFrame reports whether a new frame arrived this tick.
func (s *Source) DidUpdateThisFrame() bool {
	tick := s.env.Clock.Frame()
	if v, ok := s.updated.get(tick); ok {
		return v
	}
	var v bool
	switch s.kind {
	case SourceWebCam:
		v = s.webcam.didUpdate()
	case SourceVideo:
		v = s.video.didUpdate()
	case SourceARCamera, SourceARDepth:
		v = s.ar.didUpdate()
	}
	s.updated.set(tick, v)
	return v
}

// Texture returns the current normalized frame.
func (s *Source) Texture() (ImagePlane, error) {
	tick := s.env.Clock.Frame()
	if r, ok := s.texture.get(tick); ok {
		return r.plane, r.err
	}
	var r texResult
	switch s.kind {
	case SourceWebCam:
		r.plane, r.err = s.webcam.texture(s)
	case SourceVideo:
		r.plane, r.err = s.video.texture()
	case SourceARCamera, SourceARDepth:
		r.plane, r.err = s.ar.texture()
	}
	s.texture.set(tick, r)
	return r.plane, r.err
}

func (s *Source) resetMemo() {
	s.updated.reset()
	s.texture.reset()
}

// logger returns the package logger with the source attributes attached.
func (s *Source) logger() *slog.Logger {
	return Logger().With("source", s.kind.String(), "source_id", s.id)
}

var _ TextureSource = (*Source)(nil)
