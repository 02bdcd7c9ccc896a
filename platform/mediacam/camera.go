// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package mediacam

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/pion/mediadevices/pkg/driver"
	"github.com/pion/mediadevices/pkg/io/video"

	"github.com/gogpu/texsource"
)

// ErrNoDevice is returned when Open names a driver that is not registered.
var ErrNoDevice = errors.New("mediacam: no such device")

// ErrNotRecorder is returned when a camera driver cannot record video.
var ErrNotRecorder = errors.New("mediacam: driver does not record video")

// Platform enumerates mediadevices camera drivers.
type Platform struct {
	manager *driver.Manager
}

// New returns a Platform over the global driver manager.
func New() *Platform {
	return &Platform{manager: driver.GetManager()}
}

var _ texsource.CameraPlatform = (*Platform)(nil)

func isCamera(d driver.Driver) bool {
	if _, ok := d.(driver.VideoRecorder); !ok {
		return false
	}
	return d.Info().DeviceType == driver.Camera
}

func videoRecorder(d driver.Driver) (driver.VideoRecorder, error) {
	r, ok := d.(driver.VideoRecorder)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotRecorder, d.ID())
	}
	return r, nil
}

// Devices implements texsource.CameraPlatform.
func (p *Platform) Devices() ([]texsource.CameraDevice, error) {
	drivers := p.manager.Query(isCamera)
	out := make([]texsource.CameraDevice, 0, len(drivers))
	for _, d := range drivers {
		label := d.Info().Label
		out = append(out, texsource.CameraDevice{
			ID:          d.ID(),
			Name:        label,
			Kind:        guessKind(label),
			FrontFacing: guessFacing(label),
		})
	}
	return out, nil
}

// Open implements texsource.CameraPlatform.
func (p *Platform) Open(device texsource.CameraDevice, req texsource.CameraRequest) (texsource.CameraStream, error) {
	var d driver.Driver
	for _, cand := range p.manager.Query(isCamera) {
		if cand.ID() == device.ID {
			d = cand
			break
		}
	}
	if d == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoDevice, device.ID)
	}
	rec, err := videoRecorder(d)
	if err != nil {
		return nil, err
	}
	if err := d.Open(); err != nil {
		return nil, fmt.Errorf("mediacam: open %s: %w", device.Name, err)
	}
	mode, ok := closestProp(d.Properties(), req)
	if !ok {
		d.Close()
		return nil, fmt.Errorf("mediacam: %s reports no video modes", device.Name)
	}
	reader, err := rec.VideoRecord(mode)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("mediacam: record %s: %w", device.Name, err)
	}

	s := &stream{
		driver: d,
		logger: texsource.Logger().With("device", device.Name),
	}
	s.wg.Add(1)
	go s.run(reader)
	s.logger.Info("mediacam: capturing",
		"width", mode.Width,
		"height", mode.Height,
		"frame_rate", mode.FrameRate,
	)
	return s, nil
}

type stream struct {
	driver driver.Driver
	logger *slog.Logger

	mu      sync.Mutex
	latest  texsource.CameraFrame
	counter atomic.Uint64
	closed  atomic.Bool

	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

func (s *stream) run(reader video.Reader) {
	defer s.wg.Done()
	for {
		img, release, err := reader.Read()
		if err != nil {
			if !s.closed.Load() {
				s.logger.Error("mediacam: read failed", "error", err)
			}
			return
		}
		plane := toPlane(img)
		if release != nil {
			release()
		}
		n := s.counter.Add(1)
		s.mu.Lock()
		s.latest = texsource.CameraFrame{Plane: plane, Counter: n}
		s.mu.Unlock()
	}
}

func (s *stream) Frame() (texsource.CameraFrame, bool) {
	if s.counter.Load() == 0 {
		return texsource.CameraFrame{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest, true
}

func (s *stream) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.closeErr = s.driver.Close()
		s.wg.Wait()
		s.logger.Debug("mediacam: closed", "frames", s.counter.Load())
	})
	return s.closeErr
}
