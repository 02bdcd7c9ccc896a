// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gstvideo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"

	"github.com/gogpu/texsource"
)

// ErrOpen is returned when a pipeline cannot be built or started.
var ErrOpen = errors.New("gstvideo: open failed")

var initOnce sync.Once

// Platform opens GStreamer players. The zero value is ready to use.
type Platform struct{}

// New returns a Platform.
func New() *Platform { return &Platform{} }

// Open implements texsource.VideoPlatform.
func (p *Platform) Open(location string, opts texsource.VideoOptions) (texsource.VideoPlayer, error) {
	uri, err := toURI(location)
	if err != nil {
		return nil, err
	}
	initOnce.Do(func() { gst.Init(nil) })

	pl := &Player{
		uri:    uri,
		opts:   opts,
		logger: texsource.Logger().With("uri", uri),
	}
	pl.frame.Store(-1)
	if err := pl.build(); err != nil {
		return nil, err
	}
	if err := pl.start(); err != nil {
		pl.pipeline.SetState(gst.StateNull)
		return nil, err
	}
	return pl, nil
}

// Player decodes one video and keeps its newest frame.
type Player struct {
	uri    string
	opts   texsource.VideoOptions
	logger *slog.Logger

	pipeline *gst.Pipeline
	sink     *app.Sink
	convert  *gst.Element
	audio    *gst.Element

	mu     sync.Mutex
	latest texsource.ImagePlane
	frame  atomic.Int64

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

var _ texsource.VideoPlayer = (*Player)(nil)

func (pl *Player) build() error {
	pipeline, err := gst.NewPipeline("")
	if err != nil {
		return fmt.Errorf("%w: pipeline: %w", ErrOpen, err)
	}
	decode, err := gst.NewElement("uridecodebin")
	if err != nil {
		return fmt.Errorf("%w: uridecodebin: %w", ErrOpen, err)
	}
	decode.SetProperty("uri", pl.uri)

	convert, err := gst.NewElement("videoconvert")
	if err != nil {
		return fmt.Errorf("%w: videoconvert: %w", ErrOpen, err)
	}
	filter, err := gst.NewElement("capsfilter")
	if err != nil {
		return fmt.Errorf("%w: capsfilter: %w", ErrOpen, err)
	}
	filter.SetProperty("caps", gst.NewCapsFromString(rgbaCaps))

	sink, err := app.NewAppSink()
	if err != nil {
		return fmt.Errorf("%w: appsink: %w", ErrOpen, err)
	}
	sink.SetProperty("sync", true)
	sink.SetProperty("max-buffers", 1)
	sink.SetProperty("drop", true)

	pipeline.AddMany(decode, convert, filter, sink.Element)
	if err := gst.ElementLinkMany(convert, filter, sink.Element); err != nil {
		return fmt.Errorf("%w: link video branch: %w", ErrOpen, err)
	}

	if pl.opts.PlaySound {
		audio, err := pl.buildAudio(pipeline)
		if err != nil {
			// Play silently rather than fail the whole file.
			pl.logger.Warn("gstvideo: audio branch unavailable", "error", err)
		} else {
			pl.audio = audio
		}
	}

	decode.Connect("pad-added", func(self *gst.Element, srcPad *gst.Pad) {
		pl.onPadAdded(srcPad)
	})
	sink.SetCallbacks(&app.SinkCallbacks{
		NewSampleFunc: pl.onNewSample,
	})

	pl.pipeline = pipeline
	pl.sink = sink
	pl.convert = convert
	return nil
}

// buildAudio adds audioconvert -> audioresample -> autoaudiosink and
// returns the head of the branch.
func (pl *Player) buildAudio(pipeline *gst.Pipeline) (*gst.Element, error) {
	var elems []*gst.Element
	for _, name := range []string{"audioconvert", "audioresample", "autoaudiosink"} {
		e, err := gst.NewElement(name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		elems = append(elems, e)
	}
	pipeline.AddMany(elems...)
	if err := gst.ElementLinkMany(elems...); err != nil {
		return nil, err
	}
	return elems[0], nil
}

// onPadAdded links a decoded stream to the video branch, or to the audio
// branch when the video branch rejects its caps.
func (pl *Player) onPadAdded(srcPad *gst.Pad) {
	videoPad := pl.convert.GetStaticPad("sink")
	if videoPad != nil && !videoPad.IsLinked() {
		if ret := srcPad.Link(videoPad); ret == gst.PadLinkOK {
			pl.logger.Debug("gstvideo: video pad linked", "pad", srcPad.GetName())
			return
		}
	}
	if pl.audio == nil {
		return
	}
	audioPad := pl.audio.GetStaticPad("sink")
	if audioPad == nil || audioPad.IsLinked() {
		return
	}
	if ret := srcPad.Link(audioPad); ret != gst.PadLinkOK {
		pl.logger.Debug("gstvideo: pad not linked", "pad", srcPad.GetName(), "ret", ret)
		return
	}
	pl.logger.Debug("gstvideo: audio pad linked", "pad", srcPad.GetName())
}

func (pl *Player) onNewSample(sink *app.Sink) gst.FlowReturn {
	sample := sink.PullSample()
	if sample == nil {
		pl.logger.Warn("gstvideo: failed to pull sample, skipping frame")
		return gst.FlowOK
	}
	caps := sample.GetCaps()
	if caps == nil {
		return gst.FlowOK
	}
	st := caps.GetStructureAt(0)
	if st == nil {
		return gst.FlowOK
	}
	wv, _ := st.GetValue("width")
	hv, _ := st.GetValue("height")
	w, h, err := frameSize(wv, hv)
	if err != nil {
		pl.logger.Warn("gstvideo: unusable caps", "error", err)
		return gst.FlowOK
	}

	buffer := sample.GetBuffer()
	if buffer == nil {
		return gst.FlowOK
	}
	mapInfo := buffer.Map(gst.MapRead)
	data := mapInfo.Bytes()
	if len(data) < w*h*4 {
		buffer.Unmap()
		pl.logger.Warn("gstvideo: short buffer", "bytes", len(data), "width", w, "height", h)
		return gst.FlowOK
	}
	pix := make([]byte, w*h*4)
	copy(pix, data)
	buffer.Unmap()

	pl.mu.Lock()
	pl.latest = texsource.ImagePlane{Width: w, Height: h, Format: texsource.FormatRGBA8, Pix: pix}
	pl.mu.Unlock()
	idx := pl.frame.Add(1)

	pl.logger.Debug("gstvideo: frame decoded",
		"frame", idx,
		"width", w,
		"height", h,
		"trace_id", uuid.New().String(),
	)
	return gst.FlowOK
}

func (pl *Player) start() error {
	if err := pl.pipeline.SetState(gst.StatePlaying); err != nil {
		return fmt.Errorf("%w: start: %w", ErrOpen, err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	pl.cancel = cancel
	pl.wg.Add(1)
	go func() {
		defer pl.wg.Done()
		if err := pl.monitor(ctx); err != nil {
			pl.logger.Error("gstvideo: playback stopped", "error", err, "frames", pl.frame.Load()+1)
		}
	}()
	pl.logger.Info("gstvideo: playing", "loop", pl.opts.Loop, "sound", pl.audio != nil)
	return nil
}

// monitor polls the bus until the context ends, the stream ends without
// looping, or the pipeline reports an error.
func (pl *Player) monitor(ctx context.Context) error {
	bus := pl.pipeline.GetPipelineBus()
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		msg := bus.TimedPop(50 * time.Millisecond)
		if msg == nil {
			continue
		}
		switch msg.Type() {
		case gst.MessageEOS:
			if !pl.opts.Loop {
				pl.logger.Info("gstvideo: end of stream", "frames", pl.frame.Load()+1)
				return nil
			}
			if err := pl.rewind(); err != nil {
				return err
			}
		case gst.MessageError:
			gerr := msg.ParseError()
			return fmt.Errorf("gstvideo: pipeline error: %s (%s)", gerr.Error(), gerr.DebugString())
		case gst.MessageStateChanged:
			if msg.Source() == pl.pipeline.GetName() {
				old, cur := msg.ParseStateChanged()
				pl.logger.Debug("gstvideo: state changed", "from", old, "to", cur)
			}
		}
	}
}

// rewind restarts playback from the first frame. The frame index keeps
// growing so the restarted frames still read as new.
func (pl *Player) rewind() error {
	if err := pl.pipeline.SetState(gst.StateNull); err != nil {
		return fmt.Errorf("gstvideo: rewind: %w", err)
	}
	if err := pl.pipeline.SetState(gst.StatePlaying); err != nil {
		return fmt.Errorf("gstvideo: rewind: %w", err)
	}
	pl.logger.Debug("gstvideo: looped")
	return nil
}

// Frame implements texsource.VideoPlayer.
func (pl *Player) Frame() int64 { return pl.frame.Load() }

// Texture implements texsource.VideoPlayer.
func (pl *Player) Texture() (texsource.ImagePlane, bool) {
	if pl.frame.Load() < 0 {
		return texsource.ImagePlane{}, false
	}
	pl.mu.Lock()
	defer pl.mu.Unlock()
	return pl.latest, true
}

// Close stops the pipeline and releases it. It is safe to call twice.
func (pl *Player) Close() error {
	var err error
	pl.closeOnce.Do(func() {
		if pl.cancel != nil {
			pl.cancel()
		}
		pl.wg.Wait()
		if serr := pl.pipeline.SetState(gst.StateNull); serr != nil {
			err = fmt.Errorf("gstvideo: stop: %w", serr)
		}
		pl.logger.Debug("gstvideo: closed")
	})
	return err
}
