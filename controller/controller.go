// Package controller drives the frame-analysis pipeline: it rectifies the
// platform region of each frame, runs the configured mask producers on it,
// fuses their masks with a policy and reports occupancy metrics.
package controller

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-busstop/chroma"
	"github.com/nvr-ai/go-busstop/geometry"
	"github.com/nvr-ai/go-busstop/images"
	"github.com/nvr-ai/go-busstop/input"
	"github.com/nvr-ai/go-busstop/masker"
	"github.com/nvr-ai/go-busstop/profiler"
)

// ErrStop is returned by a Sink to end a run without error.
var ErrStop = errors.New("stop requested")

// Reasons reported in Result.Reason when no fused mask is available.
const (
	ReasonNotReady   = "not_ready"
	ReasonDegenerate = "degenerate"
	ReasonNoMasks    = "no_masks"
)

// DefaultSections is the number of platform sections metrics are split into.
const DefaultSections = 3

// Source yields frames in display order. An empty frame ends the stream.
type Source interface {
	Next(ctx context.Context) (images.Frame, error)
}

// Sink receives the outcome of every processed frame.
type Sink interface {
	Show(ctx context.Context, result Result) error
}

// Input supplies the per-frame snapshot of user-controlled state.
type Input interface {
	Quad() geometry.Quadrilateral
	Tuning() input.Tuning
}

// FrameContext is everything the pipeline knows about one frame. It is built
// once per frame and nothing in it is shared with other frames.
type FrameContext struct {
	ID        int
	Timestamp time.Time
	Frame     images.Frame
	Quad      geometry.Quadrilateral
	Tuning    input.Tuning
}

// Producer computes one foreground mask of a rectified region.
type Producer interface {
	Name() string
	Produce(region images.Frame, tuning input.Tuning) (images.Mask, error)
}

// maskerProducer adapts a masker.Masker, which needs no tuning.
type maskerProducer struct {
	m masker.Masker
}

// FromMasker wraps a masker as a Producer.
func FromMasker(m masker.Masker) Producer {
	return maskerProducer{m: m}
}

func (p maskerProducer) Name() string { return p.m.Name() }

// Close releases the masker when it holds resources.
func (p maskerProducer) Close() error {
	if c, ok := p.m.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (p maskerProducer) Produce(region images.Frame, _ input.Tuning) (images.Mask, error) {
	return p.m.Mask(region)
}

// chromaProducer classifies with the tuning of the current frame.
type chromaProducer struct{}

// Chroma returns a Producer running the chromatic classifier.
func Chroma() Producer { return chromaProducer{} }

func (chromaProducer) Name() string { return chroma.Classifier{}.Name() }

func (chromaProducer) Produce(region images.Frame, tuning input.Tuning) (images.Mask, error) {
	c := chroma.Classifier{ThresholdPercent: tuning.ChromaPercent, WhitePercentile: tuning.WhitePercentile}
	return c.Mask(region)
}

// ProducerNames lists the names accepted by ProducerByName.
var ProducerNames = []string{
	"fixed_hsv", "fixed_lab",
	"adaptive_hsv", "adaptive_lab",
	"local_mean", "local_gaussian",
	"chroma",
}

// KnownProducer reports whether name is accepted by ProducerByName.
func KnownProducer(name string) bool {
	for _, n := range ProducerNames {
		if n == name {
			return true
		}
	}
	return false
}

// ProducerByName returns the producer registered under name. Every registered
// producer is a pure function of the region and tuning. Producers that hold
// native resources implement io.Closer and are released by Controller.Close.
func ProducerByName(name string) (Producer, error) {
	switch name {
	case "fixed_hsv":
		return FromMasker(masker.FixedHSV()), nil
	case "fixed_lab":
		return FromMasker(masker.FixedLab()), nil
	case "adaptive_hsv":
		return FromMasker(masker.AdaptiveHSV()), nil
	case "adaptive_lab":
		return FromMasker(masker.AdaptiveLab()), nil
	case "local_mean":
		return FromMasker(masker.LocalAdaptive(masker.LocalMean)), nil
	case "local_gaussian":
		return FromMasker(masker.LocalAdaptive(masker.LocalGaussian)), nil
	case "chroma":
		return Chroma(), nil
	default:
		return nil, errors.Errorf("unknown mask producer %q", name)
	}
}

// Result is the outcome of processing one frame.
type Result struct {
	FrameID   int
	Timestamp time.Time
	// Ready is true when Fused holds a mask for the platform region.
	Ready bool
	// Reason explains why Ready is false.
	Reason string
	// Raw is the frame as received from the source.
	Raw  images.Frame
	Quad geometry.Quadrilateral
	// Rectified is the upright platform region.
	Rectified  images.Frame
	Homography geometry.Homography
	Masks      []NamedMask
	Fused      images.Mask
	// Ratio is the foreground fraction of Fused.
	Ratio float64
	// Sections holds the foreground fraction of each vertical platform section.
	Sections []float64
	// Agreement holds the IoU of each producer mask with Fused, by producer name.
	Agreement map[string]float64
}

// Output returns the image a display should show: the fused mask when ready,
// the raw frame otherwise.
func (r Result) Output() images.Frame {
	if r.Ready {
		return r.Fused.ToFrame()
	}
	return r.Raw
}

// Options configures a Controller.
type Options struct {
	Producers []Producer
	// Policy fuses producer masks. nil selects the first mask.
	Policy Policy
	// Sections is the number of vertical platform sections. 0 uses DefaultSections.
	Sections int
	// HistorySize is the number of recent results retained. 0 disables retention.
	HistorySize int
	Profiler    *profiler.Profiler
	Logger      *slog.Logger
}

// Controller runs the pipeline one frame at a time.
type Controller struct {
	producers []Producer
	policy    Policy
	sections  int
	history   *History
	prof      *profiler.Profiler
	log       *slog.Logger
}

// New creates a Controller.
//
// Arguments:
// - opts: Producers, fusion policy, section count, history size, profiler and logger.
//
// Returns:
// - The controller, or an error when no producer is configured.
func New(opts Options) (*Controller, error) {
	if len(opts.Producers) == 0 {
		return nil, errors.New("controller: at least one producer is required")
	}
	if opts.Policy == nil {
		opts.Policy = Select{}
	}
	if opts.Sections <= 0 {
		opts.Sections = DefaultSections
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Controller{
		producers: opts.Producers,
		policy:    opts.Policy,
		sections:  opts.Sections,
		history:   NewHistory(opts.HistorySize),
		prof:      opts.Profiler,
		log:       opts.Logger.With("component", "controller"),
	}, nil
}

// Close releases producers that hold resources and returns the first error.
func (c *Controller) Close() error {
	var first error
	for _, p := range c.producers {
		if closer, ok := p.(io.Closer); ok {
			if err := closer.Close(); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}

// History returns the retained results.
func (c *Controller) History() *History {
	return c.history
}

// Process runs the pipeline on one frame.
//
// With fewer than four corners the raw frame is passed through with reason
// not_ready. A degenerate quadrilateral yields reason degenerate. A failing
// producer is logged and its mask left out; the frame is not retried.
func (c *Controller) Process(fc FrameContext) Result {
	res := Result{
		FrameID:   fc.ID,
		Timestamp: fc.Timestamp,
		Raw:       fc.Frame,
		Quad:      fc.Quad,
	}

	done := c.prof.StartStage("rectify")
	rect := geometry.Rectify(fc.Frame, fc.Quad)
	done()

	switch rect.Status {
	case geometry.StatusNotReady:
		res.Reason = ReasonNotReady
		return res
	case geometry.StatusDegenerate:
		c.log.Warn("degenerate platform region", "frame", fc.ID, "quad", fc.Quad)
		res.Reason = ReasonDegenerate
		return res
	}
	res.Rectified = rect.Frame
	res.Homography = rect.Homography

	for _, p := range c.producers {
		done := c.prof.StartStage(p.Name())
		m, err := p.Produce(rect.Frame, fc.Tuning)
		done()
		if err != nil {
			c.log.Error("mask producer failed", "frame", fc.ID, "producer", p.Name(), "error", err)
			continue
		}
		res.Masks = append(res.Masks, NamedMask{Name: p.Name(), Mask: m})
	}

	done = c.prof.StartStage("fuse")
	fused, err := c.policy.Fuse(res.Masks)
	done()
	if err != nil {
		c.log.Warn("no mask to report", "frame", fc.ID, "policy", c.policy.Name(), "error", err)
		res.Reason = ReasonNoMasks
		return res
	}

	res.Ready = true
	res.Fused = fused
	res.Ratio = fused.Ratio()
	res.Sections = SectionRatios(fused, c.sections)
	res.Agreement = make(map[string]float64, len(res.Masks))
	for _, m := range res.Masks {
		iou, err := images.MaskIoU(m.Mask, fused)
		if err != nil {
			c.log.Warn("mask size mismatch", "frame", fc.ID, "producer", m.Name, "error", err)
			continue
		}
		res.Agreement[m.Name] = iou
		c.prof.RecordMetric("agreement_"+m.Name, iou)
	}

	c.prof.RecordMetric("foreground_ratio", res.Ratio)
	c.history.Push(Entry{
		FrameID:   fc.ID,
		Timestamp: fc.Timestamp,
		Rectified: rect.Frame,
		Ratio:     res.Ratio,
		Sections:  res.Sections,
	})

	c.log.Debug("frame processed", "frame", fc.ID, "ratio", res.Ratio, "sections", res.Sections)
	return res
}

// Run pulls frames from src until the stream ends, ctx is cancelled or snk
// returns ErrStop. Each frame is processed with a fresh snapshot of in.
//
// Returns:
// - nil at end of stream or on ErrStop, ctx.Err() on cancellation.
func (c *Controller) Run(ctx context.Context, src Source, snk Sink, in Input) error {
	c.log.Info("🚀 pipeline started")

	for id := 0; ; id++ {
		if err := ctx.Err(); err != nil {
			c.log.Info("pipeline cancelled", "frames", id)
			return err
		}

		done := c.prof.StartStage("read")
		frame, err := src.Next(ctx)
		done()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Error("frame read failed, skipping", "frame", id, "error", err)
			continue
		}
		if frame.Empty() {
			c.log.Info("🏁 end of stream", "frames", id)
			return nil
		}

		res := c.Process(FrameContext{
			ID:        id,
			Timestamp: time.Now(),
			Frame:     frame,
			Quad:      in.Quad(),
			Tuning:    in.Tuning(),
		})

		done = c.prof.StartStage("show")
		err = snk.Show(ctx, res)
		done()
		if err != nil {
			if errors.Is(err, ErrStop) {
				c.log.Info("🛑 stop requested by sink", "frames", id+1)
				return nil
			}
			c.log.Error("sink failed", "frame", id, "error", err)
		}
	}
}
