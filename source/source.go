// Package source provides the frame sources the pipeline pulls from: video
// files and capture devices through OpenCV, directories of still images and
// in-memory frame slices.
package source

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-busstop/images"
)

// DefaultTarget is opened when no source is configured.
const DefaultTarget = "test.MP4"

// Source yields frames in display order. An empty frame with a nil error
// marks the end of the stream.
type Source interface {
	Next(ctx context.Context) (images.Frame, error)
	Close() error
}

// Kind identifies how a target string is interpreted.
type Kind int

const (
	KindDevice Kind = iota
	KindVideo
	KindImage
	KindDirectory
)

// String returns the lower case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindDevice:
		return "device"
	case KindVideo:
		return "video"
	case KindImage:
		return "image"
	case KindDirectory:
		return "directory"
	default:
		return "unknown"
	}
}

var supportedVideoExtensions = []string{".mp4", ".avi", ".mov", ".mkv"}

// Classify determines the kind of a target: an integer is a capture device,
// a directory holds still frames, a still image extension is a single image
// and any other existing file is treated as a video.
//
// Arguments:
// - target: Device id, file path or directory path.
//
// Returns:
// - The kind of the target.
// - An error if the path does not exist or has an unsupported extension.
func Classify(target string) (Kind, error) {
	if _, err := strconv.Atoi(target); err == nil {
		return KindDevice, nil
	}

	info, err := os.Stat(target)
	if err != nil {
		return 0, errors.Wrapf(err, "source %q", target)
	}
	if info.IsDir() {
		return KindDirectory, nil
	}
	if images.FormatFromPath(target) != images.FormatUnknown {
		return KindImage, nil
	}

	ext := strings.ToLower(filepath.Ext(target))
	for _, supported := range supportedVideoExtensions {
		if ext == supported {
			return KindVideo, nil
		}
	}
	return 0, errors.Errorf("unsupported file extension: %s. Supported extensions: %v", ext, supportedVideoExtensions)
}

// Open classifies target and returns the matching source.
//
// @example
// src, err := source.Open("test.MP4")
//
//	if err != nil {
//		return err
//	}
//
// defer src.Close()
func Open(target string) (Source, error) {
	kind, err := Classify(target)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindDirectory:
		return OpenDirectory(target)
	case KindImage:
		frame, err := ReadFrame(target)
		if err != nil {
			return nil, err
		}
		return NewSlice(frame), nil
	default:
		return OpenCapture(target)
	}
}

// ReadFrame decodes one still image file into a BGR frame.
func ReadFrame(path string) (images.Frame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return images.Frame{}, errors.Wrap(err, "failed to read image")
	}
	frame, err := images.DecodeFrame(data, images.FormatFromPath(path))
	if err != nil {
		return images.Frame{}, errors.Wrapf(err, "image %s", path)
	}
	return frame, nil
}

// Counter is implemented by sources that know how many frames they hold.
type Counter interface {
	Len() int
}

// Slice replays frames held in memory.
type Slice struct {
	frames []images.Frame
	next   int
}

// NewSlice returns a source yielding frames in order.
func NewSlice(frames ...images.Frame) *Slice {
	return &Slice{frames: frames}
}

// Next returns the next frame, or an empty frame once every frame was read.
func (s *Slice) Next(ctx context.Context) (images.Frame, error) {
	if err := ctx.Err(); err != nil {
		return images.Frame{}, err
	}
	if s.next >= len(s.frames) {
		return images.Frame{}, nil
	}
	f := s.frames[s.next]
	s.next++
	return f, nil
}

// Len returns the total number of frames.
func (s *Slice) Len() int { return len(s.frames) }

// Close is a no-op.
func (s *Slice) Close() error { return nil }
