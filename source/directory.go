package source

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-busstop/images"
)

// ImageFile is one still frame on disk.
type ImageFile struct {
	// Path is the path to the image file.
	Path string
	// Frame is the frame number parsed from the file name, or -1.
	Frame int
}

// ListImageFiles returns the decodable image files of dir in frame order.
//
// Files named like "frame-12.png" are ordered by their number. Files without
// a number come after them, ordered by name.
//
// Arguments:
// - dir: Directory path containing image files.
//
// Returns:
// - []ImageFile: The image files, sorted.
// - error: Error if the directory cannot be read.
func ListImageFiles(dir string) ([]ImageFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read frame directory")
	}

	var files []ImageFile
	for _, entry := range entries {
		if entry.IsDir() || images.FormatFromPath(entry.Name()) == images.FormatUnknown {
			continue
		}
		files = append(files, ImageFile{
			Path:  filepath.Join(dir, entry.Name()),
			Frame: frameNumber(entry.Name()),
		})
	}

	sort.SliceStable(files, func(i, j int) bool {
		a, b := files[i], files[j]
		switch {
		case a.Frame >= 0 && b.Frame >= 0 && a.Frame != b.Frame:
			return a.Frame < b.Frame
		case a.Frame >= 0 && b.Frame < 0:
			return true
		case a.Frame < 0 && b.Frame >= 0:
			return false
		default:
			return a.Path < b.Path
		}
	})

	return files, nil
}

// frameNumber extracts the trailing integer of a file name without its
// extension, e.g. 12 for "frame-12.png".
func frameNumber(name string) int {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	i := len(stem)
	for i > 0 && stem[i-1] >= '0' && stem[i-1] <= '9' {
		i--
	}
	n, err := strconv.Atoi(stem[i:])
	if err != nil {
		return -1
	}
	return n
}

// Directory reads still frames from a directory, one file per call to Next.
type Directory struct {
	files []ImageFile
	next  int
}

// OpenDirectory lists the frames of dir.
func OpenDirectory(dir string) (*Directory, error) {
	files, err := ListImageFiles(dir)
	if err != nil {
		return nil, err
	}
	return &Directory{files: files}, nil
}

// Next decodes the next file. A file that fails to decode is reported as an
// error and skipped on the following call.
func (d *Directory) Next(ctx context.Context) (images.Frame, error) {
	if err := ctx.Err(); err != nil {
		return images.Frame{}, err
	}
	if d.next >= len(d.files) {
		return images.Frame{}, nil
	}
	file := d.files[d.next]
	d.next++
	return ReadFrame(file.Path)
}

// Len returns the number of frames in the directory.
func (d *Directory) Len() int { return len(d.files) }

// Files returns the listed files in frame order.
func (d *Directory) Files() []ImageFile { return d.files }

// Close is a no-op.
func (d *Directory) Close() error { return nil }
