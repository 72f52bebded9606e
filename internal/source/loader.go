package source

import (
	"context"
	"fmt"
	"image"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/kenburns/internal/geometry"
)

// Ref names one page of one input.
type Ref struct {
	Path string
	Page int
}

// Loaded is a decoded page ready to become a clip.
type Loaded struct {
	Ref        Ref
	Image      image.Image
	Descriptor geometry.ImageDescriptor
}

// LoadAll decodes every ref with at most workers in parallel. Results keep
// the order of refs. The first failure cancels the remaining loads.
func LoadAll(ctx context.Context, refs []Ref, dpi, workers int) ([]Loaded, error) {
	out := make([]Loaded, len(refs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, workers))
	for i, ref := range refs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			img, err := load(ref, dpi)
			if err != nil {
				return fmt.Errorf("clip %d: %w", i+1, err)
			}
			out[i] = Loaded{Ref: ref, Image: img, Descriptor: Describe(img)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// load opens its own source: fitz documents are not safe for concurrent use.
func load(ref Ref, dpi int) (image.Image, error) {
	src, err := Open(ref.Path)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return src.RenderPage(ref.Page, dpi)
}
