package composite_renderer

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"

	// registered for image.Decode: providers may answer with JPEG
	_ "image/jpeg"
)

const MaxImages = 4

type rendererImpl struct{}

type Config struct{}

func New(cfg Config) (Renderer, error) {
	return &rendererImpl{}, nil
}

// gridFor returns columns and rows of the contact sheet: one image as is, two
// side by side, three or four in a 2x2 grid.
func gridFor(count int) (int, int) {
	switch count {
	case 1:
		return 1, 1
	case 2:
		return 2, 1
	default:
		return 2, 2
	}
}

func (r *rendererImpl) TileImages(imageBufs []*bytes.Buffer) (*bytes.Buffer, error) {
	if len(imageBufs) == 0 || len(imageBufs) > MaxImages {
		return nil, fmt.Errorf("invalid number of images: %d", len(imageBufs))
	}

	images := make([]image.Image, len(imageBufs))

	for i, buf := range imageBufs {
		img, _, err := image.Decode(buf)
		if err != nil {
			return nil, fmt.Errorf("decoding image %d: %w", i+1, err)
		}

		images[i] = img
	}

	firstBounds := images[0].Bounds()

	for _, img := range images {
		if img.Bounds().Size() != firstBounds.Size() {
			return nil, errors.New("images are not the same size")
		}
	}

	width, height := firstBounds.Dx(), firstBounds.Dy()
	columns, rows := gridFor(len(images))

	retImage := image.NewRGBA(image.Rect(0, 0, width*columns, height*rows))

	for i, img := range images {
		offset := image.Pt((i%columns)*width, (i/columns)*height)
		target := image.Rect(0, 0, width, height).Add(offset)

		draw.Draw(retImage, target, img, img.Bounds().Min, draw.Over)
	}

	imageBuf := new(bytes.Buffer)

	err := png.Encode(imageBuf, retImage)
	if err != nil {
		return nil, err
	}

	return imageBuf, nil
}
