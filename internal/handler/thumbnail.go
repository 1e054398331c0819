package handler

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
)

// Thumbnail is a reference handler: resize the image at
// payload["input_path"] to
// width x height (default 128x128) and write it to
// payload["output_path"] (default input path with a "_thumb" suffix).
// Uses only the standard image packages — no third-party imaging
// library appears anywhere in the retrieved examples, so this is one of
// the handful of places this repo falls back to the standard library
// (see DESIGN.md).
func Thumbnail(ctx context.Context, payload map[string]interface{}) (map[string]interface{}, error) {
	inputPath, _ := payload["input_path"].(string)
	if inputPath == "" {
		return nil, fmt.Errorf("thumbnail handler: missing input_path")
	}
	width := int(floatField(payload, "width", 128))
	height := int(floatField(payload, "height", 128))

	outputPath, _ := payload["output_path"].(string)
	if outputPath == "" {
		ext := filepath.Ext(inputPath)
		outputPath = strings.TrimSuffix(inputPath, ext) + "_thumb" + ext
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	f, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("thumbnail handler: %w", err)
	}
	src, format, err := image.Decode(f)
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("thumbnail handler: decode: %w", err)
	}

	dst := nearestNeighborResize(src, width, height)

	out, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("thumbnail handler: %w", err)
	}
	defer out.Close()

	switch format {
	case "png":
		err = png.Encode(out, dst)
	default:
		err = jpeg.Encode(out, dst, &jpeg.Options{Quality: 85})
	}
	if err != nil {
		return nil, fmt.Errorf("thumbnail handler: encode: %w", err)
	}

	return map[string]interface{}{
		"output_path": outputPath,
		"width":       width,
		"height":      height,
	}, nil
}

// nearestNeighborResize is the minimal standard-library resize this
// handler needs: sample the nearest source pixel for each destination
// pixel. No third-party imaging library appears anywhere in the
// retrieved examples, so there is nothing in the corpus to ground a
// richer resampler on.
func nearestNeighborResize(src image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	bounds := src.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW == 0 || srcH == 0 || width == 0 || height == 0 {
		return dst
	}
	for y := 0; y < height; y++ {
		sy := bounds.Min.Y + y*srcH/height
		for x := 0; x < width; x++ {
			sx := bounds.Min.X + x*srcW/width
			dst.Set(x, y, color.RGBAModel.Convert(src.At(sx, sy)))
		}
	}
	return dst
}
