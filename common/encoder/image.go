package encoder

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"image/jpeg"
	"image/png"
	"math"
	"strings"

	"github.com/chai2010/webp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Image output formats, keyed by the container family of the upload
const (
	FormatJPEG = "jpeg"
	FormatPNG  = "png"
	FormatWebP = "webp"
	FormatGIF  = "gif"
)

// ImageSource is a decoded image that can be re-encoded at any quality and scale
type ImageSource interface {
	Encode(ctx context.Context, quality int, scale float64) ([]byte, error)
	Bounds() image.Rectangle
}

// ImageEncoder decodes uploads into re-encodable sources. Encoding is in-process.
type ImageEncoder struct{}

// NewImageEncoder creates an image encoder
func NewImageEncoder() *ImageEncoder {
	return &ImageEncoder{}
}

// FormatForExtension maps a file extension to the format it is re-encoded as
func FormatForExtension(ext string) (string, error) {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg":
		return FormatJPEG, nil
	case ".png":
		return FormatPNG, nil
	case ".webp":
		return FormatWebP, nil
	case ".gif":
		return FormatGIF, nil
	default:
		return "", fmt.Errorf("unsupported image extension %q", ext)
	}
}

// Open decodes data once so repeated encodes skip the decode cost
func (e *ImageEncoder) Open(data []byte, ext string) (ImageSource, error) {
	format, err := FormatForExtension(ext)
	if err != nil {
		return nil, err
	}

	if format == FormatGIF {
		anim, err := gif.DecodeAll(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decode gif: %w", err)
		}
		return &Picture{format: format, anim: anim}, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", format, err)
	}
	return &Picture{format: format, img: img}, nil
}

// Picture is a decoded still image or animation
type Picture struct {
	format string
	img    image.Image
	anim   *gif.GIF
}

// Bounds returns the pixel bounds at scale 1
func (p *Picture) Bounds() image.Rectangle {
	if p.anim != nil {
		return image.Rect(0, 0, p.anim.Config.Width, p.anim.Config.Height)
	}
	return p.img.Bounds()
}

// Encode re-encodes the picture in its original format. quality is 1..100
// and scale in (0, 1] shrinks both dimensions.
func (p *Picture) Encode(ctx context.Context, quality int, scale float64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	quality = clampQuality(quality)

	var buf bytes.Buffer
	var err error

	switch p.format {
	case FormatJPEG:
		img := flatten(resize(p.img, scale))
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	case FormatWebP:
		err = webp.Encode(&buf, resize(p.img, scale), &webp.Options{Quality: float32(quality)})
	case FormatPNG:
		img := posterize(resize(p.img, scale), quality)
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		err = enc.Encode(&buf, img)
	case FormatGIF:
		err = gif.EncodeAll(&buf, p.requantize(scale, quality))
	default:
		err = fmt.Errorf("unknown format %q", p.format)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s q=%d scale=%.2f: %w", p.format, quality, scale, err)
	}
	return buf.Bytes(), nil
}

// requantize rebuilds every frame against a palette sized by quality
func (p *Picture) requantize(scale float64, quality int) *gif.GIF {
	pal := paletteFor(quality)
	out := &gif.GIF{
		Delay:           p.anim.Delay,
		LoopCount:       p.anim.LoopCount,
		Disposal:        p.anim.Disposal,
		BackgroundIndex: 0,
		Config: image.Config{
			ColorModel: pal,
			Width:      scaledDim(p.anim.Config.Width, scale),
			Height:     scaledDim(p.anim.Config.Height, scale),
		},
		Image: make([]*image.Paletted, len(p.anim.Image)),
	}

	for i, frame := range p.anim.Image {
		b := frame.Bounds()
		rect := image.Rect(
			int(float64(b.Min.X)*scale),
			int(float64(b.Min.Y)*scale),
			int(float64(b.Min.X)*scale)+scaledDim(b.Dx(), scale),
			int(float64(b.Min.Y)*scale)+scaledDim(b.Dy(), scale),
		)
		dst := image.NewPaletted(rect, pal)
		var src image.Image = frame
		if scale < 1 {
			scaled := image.NewRGBA(rect)
			draw.ApproxBiLinear.Scale(scaled, rect, frame, b, draw.Src, nil)
			src = scaled
		}
		draw.FloydSteinberg.Draw(dst, rect, src, src.Bounds().Min)
		out.Image[i] = dst
	}
	return out
}

// paletteFor picks an evenly spread subset of the Plan9 palette
func paletteFor(quality int) color.Palette {
	n := int(math.Round(float64(quality) / 100 * 256))
	if n < 2 {
		n = 2
	}
	if n > len(palette.Plan9) {
		n = len(palette.Plan9)
	}
	pal := make(color.Palette, n)
	for i := 0; i < n; i++ {
		pal[i] = palette.Plan9[i*len(palette.Plan9)/n]
	}
	return pal
}

func resize(img image.Image, scale float64) image.Image {
	if scale >= 1 {
		return img
	}
	b := img.Bounds()
	rect := image.Rect(0, 0, scaledDim(b.Dx(), scale), scaledDim(b.Dy(), scale))
	dst := image.NewNRGBA(rect)
	draw.CatmullRom.Scale(dst, rect, img, b, draw.Src, nil)
	return dst
}

// flatten composites transparent pixels onto white since JPEG has no alpha
func flatten(img image.Image) image.Image {
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return img
	}
	b := img.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, image.White, image.Point{}, draw.Src)
	draw.Draw(dst, b, img, b.Min, draw.Over)
	return dst
}

// posterize lowers channel precision so the PNG deflate stage finds more repetition
func posterize(img image.Image, quality int) image.Image {
	levels := int(math.Round(float64(quality) / 100 * 256))
	if levels >= 256 {
		return img
	}
	if levels < 2 {
		levels = 2
	}

	step := 255.0 / float64(levels-1)
	quant := func(v uint8) uint8 {
		return uint8(math.Round(math.Round(float64(v)/step) * step))
	}

	b := img.Bounds()
	dst := image.NewNRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			dst.SetNRGBA(x, y, color.NRGBA{R: quant(c.R), G: quant(c.G), B: quant(c.B), A: c.A})
		}
	}
	return dst
}

func scaledDim(n int, scale float64) int {
	if scale >= 1 {
		return n
	}
	d := int(math.Round(float64(n) * scale))
	if d < 1 {
		d = 1
	}
	return d
}

func clampQuality(q int) int {
	if q < 1 {
		return 1
	}
	if q > 100 {
		return 100
	}
	return q
}
