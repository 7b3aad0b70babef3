package encoder

import (
	"context"
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/lyzr/compressor/common/logger"
)

// PDFOptions is one recompression parameter vector. Quality applies to every
// embedded raster image; DPI of 0 leaves pixel dimensions untouched.
type PDFOptions struct {
	Quality int
	DPI     int
}

// PDFEncoder recompresses embedded images with Ghostscript and reassembles the
// document with pdfcpu.
type PDFEncoder struct {
	runner Runner
	gsPath string
	log    *logger.Logger
}

// NewPDFEncoder creates a PDF encoder using the Ghostscript binary at gsPath
func NewPDFEncoder(runner Runner, gsPath string, log *logger.Logger) *PDFEncoder {
	return &PDFEncoder{runner: runner, gsPath: gsPath, log: log}
}

// Available reports whether Ghostscript resolves
func (e *PDFEncoder) Available() bool {
	return Available(e.gsPath)
}

// CountImages returns the number of image XObjects in the document
func (e *PDFEncoder) CountImages(ctx context.Context, input string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	pdfCtx, err := api.ReadContextFile(input)
	if err != nil {
		return 0, fmt.Errorf("read pdf: %w", err)
	}

	count := 0
	for _, entry := range pdfCtx.XRefTable.Table {
		if entry == nil || entry.Free || entry.Object == nil {
			continue
		}
		if isImageStream(entry.Object) {
			count++
		}
	}
	return count, nil
}

func isImageStream(obj types.Object) bool {
	var dict types.Dict
	switch sd := obj.(type) {
	case types.StreamDict:
		dict = sd.Dict
	case *types.StreamDict:
		dict = sd.Dict
	default:
		return false
	}
	name, ok := dict["Subtype"].(types.Name)
	return ok && string(name) == "Image"
}

// Compress rewrites input into output with every image re-encoded at opts
func (e *PDFEncoder) Compress(ctx context.Context, input, output string, opts PDFOptions) error {
	gsOut := output + ".gs"
	defer os.Remove(gsOut)

	if _, _, err := e.runner.Run(ctx, e.gsPath, GhostscriptArgs(input, gsOut, opts)...); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := api.OptimizeFile(gsOut, output, nil); err != nil {
		// pdfcpu rejects some Ghostscript output; the unoptimized file is still valid
		e.log.Debug("pdfcpu optimize skipped", "error", err)
		return os.Rename(gsOut, output)
	}

	gsSize, err1 := fileSize(gsOut)
	optSize, err2 := fileSize(output)
	if err1 == nil && err2 == nil && gsSize < optSize {
		return os.Rename(gsOut, output)
	}
	return nil
}

// GhostscriptArgs builds the pdfwrite invocation for one pass
func GhostscriptArgs(input, output string, opts PDFOptions) []string {
	args := []string{
		"-sDEVICE=pdfwrite",
		"-dCompatibilityLevel=1.5",
		"-dNOPAUSE",
		"-dQUIET",
		"-dBATCH",
		"-dSAFER",
		"-dAutoRotatePages=/None",
		"-dPassThroughJPEGImages=false",
		"-dPassThroughJPXImages=false",
		"-dAutoFilterColorImages=false",
		"-dAutoFilterGrayImages=false",
		"-dColorImageFilter=/DCTEncode",
		"-dGrayImageFilter=/DCTEncode",
		"-dSubsetFonts=true",
		"-dCompressFonts=true",
		"-dOptimize=true",
	}

	if opts.DPI > 0 {
		args = append(args,
			"-dDownsampleColorImages=true",
			"-dDownsampleGrayImages=true",
			"-dDownsampleMonoImages=true",
			"-dColorImageDownsampleType=/Bicubic",
			"-dGrayImageDownsampleType=/Bicubic",
			"-dMonoImageDownsampleType=/Bicubic",
			"-dColorImageDownsampleThreshold=1.0",
			"-dGrayImageDownsampleThreshold=1.0",
			"-dMonoImageDownsampleThreshold=1.0",
			fmt.Sprintf("-dColorImageResolution=%d", opts.DPI),
			fmt.Sprintf("-dGrayImageResolution=%d", opts.DPI),
			fmt.Sprintf("-dMonoImageResolution=%d", opts.DPI),
		)
	} else {
		args = append(args,
			"-dDownsampleColorImages=false",
			"-dDownsampleGrayImages=false",
			"-dDownsampleMonoImages=false",
		)
	}

	q := QFactor(opts.Quality)
	params := fmt.Sprintf(
		"<< /ColorImageDict << /QFactor %.2f /Blend 1 /HSamples [2 1 1 2] /VSamples [2 1 1 2] >> "+
			"/GrayImageDict << /QFactor %.2f /Blend 1 /HSamples [2 1 1 2] /VSamples [2 1 1 2] >> >> setdistillerparams",
		q, q,
	)

	return append(args, "-sOutputFile="+output, "-c", params, "-f", input)
}

// QFactor maps quality 1..100 onto the DCT QFactor, where lower means finer
func QFactor(quality int) float64 {
	quality = clampQuality(quality)
	return 0.1 + float64(100-quality)/100*2.4
}
