package encoder

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// VideoInfo is what the bitrate model needs to know about an input stream
type VideoInfo struct {
	Duration   float64 // seconds
	Width      int
	Height     int
	HasAudio   bool
	FormatName string
}

// VideoOptions is one transcode parameter vector
type VideoOptions struct {
	BitrateKbps int
	AudioKbps   int
	Width       int // 0 keeps the source width
	Height      int // 0 keeps the source height
	TwoPass     bool
	HasAudio    bool
}

// VideoEncoder drives ffprobe and ffmpeg
type VideoEncoder struct {
	runner      Runner
	ffmpegPath  string
	ffprobePath string
}

// NewVideoEncoder creates a video encoder using the given binaries
func NewVideoEncoder(runner Runner, ffmpegPath, ffprobePath string) *VideoEncoder {
	return &VideoEncoder{runner: runner, ffmpegPath: ffmpegPath, ffprobePath: ffprobePath}
}

// Available reports whether both binaries resolve
func (e *VideoEncoder) Available() bool {
	return Available(e.ffmpegPath) && Available(e.ffprobePath)
}

type probeOutput struct {
	Format struct {
		Duration   string `json:"duration"`
		FormatName string `json:"format_name"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
		Duration  string `json:"duration"`
	} `json:"streams"`
}

// Probe reads duration and geometry of input
func (e *VideoEncoder) Probe(ctx context.Context, input string) (VideoInfo, error) {
	stdout, _, err := e.runner.Run(ctx, e.ffprobePath,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		input,
	)
	if err != nil {
		return VideoInfo{}, err
	}
	return ParseProbe(stdout)
}

// ParseProbe decodes ffprobe JSON output
func ParseProbe(raw []byte) (VideoInfo, error) {
	var out probeOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return VideoInfo{}, fmt.Errorf("parse ffprobe output: %w", err)
	}

	info := VideoInfo{FormatName: out.Format.FormatName}
	info.Duration, _ = strconv.ParseFloat(out.Format.Duration, 64)

	for _, s := range out.Streams {
		switch s.CodecType {
		case "video":
			if info.Width == 0 {
				info.Width, info.Height = s.Width, s.Height
			}
			if info.Duration <= 0 {
				info.Duration, _ = strconv.ParseFloat(s.Duration, 64)
			}
		case "audio":
			info.HasAudio = true
		}
	}
	return info, nil
}

// Encode transcodes input into output at opts. The container is chosen by
// output's extension.
func (e *VideoEncoder) Encode(ctx context.Context, input, output string, opts VideoOptions) error {
	if !opts.TwoPass {
		_, _, err := e.runner.Run(ctx, e.ffmpegPath, VideoArgs(input, output, opts, 0, "")...)
		return err
	}

	passLog := strings.TrimSuffix(output, filepath.Ext(output)) + "_passlog"
	defer removePassLogs(passLog)

	if _, _, err := e.runner.Run(ctx, e.ffmpegPath, VideoArgs(input, output, opts, 1, passLog)...); err != nil {
		return err
	}
	_, _, err := e.runner.Run(ctx, e.ffmpegPath, VideoArgs(input, output, opts, 2, passLog)...)
	return err
}

// VideoArgs builds the ffmpeg argument list. pass is 0 for single pass,
// 1 or 2 for the two-pass analysis and final pass.
func VideoArgs(input, output string, opts VideoOptions, pass int, passLog string) []string {
	ext := strings.ToLower(filepath.Ext(output))
	webm := ext == ".webm"

	args := []string{"-y", "-hide_banner", "-loglevel", "error", "-i", input}

	if opts.Width > 0 && opts.Height > 0 {
		args = append(args, "-vf", fmt.Sprintf("scale=%d:%d", opts.Width, opts.Height))
	}

	bitrate := opts.BitrateKbps
	maxrate := bitrate * 12 / 10
	bufsize := bitrate * 3 / 2
	if bufsize > 2000 {
		bufsize = 2000
	}

	if webm {
		args = append(args, "-c:v", "libvpx-vp9", "-deadline", "good", "-cpu-used", "4")
	} else {
		args = append(args, "-c:v", "libx264", "-preset", "fast")
	}
	args = append(args,
		"-b:v", fmt.Sprintf("%dk", bitrate),
		"-maxrate", fmt.Sprintf("%dk", maxrate),
		"-bufsize", fmt.Sprintf("%dk", bufsize),
	)

	if pass > 0 {
		args = append(args, "-pass", strconv.Itoa(pass), "-passlogfile", passLog)
	}

	if pass == 1 {
		return append(args, "-an", "-f", "null", os.DevNull)
	}

	if opts.HasAudio {
		if webm {
			args = append(args, "-c:a", "libopus")
		} else {
			args = append(args, "-c:a", "aac")
		}
		args = append(args, "-b:a", fmt.Sprintf("%dk", opts.AudioKbps))
	} else {
		args = append(args, "-an")
	}

	if ext == ".mp4" || ext == ".mov" {
		args = append(args, "-movflags", "+faststart")
	}

	return append(args, output)
}

// EvenDimensions scales w x h and rounds each side down to an even number,
// which H.264 and VP9 require.
func EvenDimensions(w, h int, scale float64) (int, int) {
	even := func(n int) int {
		v := int(float64(n) * scale)
		v -= v % 2
		if v < 2 {
			v = 2
		}
		return v
	}
	return even(w), even(h)
}

func removePassLogs(prefix string) {
	matches, _ := filepath.Glob(prefix + "*")
	for _, m := range matches {
		_ = os.Remove(m)
	}
}
