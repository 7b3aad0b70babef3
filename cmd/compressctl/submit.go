package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

var (
	// submit/local flags
	fileType   string
	targetSize string
	sizeFormat string
	outputPath string

	// submit only
	submitTimeout time.Duration
)

func init() {
	rootCmd.AddCommand(submitCmd)

	for _, cmd := range []*cobra.Command{submitCmd, localCmd} {
		cmd.Flags().StringVarP(&fileType, "type", "t", "", "File category: image, video or pdf (required)")
		cmd.Flags().StringVar(&targetSize, "target", "", "Target size (required)")
		cmd.Flags().StringVar(&sizeFormat, "unit", "kb", "Target size unit: kb or mb")
		cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Where to write the result (defaults to the server-provided filename)")
		_ = cmd.MarkFlagRequired("type")
		_ = cmd.MarkFlagRequired("target")
	}
	submitCmd.Flags().DurationVar(&submitTimeout, "timeout", 6*time.Minute, "HTTP timeout for the upload and compression")
}

// submitCmd uploads a file to the server and downloads the result
var submitCmd = &cobra.Command{
	Use:   "submit <file>",
	Short: "Compress a file on the compressor server",
	Long: `Upload a file to the compressor server, wait for the result and download it.

Examples:
  # Compress a photo to 200KB
  compressctl submit --type image --target 200 holiday.jpg

  # Compress a video to 20MB and choose the output name
  compressctl submit -t video --target 20 --unit mb -o small.mp4 talk.mp4`,
	Args: cobra.ExactArgs(1),
	RunE: runSubmit,
}

// CompressionInfo matches compression_info of POST /api/v1/compress
type CompressionInfo struct {
	OriginalSize     int64   `json:"original_size"`
	CompressedSize   int64   `json:"compressed_size"`
	ReductionPercent float64 `json:"reduction_percent"`
	Quality          string  `json:"quality"`
}

// CompressResponse matches POST /api/v1/compress
type CompressResponse struct {
	Status          string          `json:"status"`
	Filename        string          `json:"filename"`
	ArtifactID      string          `json:"artifact_id"`
	DownloadURL     string          `json:"download_url"`
	Message         string          `json:"message"`
	Error           string          `json:"error"`
	CompressionInfo CompressionInfo `json:"compression_info"`
}

// runSubmit handles the submit command
func runSubmit(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", args[0], err)
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fields := map[string]string{
		"file_type":   fileType,
		"target_size": targetSize,
		"size_format": sizeFormat,
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return fmt.Errorf("failed to build request: %w", err)
		}
	}
	part, err := w.CreateFormFile("file", filepath.Base(args[0]))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/compress", serverURL)
	httpReq, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost, url, &body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", w.FormDataContentType())

	client := &http.Client{Timeout: submitTimeout}
	resp, err := client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request to %s: %w", url, err)
	}
	defer resp.Body.Close()

	var result CompressResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("server returned status %d with an unreadable body: %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("compression failed (%s): %s", result.Error, result.Message)
	}

	dest := outputPath
	if dest == "" {
		dest = result.Filename
	}
	written, err := download(cmd, client, serverURL+result.DownloadURL, dest)
	if err != nil {
		return err
	}

	printSummary(cmd.OutOrStdout(), result.CompressionInfo, dest, written)
	return nil
}

// download redeems an artifact URL into dest
func download(cmd *cobra.Command, client *http.Client, url, dest string) (int64, error) {
	httpReq, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return 0, fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("download returned status %d: %s", resp.StatusCode, string(body))
	}

	f, err := os.Create(dest)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", dest, err)
	}
	n, err := io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", dest, err)
	}
	return n, nil
}

func printSummary(out io.Writer, info CompressionInfo, dest string, written int64) {
	fmt.Fprintf(out, "Original:   %d bytes\n", info.OriginalSize)
	fmt.Fprintf(out, "Compressed: %d bytes (%.2f%% smaller)\n", info.CompressedSize, info.ReductionPercent)
	fmt.Fprintf(out, "Quality:    %s\n", info.Quality)
	fmt.Fprintf(out, "Saved %d bytes to %s\n", written, dest)
}
