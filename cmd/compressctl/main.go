// Package main implements compressctl, a CLI for the compressor service and
// for running the compression engine locally.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	// serverURL is the base URL of the compressor HTTP server
	serverURL string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "compressctl",
	Short: "CLI for the target-size compressor",
	Long: `compressctl compresses images, videos and PDFs to a target size.

It either talks to a running compressor server (submit, health) or runs the
engine in-process against a local file (local).`,
	Version:      version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "compressor server URL")
	rootCmd.AddCommand(healthCmd)
}

// healthCmd checks server health
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check compressor server health",
	Long: `Check the health of the compressor server, including which encoder
tools it found at startup.

Examples:
  # Check health
  compressctl health

  # Check health on a different server
  compressctl health --server http://compressor:8080`,
	Args: cobra.NoArgs,
	RunE: runHealth,
}

// ToolStatus matches the tools entries of GET /health
type ToolStatus struct {
	Available bool   `json:"available"`
	Version   string `json:"version"`
}

// HealthResponse matches GET /health
type HealthResponse struct {
	Status  string                `json:"status"`
	Service string                `json:"service"`
	Tools   map[string]ToolStatus `json:"tools"`
}

// runHealth handles the health command
func runHealth(cmd *cobra.Command, args []string) error {
	url := fmt.Sprintf("%s/health", serverURL)

	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	var health HealthResponse
	if err := json.Unmarshal(body, &health); err != nil {
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Server Status: %s\n", health.Status)
	fmt.Fprintf(out, "Server URL: %s\n", serverURL)
	for _, name := range []string{"ffmpeg", "ffprobe", "ghostscript"} {
		tool, ok := health.Tools[name]
		switch {
		case !ok:
			continue
		case tool.Available:
			fmt.Fprintf(out, "  %-12s %s\n", name, tool.Version)
		default:
			fmt.Fprintf(out, "  %-12s missing\n", name)
		}
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}
	return nil
}
