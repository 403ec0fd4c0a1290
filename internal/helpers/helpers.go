// Package helpers invokes the on-device capture and text-recognition
// helper processes. Each helper is a one-shot request/response unit: run,
// read output, done. The client depends only on this contract, not on how
// capture or recognition is implemented.
package helpers

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/opscinema/cinectl/internal/rpc"
)

// CaptureHelper wraps the screen-capture helper binary. The helper takes an
// output path, writes a PNG there, and exits non-zero with a diagnostic on
// stderr when it cannot (missing display, unsupported OS version, encode
// failure).
type CaptureHelper struct {
	Binary string
}

// Snap captures one frame to outputPath.
func (h *CaptureHelper) Snap(ctx context.Context, outputPath string) error {
	if h.Binary == "" {
		return fmt.Errorf("capture helper binary not configured")
	}
	cmd := exec.CommandContext(ctx, h.Binary, outputPath)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("capture helper: %s: %w", helperDiagnostic(&stderr), err)
	}
	return nil
}

// RecognitionHelper wraps the OCR helper binary. The helper takes an image
// path and writes one JSON object per line to stdout:
//
//	{"text": "...", "confidence": 0.97, "x": 0.1, "y": 0.2, "w": 0.3, "h": 0.05}
//
// with normalized [0,1] coordinates, ordered top to bottom. A non-zero exit
// with a stderr diagnostic means the image could not be loaded or
// recognition failed.
type RecognitionHelper struct {
	Binary string
}

// Recognize runs the helper over the image at path and returns the ordered
// block records.
func (h *RecognitionHelper) Recognize(ctx context.Context, imagePath string) ([]rpc.OcrBlock, error) {
	if h.Binary == "" {
		return nil, fmt.Errorf("recognition helper binary not configured")
	}
	cmd := exec.CommandContext(ctx, h.Binary, imagePath)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("recognition helper: %s: %w", helperDiagnostic(&stderr), err)
	}
	return ParseRecognitionOutput(stdout.Bytes())
}

func helperDiagnostic(stderr *bytes.Buffer) string {
	diag := strings.TrimSpace(stderr.String())
	if diag == "" {
		return "no diagnostic output"
	}
	// First line only; helpers sometimes dump stack traces after it.
	if idx := strings.IndexByte(diag, '\n'); idx >= 0 {
		diag = diag[:idx]
	}
	return diag
}
