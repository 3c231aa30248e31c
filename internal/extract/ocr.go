package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"docintake/internal/config"
)

// Runner lets us stub external commands in tests.
type Runner interface {
	Run(ctx context.Context, stdin []byte, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct {
	log *zap.Logger
}

// NewExecRunner runs commands with os/exec, logging failures.
func NewExecRunner(log *zap.Logger) Runner {
	return execRunner{log: log}
}

func (r execRunner) Run(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdin = bytes.NewReader(stdin)
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	dur := time.Since(start)

	if err != nil {
		r.log.Error("exec_failed",
			zap.String("cmd", name),
			zap.String("args", strings.Join(args, " ")),
			zap.Int64("duration_ms", dur.Milliseconds()),
			zap.Error(err),
			zap.String("stderr", truncate(errb.String(), 8<<10)),
		)
	} else {
		r.log.Debug("exec_ok",
			zap.String("cmd", name),
			zap.Int64("duration_ms", dur.Milliseconds()),
			zap.Int("stdout_bytes", out.Len()),
		)
	}

	return out.Bytes(), errb.Bytes(), err
}

// OCR recognises text in raster images with the tesseract CLI.
type OCR struct {
	binary   string
	language string
	timeout  time.Duration
	runner   Runner
}

// NewOCR builds an OCR engine. Empty settings fall back to "tesseract" and "eng".
func NewOCR(cfg config.OCRConfig, runner Runner) *OCR {
	o := &OCR{binary: cfg.Binary, language: cfg.Language, timeout: cfg.Timeout, runner: runner}
	if o.binary == "" {
		o.binary = "tesseract"
	}
	if o.language == "" {
		o.language = "eng"
	}
	return o
}

// Recognize feeds the image through stdin: tesseract stdin stdout -l <lang>.
// An unreadable image yields an empty string, not an error.
func (o *OCR) Recognize(ctx context.Context, image []byte) (string, error) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	out, errb, err := o.runner.Run(ctx, image, o.binary, "stdin", "stdout", "-l", o.language)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: ocr timed out after %s", ErrExtraction, o.timeout)
		}
		return "", fmt.Errorf("%w: tesseract: %v: %s", ErrExtraction, err, truncate(strings.TrimSpace(string(errb)), 512))
	}
	return strings.TrimSpace(string(out)), nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
