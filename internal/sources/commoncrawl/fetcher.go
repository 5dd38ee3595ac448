package commoncrawl

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/webrewind/webrewind/internal/config"
	"github.com/webrewind/webrewind/internal/errorwrapper"
)

// FetcherBinary launches the external WARC/WAT fetcher. The binary accepts a
// list of domains or pre-computed index records, streams NDJSON output (one
// content record per line), and exits 0 on success. When the binary is not
// installed the adapters built on it report themselves unavailable and the
// orchestrator degrades to CDX metadata.
type FetcherBinary struct {
	path    string
	threads int
	timeout time.Duration
	logger  zerolog.Logger
}

// NewFetcherBinary probes the configured binary path once at construction.
func NewFetcherBinary(cfg config.CommonCrawlConfig, logger zerolog.Logger) *FetcherBinary {
	fb := &FetcherBinary{
		path:    cfg.FetcherBinaryPath,
		threads: cfg.FetcherThreads,
		timeout: time.Duration(cfg.FetcherTimeoutSecs) * time.Second,
		logger:  logger.With().Str("component", "CCFetcherBinary").Logger(),
	}
	if fb.threads <= 0 {
		fb.threads = config.DefaultCCFetcherThreads
	}
	if fb.timeout <= 0 {
		fb.timeout = config.DefaultCCFetcherTimeout * time.Second
	}
	if !fb.Available() {
		fb.logger.Debug().Str("path", fb.path).Msg("WARC/WAT fetcher binary not found, data adapters disabled")
	}
	return fb
}

// Available reports whether the binary exists and is executable.
func (fb *FetcherBinary) Available() bool {
	if fb.path == "" {
		return false
	}
	if _, err := exec.LookPath(fb.path); err != nil {
		return false
	}
	return true
}

// FetcherRecord is one NDJSON line of the binary's output.
type FetcherRecord struct {
	URL       string `json:"url"`
	HTML      string `json:"html,omitempty"`
	Text      string `json:"text,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Status    int    `json:"status,omitempty"`
	MIME      string `json:"mime,omitempty"`
	Digest    string `json:"digest,omitempty"`
	// WAT mode populates link metadata instead of content.
	Links []FetcherLink `json:"links,omitempty"`
}

// FetcherLink is one extracted outlink from a WAT record.
type FetcherLink struct {
	Target string `json:"target"`
	Anchor string `json:"anchor,omitempty"`
}

// RunInput selects what the binary operates on: a list of domains, or a file
// of pre-computed index records.
type RunInput struct {
	Domains   []string
	InputPath string
}

// Run launches one subcommand ("warc" or "wat") of the fetcher binary, waits
// for it, and parses the NDJSON output file. Temp files are removed on every
// exit path.
func (fb *FetcherBinary) Run(ctx context.Context, subcommand, archive string, input RunInput) ([]FetcherRecord, error) {
	if !fb.Available() {
		return nil, errorwrapper.ErrSourceUnavailable
	}
	if len(input.Domains) == 0 && input.InputPath == "" {
		return nil, errorwrapper.NewValidationError("input", input, "fetcher needs domains or an input file")
	}

	workDir, err := os.MkdirTemp("", "webrewind_cc_*")
	if err != nil {
		return nil, errorwrapper.WrapError(err, "failed to create fetcher work directory")
	}
	defer os.RemoveAll(workDir)

	outputPath := filepath.Join(workDir, "output.ndjson")
	args := []string{
		subcommand,
		"--archive=" + archive,
		"--threads=" + strconv.Itoa(fb.threads),
		"--timeout=" + strconv.Itoa(int(fb.timeout.Seconds())),
		"--output=" + outputPath,
	}
	if input.InputPath != "" {
		args = append(args, "--input="+input.InputPath)
	} else {
		args = append(args, "--domains="+strings.Join(input.Domains, ","))
	}

	runCtx, cancel := context.WithTimeout(ctx, fb.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, fb.path, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	fb.logger.Debug().Str("subcommand", subcommand).Str("archive", archive).Msg("Launching fetcher binary")
	if err := cmd.Run(); err != nil {
		if runCtx.Err() != nil {
			return nil, runCtx.Err()
		}
		fb.logger.Debug().Err(err).Str("stderr", stderr.String()).Msg("Fetcher binary failed")
		return nil, errorwrapper.WrapError(err, "fetcher binary exited non-zero")
	}

	return parseFetcherOutput(outputPath)
}

// WriteInputRecords writes pre-computed index records as an NDJSON input file
// inside dir for the binary to consume.
func WriteInputRecords(dir string, records []FetcherInputRecord) (string, error) {
	file, err := os.CreateTemp(dir, "cc_input_*.ndjson")
	if err != nil {
		return "", errorwrapper.WrapError(err, "failed to create fetcher input file")
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, rec := range records {
		line, err := json.Marshal(rec)
		if err != nil {
			continue
		}
		writer.Write(line)
		writer.WriteByte('\n')
	}
	if err := writer.Flush(); err != nil {
		os.Remove(file.Name())
		return "", errorwrapper.WrapError(err, "failed to write fetcher input file")
	}
	return file.Name(), nil
}

// FetcherInputRecord is one pre-computed index record handed to the binary:
// the WARC coordinates of a capture to extract.
type FetcherInputRecord struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Offset   int64  `json:"offset"`
	Length   int64  `json:"length"`
}

// parseFetcherOutput reads the NDJSON result file, skipping malformed lines.
func parseFetcherOutput(path string) ([]FetcherRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errorwrapper.WrapError(err, "failed to open fetcher output")
	}
	defer file.Close()

	var records []FetcherRecord
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec FetcherRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		if rec.URL == "" {
			continue
		}
		records = append(records, rec)
	}
	return records, scanner.Err()
}
