package tagger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const (
	placeholderModel = "{model}"
	placeholderTop   = "{top}"
	placeholderFile  = "{file}"

	stderrLimit = 512
)

// ExecTagger runs an external tagging program once per model. The program
// must print a JSON array of tags, most relevant first, on stdout.
type ExecTagger struct {
	Command string
	// Args may reference {model}, {top} and {file}.
	Args    []string
	Timeout time.Duration
}

// NewExecTagger returns an ExecTagger for command and args.
func NewExecTagger(command string, args []string, timeout time.Duration) *ExecTagger {
	return &ExecTagger{Command: command, Args: args, Timeout: timeout}
}

func (e *ExecTagger) TopTags(ctx context.Context, file string, model Model, topN int) ([]string, error) {
	if e.Command == "" {
		return nil, errors.New("tagger command not configured")
	}
	if file == "" {
		return nil, errors.New("file required")
	}

	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	args := e.expandArgs(file, model, topN)
	cmd := exec.CommandContext(ctx, e.Command, args...) //nolint:gosec // command comes from config
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Debug("running tagger", "model", model, "file", file, "command", e.Command)
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("running %s: %w: %s", e.Command, err, tail(stderr.String()))
	}

	var tags []string
	if err := json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), &tags); err != nil {
		return nil, fmt.Errorf("decoding %s output: %w", model, err)
	}

	if len(tags) > topN {
		tags = tags[:topN]
	}
	slog.Debug("tagger finished", "model", model, "tags", tags)
	return tags, nil
}

func (e *ExecTagger) expandArgs(file string, model Model, topN int) []string {
	r := strings.NewReplacer(
		placeholderModel, string(model),
		placeholderTop, strconv.Itoa(topN),
		placeholderFile, file,
	)
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = r.Replace(a)
	}
	return args
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > stderrLimit {
		return s[len(s)-stderrLimit:]
	}
	return s
}
