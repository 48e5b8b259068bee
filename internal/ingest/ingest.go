// Package ingest reads line-separated JSON metadata dumps.
package ingest

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/fundus/internal/model"
)

// maxLineBytes bounds a single JSON entry
const maxLineBytes = 64 << 20

// Options control how entries are unwrapped
type Options struct {
	Prefix     string // Dotted path to the payload object inside each entry, empty for the entry itself
	Separator  string // Path separator, defaults to "."
	MaxRecords int    // Entries to read per call, 0 for all
	Workers    int    // Files read concurrently by ReadFiles, 0 for 4
}

// OptionsFromConfig converts the input config section
func OptionsFromConfig(c model.InputConfig) Options {
	return Options{Prefix: c.Prefix, Separator: c.Separator, MaxRecords: c.MaxRecords}
}

// ReadFile reads one dump, decompressing it when the name ends in .gz
func ReadFile(ctx context.Context, path string, opts Options) ([]model.Payload, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open gzip %s: %w", path, err)
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	payloads, err := Read(ctx, r, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return payloads, nil
}

// Read decodes line-separated JSON entries from r. Empty lines are skipped.
func Read(ctx context.Context, r io.Reader, opts Options) ([]model.Payload, error) {
	sep := opts.Separator
	if sep == "" {
		sep = "."
	}
	var prefix []string
	if opts.Prefix != "" {
		prefix = strings.Split(opts.Prefix, sep)
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1<<20), maxLineBytes)

	var payloads []model.Payload
	line := 0
	for scanner.Scan() {
		line++
		if opts.MaxRecords > 0 && len(payloads) >= opts.MaxRecords {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var entry map[string]any
		if err := json.Unmarshal([]byte(text), &entry); err != nil {
			return nil, fmt.Errorf("line %d: decode entry: %w", line, err)
		}

		payload, err := unwrap(entry, prefix)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		payloads = append(payloads, payload)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan input: %w", err)
	}
	return payloads, nil
}

// ReadFiles reads paths concurrently and concatenates their entries in argument order.
// MaxRecords caps the combined result.
func ReadFiles(ctx context.Context, paths []string, opts Options) ([]model.Payload, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = 4
	}

	perFile := make([][]model.Payload, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		g.Go(func() error {
			payloads, err := ReadFile(gctx, path, opts)
			if err != nil {
				return err
			}
			perFile[i] = payloads
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []model.Payload
	for _, payloads := range perFile {
		all = append(all, payloads...)
	}
	if opts.MaxRecords > 0 && len(all) > opts.MaxRecords {
		all = all[:opts.MaxRecords]
	}
	return all, nil
}

func unwrap(entry map[string]any, prefix []string) (model.Payload, error) {
	node := any(entry)
	for i, key := range prefix {
		obj, ok := node.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("prefix %q is not an object", strings.Join(prefix[:i], "."))
		}
		node, ok = obj[key]
		if !ok {
			return nil, fmt.Errorf("prefix %q not found", strings.Join(prefix[:i+1], "."))
		}
	}

	payload, ok := node.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("prefix %q is not an object", strings.Join(prefix, "."))
	}
	return payload, nil
}
