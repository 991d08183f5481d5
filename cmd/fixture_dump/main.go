// Command fixture_dump fetches every registered stock upstream once and writes
// the raw bodies to disk, for refreshing normalizer test fixtures.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"fioso/internal/httpx"
	"fioso/internal/logging"
	"fioso/internal/provider"
	"fioso/internal/store"
)

func main() {
	var (
		outDir      string
		concurrency int
		timeoutSec  int
		verbose     bool
	)
	flag.StringVar(&outDir, "out", "testdata", "directory to write raw bodies into")
	flag.IntVar(&concurrency, "concurrency", 2, "number of parallel requests")
	flag.IntVar(&timeoutSec, "timeout", 20, "HTTP timeout seconds")
	flag.BoolVar(&verbose, "v", false, "debug logging")
	flag.Parse()

	logger := logging.New(os.Stderr, logging.Level(verbose))

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		logger.Fatal("create out dir", "err", err)
	}

	hc := httpx.New(time.Duration(timeoutSec) * time.Second)
	table := store.DefaultTable()
	ctx := logging.WithLogger(context.Background(), logger)

	var g errgroup.Group
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for _, p := range table.Pairs() {
		entry, _ := table.Lookup(p.Domain, p.Provider)
		g.Go(func() error {
			path := filepath.Join(outDir, fixtureName(p, entry.Format))
			n, err := dump(ctx, hc, entry.Request, path)
			if err != nil {
				// logged and skipped; the other pairs still run
				logger.Warn("dump failed", "type", p.Domain, "apitype", p.Provider, "err", err)
				return nil
			}
			logger.Info("dumped", "type", p.Domain, "apitype", p.Provider, "bytes", n, "path", path)
			return nil
		})
	}
	_ = g.Wait()
	logger.Info("done", "dir", outDir)
}

func fixtureName(p store.Pair, f provider.Format) string {
	ext := ".json"
	if f == provider.FormatText {
		ext = ".wiki"
	}
	return strings.ToLower(p.Domain + "_" + p.Provider + ext)
}

func dump(ctx context.Context, hc *httpx.Client, r provider.Request, path string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.URL, nil)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}
	resp, err := hc.Do(req)
	if err != nil {
		return 0, fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<10))
		return 0, fmt.Errorf("http %d: %s", resp.StatusCode, b)
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	n, err := io.Copy(f, resp.Body)
	if err != nil {
		return n, fmt.Errorf("writing %s: %w", path, err)
	}
	return n, nil
}
