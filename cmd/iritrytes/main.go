package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/pebble/v2"
	logging "github.com/ipfs/go-log/v2"
	"github.com/jessevdk/go-flags"
	"github.com/tanglekit/iriapi"
	"github.com/tanglekit/iriapi/archive"
	"github.com/tanglekit/iriapi/metrics"
	"github.com/tanglekit/iriapi/retry"
)

var (
	log = logging.Logger("cmd/iritrytes")
)

type (
	trytesLine struct {
		Hash   string `json:"hash"`
		Trytes string `json:"trytes"`
	}
	durationLine struct {
		Duration int64 `json:"duration"`
		Count    int   `json:"count"`
	}
)

func main() {
	cfg, err := parseConfig(os.Args[1:])
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stdout, err)
			os.Exit(0)
		}
		printErrorAndExit(fmt.Sprintf("error parsing command-line arguments: %s", err))
	}

	if _, set := os.LookupEnv("GOLOG_LOG_LEVEL"); !set {
		_ = logging.SetLogLevel("*", cfg.LogLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, os.Stdout); err != nil {
		stop()
		printErrorAndExit(err.Error())
	}
}

func run(ctx context.Context, cfg *configFlags, out io.Writer) error {
	var store *archive.Archive
	if cfg.ArchivePath != "" {
		parsedBlockCacheSize, err := parseBlockCacheSize(cfg.BlockCacheSize)
		if err != nil {
			return fmt.Errorf("invalid archive cache size: %w", err)
		}
		store, err = newArchive(cfg.ArchivePath, int64(parsedBlockCacheSize))
		if err != nil {
			return fmt.Errorf("failed to open archive: %w", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Warnw("Failure occurred while closing archive.", "err", err)
			}
		}()
		log.Infow("Archive opened.", "path", cfg.ArchivePath)
	}

	var m *metrics.Metrics
	if cfg.MetricsAddr != "" {
		var provider func() *pebble.Metrics
		if store != nil {
			provider = store.Metrics
		}
		var err error
		if m, err = metrics.New(cfg.MetricsAddr, provider); err != nil {
			return err
		}
		if err := m.Start(ctx); err != nil {
			return err
		}
		defer func() {
			if err := m.Shutdown(context.Background()); err != nil {
				log.Warnw("Failure occurred while shutting down metrics server.", "err", err)
			}
		}()
	}

	client, err := iriapi.New(cfg.Endpoint,
		iriapi.WithTimeout(time.Duration(cfg.Timeout)*time.Second),
		iriapi.WithMetrics(m))
	if err != nil {
		return err
	}

	var resp *iriapi.GetTrytesResponse
	if cfg.Retries > 1 {
		resp, err = retry.GetTrytes(ctx, client, cfg.Hashes, retry.WithMaxTries(cfg.Retries), retry.WithMetrics(m))
	} else {
		resp, err = client.GetTrytes(ctx, cfg.Hashes)
	}
	if err != nil {
		return err
	}
	fetchedAt := time.Now()
	duration := resp.Duration()
	trytes := resp.TakeTrytes()
	if len(trytes) != len(cfg.Hashes) {
		log.Warnw("Node returned a different number of trytes than requested", "requested", len(cfg.Hashes), "returned", len(trytes))
	}

	enc := json.NewEncoder(out)
	for i, t := range trytes {
		line := trytesLine{Trytes: t}
		if i < len(cfg.Hashes) {
			line.Hash = cfg.Hashes[i]
		}
		if err := enc.Encode(line); err != nil {
			return err
		}
	}
	if err := enc.Encode(durationLine{Duration: duration, Count: len(trytes)}); err != nil {
		return err
	}

	if store != nil {
		n, err := store.PutAll(cfg.Hashes, trytes, fetchedAt)
		if err != nil {
			return fmt.Errorf("failed to archive trytes: %w", err)
		}
		log.Infow("Archived trytes.", "count", n)
	}
	return nil
}

func newArchive(path string, blockCacheSize int64) (*archive.Archive, error) {
	opts := &pebble.Options{
		BytesPerSync:    1 << 20, // 1 MiB
		WALBytesPerSync: 1 << 20, // 1 MiB
	}
	if blockCacheSize > 0 {
		cache := pebble.NewCache(blockCacheSize)
		// The archive holds its own reference from here on.
		defer cache.Unref()
		opts.Cache = cache
	}
	return archive.New(filepath.Clean(path), opts)
}

// parseBlockCacheSize parses a byte size with an optional Ki, Mi or Gi
// suffix, case-insensitive. An empty value is zero.
func parseBlockCacheSize(str string) (uint64, error) {
	if len(str) == 0 {
		return 0, nil
	}
	num := str
	var shift uint
	if len(str) > 2 {
		switch strings.ToLower(str[len(str)-2:]) {
		case "ki":
			shift = 10
		case "mi":
			shift = 20
		case "gi":
			shift = 30
		}
		if shift != 0 {
			num = str[:len(str)-2]
		}
	}
	if strings.HasPrefix(num, "-") {
		return 0, fmt.Errorf("size must not be negative, got %q", str)
	}
	n, err := strconv.ParseUint(num, 10, 64)
	if err != nil {
		return 0, err
	}
	if n > math.MaxInt64>>shift {
		return 0, fmt.Errorf("size %q is too large", str)
	}
	return n << shift, nil
}

func printErrorAndExit(message string) {
	fmt.Fprintln(os.Stderr, message)
	os.Exit(1)
}
