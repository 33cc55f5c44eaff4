package main

import (
	"errors"

	"github.com/jessevdk/go-flags"
)

var (
	defaultEndpoint        = "http://localhost:14265"
	defaultTimeout  uint64 = 30
	defaultRetries  uint   = 1
	defaultLogLevel        = "info"
)

type configFlags struct {
	Endpoint       string `short:"e" long:"endpoint" env:"IRI_ENDPOINT" description:"Node API endpoint to send commands to"`
	Timeout        uint64 `short:"t" long:"timeout" description:"Timeout for each request (in seconds), 0 for none"`
	Retries        uint   `long:"retries" description:"Total number of attempts on transport failure"`
	ArchivePath    string `long:"archive" description:"Path of a tryte archive to store fetched trytes in"`
	BlockCacheSize string `long:"archive-cache" default:"64Mi" description:"Size of the archive block cache. Can be set in Ki, Mi or Gi"`
	MetricsAddr    string `long:"metrics-addr" description:"Listen address of the metrics HTTP server, disabled when empty"`
	LogLevel       string `long:"log-level" description:"The logging level. Only applied if GOLOG_LOG_LEVEL environment variable is unset"`
	Hashes         []string
}

func parseConfig(args []string) (*configFlags, error) {
	cfg := &configFlags{
		Endpoint: defaultEndpoint,
		Timeout:  defaultTimeout,
		Retries:  defaultRetries,
		LogLevel: defaultLogLevel,
	}
	parser := flags.NewParser(cfg, flags.HelpFlag)
	parser.Usage = "[OPTIONS] HASH...\n\nFetches the raw trytes of the transactions with the given hashes."
	remainingArgs, err := parser.ParseArgs(args)
	if err != nil {
		return nil, err
	}

	if len(remainingArgs) == 0 {
		return nil, errors.New("at least one transaction hash must be specified")
	}
	if cfg.Retries == 0 {
		return nil, errors.New("--retries must be at least 1")
	}
	cfg.Hashes = remainingArgs
	return cfg, nil
}
