package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tanglekit/iriapi"
	"github.com/tanglekit/iriapi/archive"
)

var (
	fishHash    = strings.Repeat("F", 81)
	lobsterHash = strings.Repeat("L", 81)
)

func TestParseConfig(t *testing.T) {
	t.Setenv("IRI_ENDPOINT", "")
	require.NoError(t, os.Unsetenv("IRI_ENDPOINT"))

	cfg, err := parseConfig([]string{fishHash, lobsterHash})
	require.NoError(t, err)
	require.Equal(t, defaultEndpoint, cfg.Endpoint)
	require.Equal(t, defaultTimeout, cfg.Timeout)
	require.Equal(t, defaultRetries, cfg.Retries)
	require.Equal(t, "64Mi", cfg.BlockCacheSize)
	require.Equal(t, []string{fishHash, lobsterHash}, cfg.Hashes)

	cfg, err = parseConfig([]string{"-e", "https://node.example.com", "-t", "5", "--retries", "4", fishHash})
	require.NoError(t, err)
	require.Equal(t, "https://node.example.com", cfg.Endpoint)
	require.Equal(t, uint64(5), cfg.Timeout)
	require.Equal(t, uint(4), cfg.Retries)

	t.Setenv("IRI_ENDPOINT", "http://env.example.com:14265")
	cfg, err = parseConfig([]string{fishHash})
	require.NoError(t, err)
	require.Equal(t, "http://env.example.com:14265", cfg.Endpoint)

	_, err = parseConfig(nil)
	require.Error(t, err)
	_, err = parseConfig([]string{"--retries", "0", fishHash})
	require.Error(t, err)
}

func TestParseBlockCacheSize(t *testing.T) {
	tests := []struct {
		given   string
		want    uint64
		wantErr bool
	}{
		{given: "", want: 0},
		{given: "12", want: 12},
		{given: "64Mi", want: 64 << 20},
		{given: "1gi", want: 1 << 30},
		{given: "1024", want: 1024},
		{given: "fish", wantErr: true},
		{given: "64Ki", want: 64 << 10},
		{given: "2KI", want: 2 << 10},
		{given: "7", want: 7},
		{given: "-5", wantErr: true},
		{given: "-1", wantErr: true},
		{given: "-1Mi", wantErr: true},
		{given: "+1Mi", wantErr: true},
		{given: "Mi", wantErr: true},
		{given: "9999999999Gi", wantErr: true},
		{given: "18446744073709551615", wantErr: true},
	}
	for _, test := range tests {
		t.Run(test.given, func(t *testing.T) {
			got, err := parseBlockCacheSize(test.given)
			if test.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, test.want, got)
		})
	}
}

func TestRun(t *testing.T) {
	var gotBody []byte
	node := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error
		gotBody, err = io.ReadAll(r.Body)
		require.NoError(t, err)
		_, _ = io.WriteString(w, `{"duration": 3, "trytes": ["FISH", "`+strings.Repeat("9", 27)+`"]}`)
	}))
	defer node.Close()

	archivePath := t.TempDir()
	cfg := &configFlags{
		Endpoint:       node.URL,
		Timeout:        5,
		Retries:        2,
		ArchivePath:    archivePath,
		BlockCacheSize: "1Mi",
		Hashes:         []string{fishHash, lobsterHash},
	}
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), cfg, &out))
	require.JSONEq(t, `{"command":"getTrytes","hashes":["`+fishHash+`","`+lobsterHash+`"]}`, string(gotBody))

	var lines []map[string]any
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		var line map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
		lines = append(lines, line)
	}
	require.Len(t, lines, 3)
	require.Equal(t, fishHash, lines[0]["hash"])
	require.Equal(t, "FISH", lines[0]["trytes"])
	require.Equal(t, lobsterHash, lines[1]["hash"])
	require.EqualValues(t, 3, lines[2]["duration"])
	require.EqualValues(t, 2, lines[2]["count"])

	store, err := archive.New(archivePath, nil)
	require.NoError(t, err)
	defer store.Close()
	got, err := store.Get(fishHash)
	require.NoError(t, err)
	require.Equal(t, "FISH", got.Trytes)
	_, err = store.Get(lobsterHash)
	require.ErrorIs(t, err, archive.ErrNotFound)
}

func TestRun_ValidationError(t *testing.T) {
	cfg := &configFlags{
		Endpoint: "http://localhost:14265",
		Retries:  1,
		Hashes:   []string{"fish"},
	}
	err := run(context.Background(), cfg, io.Discard)
	require.IsType(t, iriapi.ErrValidation{}, err)
}
