package nodetest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tanglekit/iriapi/archive"
	"github.com/tanglekit/iriapi/nodetest"
)

var (
	fishHash    = strings.Repeat("F", 81)
	lobsterHash = strings.Repeat("L", 81)
)

func TestServer_Handler(t *testing.T) {
	tests := []struct {
		name          string
		onMethod      string
		onBody        string
		onNoVersion   bool
		expectStatus  int
		expectError   string
		expectTrytes  []string
		expectTrytes9 bool
	}{
		{
			name:         "GET is 405",
			onMethod:     http.MethodGet,
			expectStatus: http.StatusMethodNotAllowed,
		},
		{
			name:         "missing API version is 400",
			onMethod:     http.MethodPost,
			onBody:       `{"command":"getTrytes","hashes":["` + fishHash + `"]}`,
			onNoVersion:  true,
			expectStatus: http.StatusBadRequest,
			expectError:  "Invalid API Version",
		},
		{
			name:         "invalid JSON is 400",
			onMethod:     http.MethodPost,
			onBody:       `{]`,
			expectStatus: http.StatusBadRequest,
			expectError:  "Invalid JSON syntax",
		},
		{
			name:         "missing command is 400",
			onMethod:     http.MethodPost,
			onBody:       `{}`,
			expectStatus: http.StatusBadRequest,
			expectError:  "COMMAND parameter has not been specified in the request.",
		},
		{
			name:         "unknown command is 400",
			onMethod:     http.MethodPost,
			onBody:       `{"command":"getFish"}`,
			expectStatus: http.StatusBadRequest,
			expectError:  "Command [getFish] is unknown",
		},
		{
			name:         "invalid hashes is 400",
			onMethod:     http.MethodPost,
			onBody:       `{"command":"getTrytes","hashes":["fish"]}`,
			expectStatus: http.StatusBadRequest,
			expectError:  "Invalid hashes input",
		},
		{
			name:         "known hash with checksum is 200",
			onMethod:     http.MethodPost,
			onBody:       `{"command":"getTrytes","hashes":["` + fishHash + `ABCDEFGHI"]}`,
			expectStatus: http.StatusOK,
			expectTrytes: []string{"FISH"},
		},
		{
			name:          "unknown hash is 200 with all-9 trytes",
			onMethod:      http.MethodPost,
			onBody:        `{"command":"getTrytes","hashes":["` + lobsterHash + `"]}`,
			expectStatus:  http.StatusOK,
			expectTrytes9: true,
		},
	}

	subject := nodetest.New(nodetest.MapStore{fishHash: "FISH"}, "")
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			given := httptest.NewRequest(test.onMethod, "/", bytes.NewBufferString(test.onBody))
			if !test.onNoVersion {
				given.Header.Set("X-IOTA-API-Version", "1")
			}
			got := httptest.NewRecorder()
			subject.Handler().ServeHTTP(got, given)
			require.Equal(t, test.expectStatus, got.Code)
			if test.expectStatus == http.StatusMethodNotAllowed {
				return
			}
			var gotBody struct {
				Error    string   `json:"error"`
				Duration *int64   `json:"duration"`
				Trytes   []string `json:"trytes"`
			}
			require.NoError(t, json.Unmarshal(got.Body.Bytes(), &gotBody))
			require.NotNil(t, gotBody.Duration)
			require.Equal(t, test.expectError, gotBody.Error)
			if test.expectTrytes != nil {
				require.Equal(t, test.expectTrytes, gotBody.Trytes)
			}
			if test.expectTrytes9 {
				require.Contains(t, got.Body.String(), strings.Repeat("9", 2673))
			}
		})
	}
	require.EqualValues(t, 7, subject.Requests())
}

func TestServer_StartShutdown(t *testing.T) {
	store, err := archive.New(t.TempDir(), nil)
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Put(fishHash, "FISH", time.Now()))

	subject := nodetest.New(nodetest.ArchiveStore{Archive: store}, "127.0.0.1:0")
	addr, err := subject.Start(context.Background())
	require.NoError(t, err)
	defer subject.Shutdown(context.Background())

	req, err := http.NewRequest(http.MethodPost, "http://"+addr.String(),
		strings.NewReader(`{"command":"getTrytes","hashes":["`+fishHash+`"]}`))
	require.NoError(t, err)
	req.Header.Set("X-IOTA-API-Version", "1")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
