package report_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"fioso/internal/ai"
	"fioso/internal/provider"
	"fioso/internal/report"
	"fioso/internal/store"
)

// fakeDispatcher answers every pair from a fixed map; pairs listed in block
// never return until the test ends.
type fakeDispatcher struct {
	pairs   []store.Pair
	results map[store.Pair]provider.Status
	block   map[store.Pair]bool
	release chan struct{}

	mu    sync.Mutex
	calls int
}

func (f *fakeDispatcher) Pairs() []store.Pair { return f.pairs }

func (f *fakeDispatcher) Dispatch(_ context.Context, domain, key string) provider.Outcome {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	p := store.Pair{Domain: domain, Provider: key}
	if f.block[p] {
		<-f.release
	}
	out := provider.Outcome{Domain: domain, Provider: key, Status: f.results[p]}
	if out.Status == provider.StatusFailData {
		out.Code = provider.CodeNoData
	}
	return out
}

func network(t *testing.T, status int) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv
}

var (
	gagGrow   = store.Pair{Domain: "GAG", Provider: "GROWGARDENGG"}
	gagBerg   = store.Pair{Domain: "GAG", Provider: "GAMERBERGS"}
	fruitWiki = store.Pair{Domain: "BLOXFRUIT", Provider: "FANDOM"}
)

func TestRunAll_NetworkFailureWins(t *testing.T) {
	t.Parallel()

	// Arrange: every function probe succeeds but the network check fails.
	d := &fakeDispatcher{
		pairs:   []store.Pair{gagGrow, gagBerg},
		results: map[store.Pair]provider.Status{gagGrow: provider.StatusSuccess, gagBerg: provider.StatusSuccess},
	}
	srv := network(t, http.StatusServiceUnavailable)
	h := report.NewHarness(d, report.WithHTTPClient(srv.Client()), report.WithNetworkCheck(srv.URL, time.Second))

	// Act
	r := h.RunAll(t.Context(), report.Config{Store: true})

	// Assert
	require.Equal(t, 2, r.Tested)
	require.Equal(t, report.Offline, r.Network.Status)
	require.False(t, r.Stable)
	require.Equal(t, provider.CodeNetworkOffline, r.Code)
	require.Equal(t, r.Network.Code, r.Code)
	for _, res := range r.Results {
		require.Equal(t, provider.StatusSuccess, res.Status)
	}
	require.NotEqual(t, uuid.Nil, r.ID)
}

func TestRunAll_StableWhenEverythingPasses(t *testing.T) {
	t.Parallel()

	d := &fakeDispatcher{
		pairs:   []store.Pair{gagGrow},
		results: map[store.Pair]provider.Status{gagGrow: provider.StatusSuccess},
	}
	srv := network(t, http.StatusOK)
	h := report.NewHarness(d, report.WithHTTPClient(srv.Client()), report.WithNetworkCheck(srv.URL, time.Second))

	r := h.RunAll(t.Context(), report.Config{Store: true})

	require.True(t, r.Network.Online())
	require.True(t, r.Stable)
	require.Empty(t, r.Code)
}

func TestRunAll_HangingProbeTimesOut(t *testing.T) {
	t.Parallel()

	// Arrange: the middle pair never answers.
	d := &fakeDispatcher{
		pairs: []store.Pair{gagGrow, fruitWiki, gagBerg},
		results: map[store.Pair]provider.Status{
			gagGrow: provider.StatusSuccess,
			gagBerg: provider.StatusFailData,
		},
		block:   map[store.Pair]bool{fruitWiki: true},
		release: make(chan struct{}),
	}
	t.Cleanup(func() { close(d.release) })
	srv := network(t, http.StatusOK)
	h := report.NewHarness(d,
		report.WithHTTPClient(srv.Client()),
		report.WithNetworkCheck(srv.URL, time.Second),
		report.WithProbeTimeout(50*time.Millisecond),
	)

	// Act
	start := time.Now()
	r := h.RunAll(t.Context(), report.Config{Store: true})

	// Assert: the report is produced promptly with the slot order intact.
	require.Less(t, time.Since(start), 5*time.Second)
	require.Len(t, r.Results, 3)

	require.Equal(t, provider.StatusSuccess, r.Results[0].Status)

	require.Equal(t, provider.StatusTimeout, r.Results[1].Status)
	require.Equal(t, provider.CodeTimeout, r.Results[1].Code)
	require.Equal(t, "BLOXFRUIT", r.Results[1].Domain)
	require.Equal(t, "FANDOM", r.Results[1].Provider)

	require.Equal(t, provider.StatusFailData, r.Results[2].Status)

	require.False(t, r.Stable)
	require.Equal(t, provider.CodeTimeout, r.Code)
}

func TestRunAll_AIProviders(t *testing.T) {
	t.Parallel()

	// Arrange: one endpoint answers both providers with their markers.
	aiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":{"response":"hi"},"candidates":[{}]}`))
	}))
	t.Cleanup(aiSrv.Close)
	netSrv := network(t, http.StatusNoContent)

	d := &fakeDispatcher{pairs: []store.Pair{gagGrow}}
	h := report.NewHarness(d,
		report.WithHTTPClient(netSrv.Client()),
		report.WithNetworkCheck(netSrv.URL, time.Second),
		report.WithAIOptions(ai.WithBaseURL(aiSrv.URL), ai.WithHTTPClient(aiSrv.Client())),
	)

	// Act: store probes are not selected.
	r := h.RunAll(t.Context(), report.Config{
		Cloudflare: &ai.Credentials{AccountID: "acct", APIToken: "tok", Model: "m"},
		Gemini:     &ai.Credentials{Key: "k"},
	})

	// Assert
	require.Equal(t, 2, r.Tested)
	require.Equal(t, "CLOUDFLARE", r.Results[0].Provider)
	require.Equal(t, "GEMINI", r.Results[1].Provider)
	for _, res := range r.Results {
		require.Equal(t, provider.StatusSuccess, res.Status)
	}
	require.True(t, r.Stable)
	require.Zero(t, d.calls)
}

func TestRunWithTimeout(t *testing.T) {
	t.Parallel()

	out := report.RunWithTimeout(t.Context(), time.Second, func(context.Context) provider.Outcome {
		return provider.Outcome{Status: provider.StatusSuccess}
	})
	require.Equal(t, provider.StatusSuccess, out.Status)

	out = report.RunWithTimeout(t.Context(), time.Second, nil)
	require.Equal(t, provider.StatusError, out.Status)
	require.Equal(t, provider.CodeNotCallable, out.Code)

	out = report.RunWithTimeout(t.Context(), time.Second, func(context.Context) provider.Outcome {
		panic("boom")
	})
	require.Equal(t, provider.StatusError, out.Status)
	require.Contains(t, out.Message, "boom")
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	online := report.NetworkStatus{Status: report.Online}
	offline := report.NetworkStatus{Status: report.Offline, Code: provider.CodeNetworkOffline}

	cases := []struct {
		name    string
		network report.NetworkStatus
		results []provider.Outcome
		stable  bool
		code    provider.Code
	}{
		{"empty online", online, nil, true, ""},
		{"response_error is soft", online, []provider.Outcome{{Status: provider.StatusResponseError, Code: provider.CodeBadResponse}}, true, ""},
		{"first code", online, []provider.Outcome{{Status: provider.StatusSuccess}, {Status: provider.StatusError, Code: provider.CodeFetch}, {Status: provider.StatusTimeout, Code: provider.CodeTimeout}}, false, provider.CodeFetch},
		{"no code anywhere", online, []provider.Outcome{{Status: provider.StatusError}}, false, provider.CodeUnstable},
		{"network first", offline, []provider.Outcome{{Status: provider.StatusError, Code: provider.CodeFetch}}, false, provider.CodeNetworkOffline},
		{"offline without code", report.NetworkStatus{Status: report.Offline}, nil, false, provider.CodeUnstable},
	}
	for _, tc := range cases {
		stable, code := report.Summarize(tc.network, tc.results)
		require.Equalf(t, tc.stable, stable, tc.name)
		require.Equalf(t, tc.code, code, tc.name)
	}
}
