package collector

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PriceScope/internal/apperr"
	"PriceScope/internal/logger"
)

func newTestServer(t *testing.T, status int, body string, gotPath *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if gotPath != nil {
			*gotPath = r.URL.String()
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

var (
	from = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to   = time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
)

func TestYahooFetcher_ZipsParallelArrays(t *testing.T) {
	// 2024-01-03 and 2024-01-02 out of order; third bar has null fields.
	body := `{"chart":{"result":[{"timestamp":[1704288600,1704202200,1704375000],
		"indicators":{"quote":[{
			"open":[101.5,100.0,null],
			"high":[103.0,102.0,104.0],
			"low":[100.5,99.0,null],
			"close":[102.5,101.0,null],
			"volume":[1500,1200,null]}]}}],"error":null}}`
	var path string
	srv := newTestServer(t, http.StatusOK, body, &path)

	f := NewYahooFetcher(srv.URL+"/", "", time.Second)
	bars, err := f.FetchDaily(context.Background(), "AAPL", from, to)
	require.NoError(t, err)

	assert.Equal(t, "/v8/finance/chart/AAPL?period1=1704067200&period2=1704844800&interval=1d", path)
	require.Len(t, bars, 3)
	assert.Equal(t, "2024-01-02", bars[0].Date)
	assert.Equal(t, 101.0, bars[0].Close)
	assert.Equal(t, "2024-01-03", bars[1].Date)
	assert.Equal(t, 1500.0, bars[1].Volume)
	assert.Equal(t, "2024-01-04", bars[2].Date)
	assert.Equal(t, 0.0, bars[2].Open)
	assert.Equal(t, 104.0, bars[2].High)
	assert.Equal(t, 0.0, bars[2].Close)
	assert.Equal(t, 0.0, bars[2].Volume)
}

func TestYahooFetcher_ShortArraysBecomeZero(t *testing.T) {
	body := `{"chart":{"result":[{"timestamp":[1704202200,1704288600],
		"indicators":{"quote":[{"close":[101.0]}]}}]}}`
	srv := newTestServer(t, http.StatusOK, body, nil)

	bars, err := NewYahooFetcher(srv.URL, "", time.Second).FetchDaily(context.Background(), "AAPL", from, to)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 0.0, bars[1].Close)
	assert.Equal(t, 0.0, bars[0].Open)
}

func TestYahooFetcher_DuplicateDateKeepsLastBar(t *testing.T) {
	body := `{"chart":{"result":[{"timestamp":[1704202200,1704218400],
		"indicators":{"quote":[{"close":[101.0,101.7]}]}}]}}`
	srv := newTestServer(t, http.StatusOK, body, nil)

	bars, err := NewYahooFetcher(srv.URL, "", time.Second).FetchDaily(context.Background(), "AAPL", from, to)
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, 101.7, bars[0].Close)
}

func TestYahooFetcher_EmptyTimestampsIsEmptySeries(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, `{"chart":{"result":[{"indicators":{"quote":[{}]}}]}}`, nil)

	bars, err := NewYahooFetcher(srv.URL, "", time.Second).FetchDaily(context.Background(), "AAPL", from, to)
	require.NoError(t, err)
	assert.Empty(t, bars)
}

func TestYahooFetcher_NonSuccessStatus(t *testing.T) {
	srv := newTestServer(t, http.StatusNotFound, `{"chart":{"result":null,"error":{"code":"Not Found"}}}`, nil)

	_, err := NewYahooFetcher(srv.URL, "", time.Second).FetchDaily(context.Background(), "NOPE", from, to)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrProviderUnavailable))
	assert.Contains(t, apperr.MessageOf(err), "verify the ticker symbol")
}

func TestYahooFetcher_MissingResultIsNoData(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, `{"chart":{"result":[],"error":null}}`, nil)

	_, err := NewYahooFetcher(srv.URL, "", time.Second).FetchDaily(context.Background(), "AAPL", from, to)
	assert.True(t, errors.Is(err, apperr.ErrNoData))
}

func TestYahooFetcher_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	_, err := NewYahooFetcher(base, "", time.Second).FetchDaily(context.Background(), "AAPL", from, to)
	assert.True(t, errors.Is(err, apperr.ErrProviderUnavailable))
}

func TestYahooFetcher_MalformedBodyIsInternal(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, `not json`, nil)

	_, err := NewYahooFetcher(srv.URL, "", time.Second).FetchDaily(context.Background(), "AAPL", from, to)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeInternal, apperr.CodeOf(err))
}

func TestNewYahooFetcher_InvalidProxyIsLogged(t *testing.T) {
	var buf bytes.Buffer
	logger.InitWithOutput(logger.Config{Level: "warn"}, &buf)
	t.Cleanup(func() { logger.Init(logger.Config{}) })

	f := NewYahooFetcher("", "http://[::1", time.Second)
	assert.Nil(t, f.Client.Transport.(*http.Transport).Proxy)
	assert.Contains(t, buf.String(), "invalid proxy URL ignored")
	assert.Contains(t, buf.String(), "component=collector")

	buf.Reset()
	f = NewYahooFetcher("", "http://proxy.local:3128", time.Second)
	assert.NotNil(t, f.Client.Transport.(*http.Transport).Proxy)
	assert.Empty(t, buf.String())
}
