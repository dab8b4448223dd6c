package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"PriceScope/internal/apperr"
	"PriceScope/internal/logger"
	"PriceScope/internal/model"
)

// DefaultYahooBaseURL is the public Yahoo Finance chart API host.
const DefaultYahooBaseURL = "https://query1.finance.yahoo.com"

// Display message for provider failures. The provider answers non-2xx for
// unknown symbols too, so the message points at the ticker.
const msgFetchFailed = "Failed to fetch stock data. Please verify the ticker symbol."

// YahooFetcher implements Fetcher using the Yahoo Finance v8 chart API.
type YahooFetcher struct {
	BaseURL string
	Client  *http.Client
}

// NewYahooFetcher creates a fetcher against baseURL with optional proxy support.
func NewYahooFetcher(baseURL, proxyURL string, timeout time.Duration) *YahooFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		} else {
			logger.WithComponent("collector").WithError(err).Warn("invalid proxy URL ignored, connecting directly")
		}
	}
	if baseURL == "" {
		baseURL = DefaultYahooBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &YahooFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// yahooChart is the response structure from Yahoo Finance chart API.
// Quote values are pointers because the API emits null for missing bars.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// valueAt returns vals[i], or 0 when the slot is absent or null.
func valueAt(vals []*float64, i int) float64 {
	if i >= len(vals) || vals[i] == nil {
		return 0
	}
	return *vals[i]
}

// FetchDaily requests daily bars in [from, to].
func (f *YahooFetcher) FetchDaily(ctx context.Context, ticker string, from, to time.Time) (model.Series, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d",
		f.BaseURL, url.PathEscape(ticker), from.Unix(), to.Unix())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("yahoo build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeProviderUnavailable, msgFetchFailed, fmt.Errorf("yahoo fetch: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeProviderUnavailable, msgFetchFailed, fmt.Errorf("yahoo read body: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperr.Wrap(apperr.CodeProviderUnavailable, msgFetchFailed,
			fmt.Errorf("yahoo: status %d, body: %.200s", resp.StatusCode, string(body)))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if len(chart.Chart.Result) == 0 {
		cause := fmt.Errorf("yahoo: empty result")
		if chart.Chart.Error != nil {
			cause = fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
		}
		return nil, apperr.Wrap(apperr.CodeNoData, "No data found for this ticker symbol", cause)
	}

	return zipChart(chart), nil
}

// zipChart turns the parallel arrays of the first result into a series,
// substituting 0 for null scalars. Bars sharing a calendar date collapse to
// the last one.
func zipChart(chart yahooChart) model.Series {
	result := chart.Chart.Result[0]
	var open, high, low, closes, volume []*float64
	if len(result.Indicators.Quote) > 0 {
		q := result.Indicators.Quote[0]
		open, high, low, closes, volume = q.Open, q.High, q.Low, q.Close, q.Volume
	}

	byDate := make(map[string]int, len(result.Timestamp))
	bars := make(model.Series, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		p := model.PricePoint{
			Date:   model.FormatDate(time.Unix(ts, 0)),
			Open:   valueAt(open, i),
			High:   valueAt(high, i),
			Low:    valueAt(low, i),
			Close:  valueAt(closes, i),
			Volume: valueAt(volume, i),
		}
		if j, ok := byDate[p.Date]; ok {
			bars[j] = p
			continue
		}
		byDate[p.Date] = len(bars)
		bars = append(bars, p)
	}

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Date < bars[j].Date })
	return bars
}
