package fbref

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/riskibarqy/fpl-oracle/internal/domain/playerstats"
	"github.com/riskibarqy/fpl-oracle/internal/domain/rawdata"
	"github.com/riskibarqy/fpl-oracle/internal/platform/cache"
	"github.com/riskibarqy/fpl-oracle/internal/platform/logging"
	"github.com/riskibarqy/fpl-oracle/internal/platform/resilience"
	"github.com/riskibarqy/fpl-oracle/internal/usecase"
)

const (
	defaultBaseURL       = "https://fbref.com"
	defaultCompetitionID = "9"
	defaultUserAgent     = "Mozilla/5.0 (compatible; fpl-oracle/1.0)"
	sourceName           = "fbref"
	maxBodyBytes         = 32 << 20
)

var errFBrefTransient = crerr.New("fbref transient failure")

var _ usecase.PlayerStatProvider = (*Client)(nil)

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	CompetitionID  string
	UserAgent      string
	Timeout        time.Duration
	MaxRetries     int
	RetryBackoff   time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.BreakerConfig
	Recorder       *rawdata.Recorder
}

// Client scrapes FBref's league-wide player tables.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	competitionID string
	userAgent     string
	maxRetries    int
	retryBackoff  time.Duration
	logger        *logging.Logger
	breaker       *resilience.Breaker
	recorder      *rawdata.Recorder

	pages *cache.Memo[string, []byte]
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 30 * time.Second
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	competitionID := strings.TrimSpace(cfg.CompetitionID)
	if competitionID == "" {
		competitionID = defaultCompetitionID
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = 3 * time.Second
	}

	return &Client{
		httpClient:    httpClient,
		baseURL:       baseURL,
		competitionID: competitionID,
		userAgent:     userAgent,
		maxRetries:    max(cfg.MaxRetries, 0),
		retryBackoff:  backoff,
		logger:        logger,
		breaker:       resilience.NewBreaker(cfg.CircuitBreaker),
		recorder:      cfg.Recorder,
		pages:         cache.NewMemo[string, []byte](),
	}
}

func (c *Client) Source() string {
	return sourceName
}

// PlayerSeasonStats joins the standard, defense and playing-time tables by
// player name. Players listed once per club they played for are summed.
func (c *Client) PlayerSeasonStats(ctx context.Context, season string) (playerstats.SeasonStats, error) {
	season = strings.TrimSpace(season)
	if season == "" {
		return playerstats.SeasonStats{}, crerr.Wrap(usecase.ErrInvalidInput, "fbref: season is required")
	}

	standard, err := c.table(ctx, season, "stats", tableStandard)
	if err != nil {
		return playerstats.SeasonStats{}, err
	}
	defense, err := c.table(ctx, season, "defense", tableDefense)
	if err != nil {
		return playerstats.SeasonStats{}, err
	}
	playingTime, err := c.table(ctx, season, "playingtime", tablePlayingTime)
	if err != nil {
		return playerstats.SeasonStats{}, err
	}

	acc := newAccumulator()
	var dropped []playerstats.DroppedRow
	drop := func(kind string, row tableRow) {
		c.logger.WarnContext(ctx, "skip fbref row with unparseable numbers", "table", kind, "player", row["player"])
		dropped = append(dropped, playerstats.DroppedRow{Name: row["player"], Reason: "unparseable numbers in " + kind + " table"})
	}
	for _, row := range standard {
		if !acc.addStandard(row) {
			drop("standard", row)
		}
	}
	for _, row := range defense {
		if !acc.addDefense(row) {
			drop("defense", row)
		}
	}
	for _, row := range playingTime {
		if !acc.addPlayingTime(row) {
			drop("playing time", row)
		}
	}
	return playerstats.SeasonStats{Records: acc.records(), Dropped: dropped}, nil
}

func (c *Client) table(ctx context.Context, season, statPath, tableID string) ([]tableRow, error) {
	path := fmt.Sprintf("/en/comps/%s/%s/%s/%s-Premier-League-Stats", c.competitionID, season, statPath, season)
	page, err := c.pages.GetOrLoad(ctx, path, func(ctx context.Context) ([]byte, error) {
		raw, err := c.get(ctx, path)
		if err != nil {
			return nil, crerr.Wrapf(err, "fetch fbref %s", statPath)
		}
		c.recorder.Record(sourceName, tableID, season, raw)
		return raw, nil
	})
	if err != nil {
		return nil, err
	}
	return parseTable(page, tableID)
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	var raw []byte
	err := c.breaker.Execute(func() error {
		var reqErr error
		raw, reqErr = c.executeRequest(ctx, c.baseURL+path)
		return reqErr
	}, func(err error) bool { return crerr.Is(err, errFBrefTransient) })
	if crerr.Is(err, resilience.ErrCircuitOpen) {
		c.logger.WarnContext(ctx, "fbref circuit breaker rejected request", "path", path, "state", c.breaker.State())
		return nil, crerr.Mark(crerr.Wrap(err, "fbref is temporarily unavailable"), usecase.ErrDependencyUnavailable)
	}
	return raw, err
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, crerr.Wrap(err, "build request")
		}
		req.Header.Set("accept", "text/html")
		req.Header.Set("user-agent", c.userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = crerr.Mark(crerr.Wrap(err, "send request"), errFBrefTransient)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = crerr.Mark(crerr.Wrap(readErr, "read response body"), errFBrefTransient)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case resp.StatusCode == http.StatusNotFound:
				return nil, crerr.Wrapf(usecase.ErrNotFound, "fbref status=%d url=%s", resp.StatusCode, fullURL)
			case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
				lastErr = crerr.Mark(crerr.Newf("fbref status=%d", resp.StatusCode), errFBrefTransient)
			default:
				return nil, crerr.Newf("fbref status=%d", resp.StatusCode)
			}
		}

		if attempt == c.maxRetries {
			break
		}
		timer := time.NewTimer(time.Duration(attempt+1) * c.retryBackoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	c.logger.WarnContext(ctx, "fbref request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}
