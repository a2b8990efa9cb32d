package fpl

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/riskibarqy/fpl-oracle/internal/domain/fixture"
	"github.com/riskibarqy/fpl-oracle/internal/domain/player"
	"github.com/riskibarqy/fpl-oracle/internal/domain/playerstats"
	"github.com/riskibarqy/fpl-oracle/internal/domain/rawdata"
	"github.com/riskibarqy/fpl-oracle/internal/domain/team"
	"github.com/riskibarqy/fpl-oracle/internal/platform/cache"
	"github.com/riskibarqy/fpl-oracle/internal/platform/logging"
	"github.com/riskibarqy/fpl-oracle/internal/platform/resilience"
	"github.com/riskibarqy/fpl-oracle/internal/usecase"
)

const (
	defaultBaseURL   = "https://fantasy.premierleague.com/api"
	defaultUserAgent = "fpl-oracle/1.0"
	sourceName       = "fpl"
	maxBodyBytes     = 16 << 20
)

var errFPLTransient = crerr.New("fpl transient failure")

var _ usecase.FantasyProvider = (*Client)(nil)

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	UserAgent      string
	Timeout        time.Duration
	MaxRetries     int
	RetryBackoff   time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.BreakerConfig
	Recorder       *rawdata.Recorder
}

// Client reads the public fantasy API. Responses are memoized for the
// lifetime of the client, which is one pipeline run.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	userAgent    string
	maxRetries   int
	retryBackoff time.Duration
	logger       *logging.Logger
	breaker      *resilience.Breaker
	recorder     *rawdata.Recorder

	bootstrap *cache.Memo[string, bootstrap]
	fixtures  *cache.Memo[string, []fixtureDTO]
	summaries *cache.Memo[int64, []playerstats.RoundHistory]
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
		httpClient.Timeout = 20 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = time.Second
	}

	return &Client{
		httpClient:   httpClient,
		baseURL:      baseURL,
		userAgent:    userAgent,
		maxRetries:   max(cfg.MaxRetries, 0),
		retryBackoff: backoff,
		logger:       logger,
		breaker:      resilience.NewBreaker(cfg.CircuitBreaker),
		recorder:     cfg.Recorder,
		bootstrap:    cache.NewMemo[string, bootstrap](),
		fixtures:     cache.NewMemo[string, []fixtureDTO](),
		summaries:    cache.NewMemo[int64, []playerstats.RoundHistory](),
	}
}

func (c *Client) ListPlayers(ctx context.Context) ([]player.Player, error) {
	boot, err := c.loadBootstrap(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]player.Player, 0, len(boot.Players))
	for _, el := range boot.Players {
		out = append(out, player.Player{
			ID:        el.ID,
			FirstName: strings.TrimSpace(el.FirstName),
			LastName:  strings.TrimSpace(el.SecondName),
			WebName:   strings.TrimSpace(el.WebName),
			TeamName:  boot.TeamNames[el.Team],
			Position:  player.Position(boot.Positions[el.ElementType]),
			Cost:      el.NowCost,
		})
	}
	return out, nil
}

func (c *Client) ListTeamsWithStanding(ctx context.Context) ([]team.Standing, error) {
	boot, err := c.loadBootstrap(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]team.Standing, 0, len(boot.Teams))
	for _, t := range boot.Teams {
		out = append(out, team.Standing{Name: strings.TrimSpace(t.Name), Position: t.Position})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

// NextGameweek returns the id of the event flagged is_next.
func (c *Client) NextGameweek(ctx context.Context) (int, error) {
	boot, err := c.loadBootstrap(ctx)
	if err != nil {
		return 0, err
	}
	for _, ev := range boot.Events {
		if ev.IsNext {
			return ev.ID, nil
		}
	}
	return 0, crerr.Wrap(usecase.ErrNotFound, "fpl: no event flagged is_next")
}

func (c *Client) ListFixtures(ctx context.Context, gameweek int) ([]fixture.Fixture, error) {
	return c.listFixtures(ctx, func(f fixtureDTO) bool {
		return f.Event != nil && *f.Event == gameweek
	})
}

func (c *Client) ListFinishedFixtures(ctx context.Context) ([]fixture.Fixture, error) {
	return c.listFixtures(ctx, func(f fixtureDTO) bool {
		return f.Finished && f.TeamHScore != nil && f.TeamAScore != nil
	})
}

// PlayerHistory returns the per-round history from element-summary.
func (c *Client) PlayerHistory(ctx context.Context, playerID int64) ([]playerstats.RoundHistory, error) {
	if playerID <= 0 {
		return nil, crerr.Wrapf(usecase.ErrInvalidInput, "fpl: player id %d", playerID)
	}

	return c.summaries.GetOrLoad(ctx, playerID, func(ctx context.Context) ([]playerstats.RoundHistory, error) {
		path := fmt.Sprintf("/element-summary/%d/", playerID)
		raw, err := c.get(ctx, path)
		if err != nil {
			return nil, crerr.Wrapf(err, "fetch element-summary player_id=%d", playerID)
		}
		c.recorder.Record(sourceName, "element_summary", strconv.FormatInt(playerID, 10), raw)

		var env summaryEnvelope
		if err := sonic.Unmarshal(raw, &env); err != nil {
			return nil, crerr.Wrapf(usecase.ErrMalformedPayload, "decode element-summary player_id=%d: %v", playerID, err)
		}
		if env.History == nil {
			return nil, crerr.Wrap(usecase.ErrSchemaDrift, "fpl element-summary: missing history array")
		}

		out := make([]playerstats.RoundHistory, 0, len(*env.History))
		for _, h := range *env.History {
			out = append(out, playerstats.RoundHistory{
				Round:                         h.Round,
				Minutes:                       h.Minutes,
				TotalPoints:                   h.TotalPoints,
				Tackles:                       h.Tackles,
				ClearancesBlocksInterceptions: h.ClearancesBlocksInterceptions,
			})
		}
		return out, nil
	})
}

func (c *Client) loadBootstrap(ctx context.Context) (bootstrap, error) {
	return c.bootstrap.GetOrLoad(ctx, "bootstrap-static", func(ctx context.Context) (bootstrap, error) {
		raw, err := c.get(ctx, "/bootstrap-static/")
		if err != nil {
			return bootstrap{}, crerr.Wrap(err, "fetch bootstrap-static")
		}
		c.recorder.Record(sourceName, "bootstrap_static", "bootstrap-static", raw)
		return decodeBootstrap(raw)
	})
}

func decodeBootstrap(raw []byte) (bootstrap, error) {
	var env bootstrapEnvelope
	if err := sonic.Unmarshal(raw, &env); err != nil {
		return bootstrap{}, crerr.Wrapf(usecase.ErrMalformedPayload, "decode bootstrap-static: %v", err)
	}

	missing := make([]string, 0, 4)
	if env.Elements == nil {
		missing = append(missing, "elements")
	}
	if env.Teams == nil {
		missing = append(missing, "teams")
	}
	if env.ElementTypes == nil {
		missing = append(missing, "element_types")
	}
	if env.Events == nil {
		missing = append(missing, "events")
	}
	if len(missing) > 0 {
		return bootstrap{}, crerr.Wrapf(usecase.ErrSchemaDrift, "fpl bootstrap-static: missing %s", strings.Join(missing, ", "))
	}

	out := bootstrap{
		Players:   *env.Elements,
		Teams:     *env.Teams,
		Events:    *env.Events,
		TeamNames: make(map[int64]string, len(*env.Teams)),
		Positions: make(map[int]string, len(*env.ElementTypes)),
	}
	for _, t := range *env.Teams {
		out.TeamNames[t.ID] = strings.TrimSpace(t.Name)
	}
	for _, et := range *env.ElementTypes {
		out.Positions[et.ID] = strings.TrimSpace(et.SingularName)
	}
	return out, nil
}

func (c *Client) listFixtures(ctx context.Context, keep func(fixtureDTO) bool) ([]fixture.Fixture, error) {
	boot, err := c.loadBootstrap(ctx)
	if err != nil {
		return nil, err
	}
	all, err := c.fixtures.GetOrLoad(ctx, "fixtures", func(ctx context.Context) ([]fixtureDTO, error) {
		raw, err := c.get(ctx, "/fixtures/")
		if err != nil {
			return nil, crerr.Wrap(err, "fetch fixtures")
		}
		c.recorder.Record(sourceName, "fixtures", "fixtures", raw)

		var items []fixtureDTO
		if err := sonic.Unmarshal(raw, &items); err != nil {
			return nil, crerr.Wrapf(usecase.ErrMalformedPayload, "decode fixtures: %v", err)
		}
		return items, nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]fixture.Fixture, 0, 16)
	for _, item := range all {
		if !keep(item) {
			continue
		}
		home, okHome := boot.TeamNames[item.TeamH]
		away, okAway := boot.TeamNames[item.TeamA]
		if !okHome || !okAway {
			return nil, crerr.Wrapf(usecase.ErrSchemaDrift, "fpl fixture %d references unknown team ids %d/%d", item.ID, item.TeamH, item.TeamA)
		}
		f := fixture.Fixture{
			ID:        item.ID,
			HomeTeam:  home,
			AwayTeam:  away,
			KickoffAt: parseKickoff(item.KickoffTime),
			Finished:  item.Finished,
			HomeScore: item.TeamHScore,
			AwayScore: item.TeamAScore,
		}
		if item.Event != nil {
			f.Gameweek = *item.Event
		}
		out = append(out, f)
	}
	return out, nil
}

func parseKickoff(v *string) time.Time {
	if v == nil {
		return time.Time{}
	}
	parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(*v))
	if err != nil {
		return time.Time{}
	}
	return parsed.UTC()
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	var raw []byte
	err := c.breaker.Execute(func() error {
		var reqErr error
		raw, reqErr = c.executeRequest(ctx, c.baseURL+path)
		return reqErr
	}, isCircuitFailure)
	if crerr.Is(err, resilience.ErrCircuitOpen) {
		c.logger.WarnContext(ctx, "fpl circuit breaker rejected request", "path", path, "state", c.breaker.State())
		return nil, crerr.Mark(crerr.Wrap(err, "fantasy provider is temporarily unavailable"), usecase.ErrDependencyUnavailable)
	}
	return raw, err
}

func isCircuitFailure(err error) bool {
	return crerr.Is(err, errFPLTransient)
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, crerr.Wrap(err, "build request")
		}
		req.Header.Set("accept", "application/json")
		req.Header.Set("user-agent", c.userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = crerr.Mark(crerr.Wrap(err, "send request"), errFPLTransient)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = crerr.Mark(crerr.Wrap(readErr, "read response body"), errFPLTransient)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case resp.StatusCode == http.StatusNotFound:
				return nil, crerr.Wrapf(usecase.ErrNotFound, "fpl status=%d url=%s", resp.StatusCode, fullURL)
			case isRetryableStatus(resp.StatusCode):
				lastErr = crerr.Mark(crerr.Newf("fpl status=%d body=%s", resp.StatusCode, abbreviateBody(raw)), errFPLTransient)
			default:
				return nil, crerr.Newf("fpl status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
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

	c.logger.WarnContext(ctx, "fpl request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func isRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func abbreviateBody(raw []byte) string {
	const limit = 256
	s := strings.TrimSpace(string(raw))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
