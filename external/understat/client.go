package understat

import (
	"context"
	"net/url"
	"sort"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/fasthttp"

	"github.com/riskibarqy/fpl-oracle/internal/domain/playerstats"
	"github.com/riskibarqy/fpl-oracle/internal/domain/rawdata"
	"github.com/riskibarqy/fpl-oracle/internal/domain/team"
	"github.com/riskibarqy/fpl-oracle/internal/platform/cache"
	"github.com/riskibarqy/fpl-oracle/internal/platform/logging"
	"github.com/riskibarqy/fpl-oracle/internal/platform/resilience"
	"github.com/riskibarqy/fpl-oracle/internal/usecase"
)

const (
	defaultBaseURL = "https://understat.com"
	defaultLeague  = "EPL"
	sourceName     = "understat"
	datetimeLayout = "2006-01-02 15:04:05"
)

var errUnderstatTransient = crerr.New("understat transient failure")

var (
	_ usecase.PlayerStatProvider = (*Client)(nil)
	_ usecase.TeamStatProvider   = (*Client)(nil)
)

type ClientConfig struct {
	BaseURL        string
	League         string
	UserAgent      string
	Timeout        time.Duration
	MaxRetries     int
	RetryBackoff   time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.BreakerConfig
	Recorder       *rawdata.Recorder
}

type leagueData struct {
	Teams   []string
	Players []map[string]any
}

// Client reads Understat's JSON endpoints over fasthttp.
type Client struct {
	http         *fasthttp.Client
	baseURL      string
	league       string
	timeout      time.Duration
	maxRetries   int
	retryBackoff time.Duration
	logger       *logging.Logger
	breaker      *resilience.Breaker
	recorder     *rawdata.Recorder

	leagues *cache.Memo[string, leagueData]
	teams   *cache.Memo[string, []team.Match]
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	league := strings.TrimSpace(cfg.League)
	if league == "" {
		league = defaultLeague
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = time.Second
	}

	return &Client{
		http: &fasthttp.Client{
			Name:                cfg.UserAgent,
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: 30 * time.Second,
		},
		baseURL:      baseURL,
		league:       league,
		timeout:      timeout,
		maxRetries:   max(cfg.MaxRetries, 0),
		retryBackoff: backoff,
		logger:       logger,
		breaker:      resilience.NewBreaker(cfg.CircuitBreaker),
		recorder:     cfg.Recorder,
		leagues:      cache.NewMemo[string, leagueData](),
		teams:        cache.NewMemo[string, []team.Match](),
	}
}

func (c *Client) Source() string {
	return sourceName
}

// PlayerSeasonStats returns season-to-date totals for every league player.
func (c *Client) PlayerSeasonStats(ctx context.Context, season string) (playerstats.SeasonStats, error) {
	data, err := c.loadLeague(ctx, season)
	if err != nil {
		return playerstats.SeasonStats{}, err
	}

	out := playerstats.SeasonStats{Records: make([]playerstats.SeasonRecord, 0, len(data.Players))}
	for _, row := range data.Players {
		rec, ok := parsePlayer(row)
		if !ok {
			name := asString(row["player_name"])
			c.logger.WarnContext(ctx, "skip understat player row with unparseable numbers", "player", name)
			out.Dropped = append(out.Dropped, playerstats.DroppedRow{Name: name, Reason: "unparseable numbers"})
			continue
		}
		out.Records = append(out.Records, rec)
	}
	return out, nil
}

func (c *Client) ListTeams(ctx context.Context, season string) ([]string, error) {
	data, err := c.loadLeague(ctx, season)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), data.Teams...), nil
}

// TeamMatchHistory returns every match of the club in the season, from the
// club's perspective.
func (c *Client) TeamMatchHistory(ctx context.Context, teamName, season string) ([]team.Match, error) {
	teamName = strings.TrimSpace(teamName)
	if teamName == "" {
		return nil, crerr.Wrap(usecase.ErrInvalidInput, "understat: team name is required")
	}

	return c.teams.GetOrLoad(ctx, teamName+"|"+season, func(ctx context.Context) ([]team.Match, error) {
		path := "/getTeamData/" + url.PathEscape(strings.ReplaceAll(teamName, " ", "_")) + "/" + url.PathEscape(season)
		raw, err := c.get(ctx, path)
		if err != nil {
			return nil, crerr.Wrapf(err, "fetch understat team %q", teamName)
		}
		c.recorder.Record(sourceName, "team_matches", teamName+"/"+season, raw)

		var env teamEnvelope
		if err := sonic.Unmarshal(raw, &env); err != nil {
			return nil, crerr.Wrapf(usecase.ErrMalformedPayload, "decode understat team %q: %v", teamName, err)
		}
		if env.Dates == nil {
			return nil, crerr.Wrap(usecase.ErrSchemaDrift, "understat team data: missing dates array")
		}

		out := make([]team.Match, 0, len(*env.Dates))
		for _, row := range *env.Dates {
			if missing := missingKeys(row, requiredMatchKeys); len(missing) > 0 {
				return nil, crerr.Wrapf(usecase.ErrSchemaDrift, "understat match row missing %s", strings.Join(missing, ", "))
			}
			m, ok := parseMatch(row)
			if !ok {
				c.logger.WarnContext(ctx, "skip understat match row", "team", teamName, "match_id", asString(row["id"]))
				continue
			}
			out = append(out, m)
		}
		return out, nil
	})
}

func (c *Client) loadLeague(ctx context.Context, season string) (leagueData, error) {
	season = strings.TrimSpace(season)
	if season == "" {
		return leagueData{}, crerr.Wrap(usecase.ErrInvalidInput, "understat: season is required")
	}

	return c.leagues.GetOrLoad(ctx, season, func(ctx context.Context) (leagueData, error) {
		path := "/getLeagueData/" + url.PathEscape(c.league) + "/" + url.PathEscape(season)
		raw, err := c.get(ctx, path)
		if err != nil {
			return leagueData{}, crerr.Wrapf(err, "fetch understat league %s/%s", c.league, season)
		}
		c.recorder.Record(sourceName, "league", c.league+"/"+season, raw)
		return decodeLeague(raw)
	})
}

func decodeLeague(raw []byte) (leagueData, error) {
	var env leagueEnvelope
	if err := sonic.Unmarshal(raw, &env); err != nil {
		return leagueData{}, crerr.Wrapf(usecase.ErrMalformedPayload, "decode understat league: %v", err)
	}
	if env.Players == nil || env.Teams == nil {
		return leagueData{}, crerr.Wrap(usecase.ErrSchemaDrift, "understat league data: missing players or teams")
	}

	for _, row := range *env.Players {
		if missing := missingKeys(row, requiredPlayerKeys); len(missing) > 0 {
			return leagueData{}, crerr.Wrapf(usecase.ErrSchemaDrift, "understat player row missing %s", strings.Join(missing, ", "))
		}
	}

	out := leagueData{Players: *env.Players, Teams: make([]string, 0, len(env.Teams))}
	for _, t := range env.Teams {
		if title := strings.TrimSpace(t.Title); title != "" {
			out.Teams = append(out.Teams, title)
		}
	}
	sort.Strings(out.Teams)
	return out, nil
}

func parsePlayer(row map[string]any) (playerstats.SeasonRecord, bool) {
	games, ok1 := asInt(row["games"])
	minutes, ok2 := asInt(row["time"])
	xg, ok3 := asFloat(row["xG"])
	xa, ok4 := asFloat(row["xA"])
	yellows, ok5 := asInt(row["yellow_cards"])
	reds, ok6 := asInt(row["red_cards"])
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 || !ok6 {
		return playerstats.SeasonRecord{}, false
	}
	return playerstats.SeasonRecord{
		Source:      sourceName,
		Name:        asString(row["player_name"]),
		Team:        asString(row["team_title"]),
		Games:       games,
		Minutes:     minutes,
		XG:          xg,
		XA:          xa,
		YellowCards: yellows,
		RedCards:    reds,
	}, true
}

func parseMatch(row map[string]any) (team.Match, bool) {
	kickoff, err := time.Parse(datetimeLayout, asString(row["datetime"]))
	if err != nil {
		return team.Match{}, false
	}
	isHome := asString(row["side"]) == "h"
	m := team.Match{KickoffAt: kickoff.UTC(), IsResult: asBool(row["isResult"]), IsHome: isHome}
	if !m.IsResult {
		return m, true
	}

	xg, _ := row["xG"].(map[string]any)
	home, okH := asFloat(xg["h"])
	away, okA := asFloat(xg["a"])
	if !okH || !okA {
		return team.Match{}, false
	}
	if isHome {
		m.XGFor, m.XGAgainst = home, away
	} else {
		m.XGFor, m.XGAgainst = away, home
	}
	return m, true
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	var raw []byte
	err := c.breaker.Execute(func() error {
		var reqErr error
		raw, reqErr = c.executeRequest(ctx, c.baseURL+path)
		return reqErr
	}, func(err error) bool { return crerr.Is(err, errUnderstatTransient) })
	if crerr.Is(err, resilience.ErrCircuitOpen) {
		c.logger.WarnContext(ctx, "understat circuit breaker rejected request", "path", path, "state", c.breaker.State())
		return nil, crerr.Mark(crerr.Wrap(err, "understat is temporarily unavailable"), usecase.ErrDependencyUnavailable)
	}
	return raw, err
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, status, err := c.do(ctx, fullURL)
		switch {
		case err != nil:
			lastErr = crerr.Mark(crerr.Wrap(err, "send request"), errUnderstatTransient)
		case status >= 200 && status < 300:
			return raw, nil
		case status == fasthttp.StatusNotFound:
			return nil, crerr.Wrapf(usecase.ErrNotFound, "understat status=%d url=%s", status, fullURL)
		case status == fasthttp.StatusTooManyRequests || status >= 500:
			lastErr = crerr.Mark(crerr.Newf("understat status=%d", status), errUnderstatTransient)
		default:
			return nil, crerr.Newf("understat status=%d", status)
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

	c.logger.WarnContext(ctx, "understat request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func (c *Client) do(ctx context.Context, fullURL string) ([]byte, int, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(fullURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return nil, 0, context.DeadlineExceeded
	}
	if err := c.http.DoTimeout(req, resp, timeout); err != nil {
		return nil, 0, err
	}

	// resp is released on return, so the body has to be copied out.
	body := append([]byte(nil), resp.Body()...)
	return body, resp.StatusCode(), nil
}
