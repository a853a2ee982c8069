// Package fintual implements the fetch adapter for Fintual, a Chilean
// investment platform with a plain JSON API. It uses the user token for the
// public API (goals and balances) and the session cookie for the app
// endpoints (movements and historical performance).
package fintual

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/rs/zerolog"

	"github.com/etnz/patry"
)

// Account is the identifier this adapter is registered under.
const Account = "fintual"

const movementDateFormat = "02/01/06"

// Config holds the credentials and endpoints for the Fintual API. Adapters
// receive it explicitly instead of reading the environment from within.
type Config struct {
	Email   string        `env:"FINTUAL_EMAIL"`
	Token   string        `env:"FINTUAL_TOKEN"`
	Cookie  string        `env:"FINTUAL_COOKIE"`
	APIBase string        `env:"FINTUAL_API_URL" envDefault:"https://fintual.cl/api"`
	AppBase string        `env:"FINTUAL_APP_URL" envDefault:"https://fintual.cl/app"`
	Timeout time.Duration `env:"FINTUAL_TIMEOUT" envDefault:"30s"`
}

// LoadConfig reads the configuration from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.Email == "" || cfg.Token == "" {
		return Config{}, fmt.Errorf("fintual: FINTUAL_EMAIL and FINTUAL_TOKEN are required")
	}
	return cfg, nil
}

// Client fetches balances and cashflows from Fintual. It implements
// [patry.Fetcher] and [patry.HistoricalFetcher].
type Client struct {
	cfg  Config
	http *http.Client
	log  zerolog.Logger
}

func New(cfg Config, log zerolog.Logger) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  log.With().Str("adapter", Account).Logger(),
	}
}

// Fetch retrieves the current balance of every goal plus its full movement
// history. Movements are signed per the pipeline convention: a deposit is an
// outflow from the investor and therefore negative.
func (c *Client) Fetch(ctx context.Context) (patry.FetchResult, error) {
	goals, err := c.getGoals(ctx)
	if err != nil {
		return patry.FetchResult{}, err
	}

	result := patry.FetchResult{AsOf: patry.Today()}
	for _, goal := range goals {
		result.Balances = append(result.Balances, patry.AssetBalance{
			Asset: goal.Attributes.Name,
			Value: patry.M(goal.Attributes.NAV, patry.DefaultCurrency),
		})
		flows, err := c.getMovements(ctx, goal.id(), goal.Attributes.Name)
		if err != nil {
			return patry.FetchResult{}, err
		}
		result.Cashflows = append(result.Cashflows, flows...)
	}
	return result, nil
}

// FetchSince retrieves movements dated on or after the given date, for
// historical reconstruction.
func (c *Client) FetchSince(ctx context.Context, from patry.Date) ([]patry.Cashflow, error) {
	goals, err := c.getGoals(ctx)
	if err != nil {
		return nil, err
	}
	var flows []patry.Cashflow
	for _, goal := range goals {
		all, err := c.getMovements(ctx, goal.id(), goal.Attributes.Name)
		if err != nil {
			return nil, err
		}
		for _, cf := range all {
			if !cf.Date.Before(from) {
				flows = append(flows, cf)
			}
		}
	}
	return flows, nil
}

// Deposited returns the total deposited and the goal value recorded by the
// performance history for the given date. The second return is false when no
// point exists for that day.
func (c *Client) Deposited(ctx context.Context, goalID string, on patry.Date) (deposited, value patry.Money, ok bool, err error) {
	perf, err := c.getPerformance(ctx, goalID)
	if err != nil {
		return patry.Money{}, patry.Money{}, false, err
	}
	if len(perf) < 2 {
		return patry.Money{}, patry.Money{}, false, nil
	}
	// The first series is the deposited amount, the second the goal value.
	values := make(map[string]float64, len(perf[1].Data))
	for _, p := range perf[1].Data {
		values[p.date().String()] = p.Value
	}
	for _, p := range perf[0].Data {
		if p.date() == on {
			v, found := values[on.String()]
			if !found {
				return patry.Money{}, patry.Money{}, false, nil
			}
			return patry.M(p.Value, patry.DefaultCurrency), patry.M(v, patry.DefaultCurrency), true, nil
		}
	}
	return patry.Money{}, patry.Money{}, false, nil
}

// GoalIDs lists the user's goal identifiers with their names.
func (c *Client) GoalIDs(ctx context.Context) (map[string]string, error) {
	goals, err := c.getGoals(ctx)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]string, len(goals))
	for _, goal := range goals {
		ids[goal.id()] = goal.Attributes.Name
	}
	return ids, nil
}

// getMovements walks the paginated movements endpoint until an empty page.
func (c *Client) getMovements(ctx context.Context, goalID, asset string) ([]patry.Cashflow, error) {
	var flows []patry.Cashflow
	for page := 1; ; page++ {
		c.log.Info().Str("goal", goalID).Int("page", page).Msg("fetching movements")
		movements, err := c.getMovementPage(ctx, goalID, page)
		if err != nil {
			return nil, err
		}
		if len(movements) == 0 {
			return flows, nil
		}
		for _, m := range movements {
			day, err := time.Parse(movementDateFormat, m.Attributes.CreatedAt)
			if err != nil {
				return nil, fmt.Errorf("fintual: invalid movement date %q: %w", m.Attributes.CreatedAt, err)
			}
			amount, err := cleanMoney(m.Attributes.Amount)
			if err != nil {
				return nil, fmt.Errorf("fintual: invalid movement amount %q: %w", m.Attributes.Amount, err)
			}
			// "positive" marks money entering the goal, i.e. leaving the investor.
			if m.Attributes.Positive {
				amount = -amount
			}
			flows = append(flows, patry.Cashflow{
				Date:    patry.NewDate(day.Date()),
				Amount:  patry.M(amount, patry.DefaultCurrency),
				Account: Account,
				Asset:   asset,
			})
		}
	}
}
