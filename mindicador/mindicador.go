// Package mindicador fetches Chilean economic indicators from the public
// mindicador.cl API. The pipeline uses it as its currency-rate collaborator
// for the USD/CLP conversion column.
package mindicador

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/PaesslerAG/jsonpath"
	"github.com/rs/zerolog"

	"github.com/etnz/patry"
)

// ErrNoRate is returned when no published rate could be found for the
// requested date, including the prior-day fallback window.
var ErrNoRate = errors.New("mindicador: no published rate")

const defaultBase = "https://mindicador.cl/api"

// apiDateFormat is the day-month-year layout mindicador.cl expects.
const apiDateFormat = "02-01-2006"

// maxLookback bounds the nearest-prior-date fallback: rates are not
// published on weekends and holidays, a week of slack covers any gap.
const maxLookback = 7

// Client fetches USD/CLP rates. It implements [patry.RateSource].
type Client struct {
	base string
	http *http.Client
	log  zerolog.Logger
}

// New returns a client against the public API, with responses cached on disk
// for the day.
func New(log zerolog.Logger) *Client {
	return &Client{base: defaultBase, http: daily(), log: log.With().Str("adapter", "mindicador").Logger()}
}

// NewWithBase returns an uncached client against a custom endpoint. For tests.
func NewWithBase(base string, log zerolog.Logger) *Client {
	return &Client{base: base, http: new(http.Client), log: log}
}

// USD returns the CLP-per-USD rate for the given date. When the API has no
// value for that day, the nearest prior published rate is used, scanning back
// at most a week; past that the typed ErrNoRate is returned.
func (c *Client) USD(ctx context.Context, on patry.Date) (float64, error) {
	for back := 0; back <= maxLookback; back++ {
		day := on.Add(-back)
		rate, err := c.fetchDay(ctx, day)
		if err == nil {
			if back > 0 {
				c.log.Info().Stringer("requested", on).Stringer("used", day).Msg("falling back to nearest prior rate")
			}
			return rate, nil
		}
		if !errors.Is(err, ErrNoRate) {
			return 0, err
		}
		if err := ctx.Err(); err != nil {
			return 0, err
		}
	}
	return 0, fmt.Errorf("%w for %s (looked back %d days)", ErrNoRate, on, maxLookback)
}

func (c *Client) fetchDay(ctx context.Context, day patry.Date) (float64, error) {
	addr := c.base + "/dolar/" + day.Format(apiDateFormat)
	var jobj any
	if err := jwget(ctx, c.http, addr, &jobj); err != nil {
		return 0, fmt.Errorf("mindicador: cannot fetch %q: %w", addr, err)
	}

	const path = "$.serie[0].valor"
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		// An empty "serie" means no rate published for that day.
		return 0, ErrNoRate
	}
	// jsonpath is never clear about whether it returns a list of one answer
	// or a single answer; keep the first one if any.
	if jlist, ok := jval.([]any); ok {
		if len(jlist) == 0 {
			return 0, ErrNoRate
		}
		jval = jlist[0]
	}
	val, ok := jval.(float64)
	if !ok {
		return 0, fmt.Errorf("mindicador: %q is not a number: %v", path, jval)
	}
	return val, nil
}
