package fintual

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/etnz/patry"
)

const maxRetries = 3

// goal is one entry of the /goals response.
type goal struct {
	ID         json.Number `json:"id"`
	Attributes struct {
		Name      string  `json:"name"`
		NAV       float64 `json:"nav"`
		Deposited float64 `json:"deposited"`
	} `json:"attributes"`
}

func (g goal) id() string { return g.ID.String() }

// movement is one entry of the paginated /movements response.
type movement struct {
	Attributes struct {
		CreatedAt string `json:"created_at"`
		Amount    string `json:"amount"`
		Positive  bool   `json:"positive"`
	} `json:"attributes"`
}

// performanceSeries is one series of the /performance response; the endpoint
// returns two, deposited first, goal value second.
type performanceSeries struct {
	Data []performancePoint `json:"data"`
}

type performancePoint struct {
	Date  int64   `json:"date"` // unix milliseconds
	Value float64 `json:"value"`
}

func (p performancePoint) date() patry.Date {
	return patry.NewDate(time.UnixMilli(p.Date).UTC().Date())
}

func (c *Client) getGoals(ctx context.Context) ([]goal, error) {
	uri := c.cfg.APIBase + "/goals?" + url.Values{
		"user_email": {c.cfg.Email},
		"user_token": {c.cfg.Token},
	}.Encode()
	var payload struct {
		Data []goal `json:"data"`
	}
	if err := c.getJSON(ctx, uri, false, &payload); err != nil {
		return nil, fmt.Errorf("fintual: could not list goals: %w", err)
	}
	return payload.Data, nil
}

func (c *Client) getMovementPage(ctx context.Context, goalID string, page int) ([]movement, error) {
	uri := c.cfg.AppBase + "/goals/" + goalID + "/movements?page=" + strconv.Itoa(page)
	var payload struct {
		Data []movement `json:"data"`
	}
	if err := c.getJSON(ctx, uri, true, &payload); err != nil {
		return nil, fmt.Errorf("fintual: could not fetch movements page %d of goal %s: %w", page, goalID, err)
	}
	return payload.Data, nil
}

func (c *Client) getPerformance(ctx context.Context, goalID string) ([]performanceSeries, error) {
	uri := c.cfg.AppBase + "/goals/" + goalID + "/performance"
	var payload struct {
		Data struct {
			Attributes struct {
				Performance []performanceSeries `json:"performance"`
			} `json:"attributes"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, uri, true, &payload); err != nil {
		return nil, fmt.Errorf("fintual: could not fetch performance of goal %s: %w", goalID, err)
	}
	return payload.Data.Attributes.Performance, nil
}

// getJSON performs an HTTP GET and unmarshals the JSON response, retrying
// with exponential backoff on transport errors and server-side failures.
func (c *Client) getJSON(ctx context.Context, uri string, withSession bool, out any) error {
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		if withSession {
			if c.cfg.Cookie == "" {
				return backoff.Permanent(fmt.Errorf("FINTUAL_COOKIE is required for this endpoint"))
			}
			req.AddCookie(&http.Cookie{Name: "_fintual_session_cookie", Value: c.cfg.Cookie})
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return err // transport errors are worth a retry
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode >= 500:
			return fmt.Errorf("server error: %s", resp.Status)
		case resp.StatusCode >= 400:
			return backoff.Permanent(fmt.Errorf("request rejected: %s", resp.Status))
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return backoff.Permanent(fmt.Errorf("invalid JSON response: %w", err))
		}
		return nil
	}
	return backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries), ctx))
}

// cleanMoney parses a Chilean-formatted monetary string: "." groups
// thousands, "," separates decimals, an optional "$" prefixes the value.
func cleanMoney(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	return strconv.ParseFloat(s, 64)
}
