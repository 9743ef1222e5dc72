// Package strava is a minimal Strava API client: activity listing, power
// streams, and rate-limit handling.
package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/oauth2"
)

const BaseURL = "https://www.strava.com/api/v3"

// ridesPerPage is the maximum page size Strava allows.
const ridesPerPage = 100

// Client is an authenticated Strava API client.
type Client struct {
	httpClient  *http.Client
	rateLimiter *RateLimiter
}

// NewClient wraps the token source in an authenticated HTTP client.
func NewClient(tokenSource oauth2.TokenSource) *Client {
	return &Client{
		httpClient:  oauth2.NewClient(context.Background(), tokenSource),
		rateLimiter: NewRateLimiter(),
	}
}

// GetActivities fetches one page of activities started after the given time.
func (c *Client) GetActivities(ctx context.Context, after time.Time, page, perPage int) ([]Activity, error) {
	params := url.Values{
		"page":     {strconv.Itoa(page)},
		"per_page": {strconv.Itoa(perPage)},
	}
	if !after.IsZero() {
		params.Set("after", strconv.FormatInt(after.Unix(), 10))
	}

	var activities []Activity
	if err := c.getJSON(ctx, "/athlete/activities", params, &activities); err != nil {
		return nil, err
	}
	return activities, nil
}

// GetAllRides pages through all activities after a given time, keeping only
// rides. onProgress, when non-nil, is called after each page with the ride
// count so far.
func (c *Client) GetAllRides(ctx context.Context, after time.Time, onProgress func(fetched int)) ([]Activity, error) {
	var rides []Activity
	for page := 1; ; page++ {
		activities, err := c.GetActivities(ctx, after, page, ridesPerPage)
		if err != nil {
			return rides, fmt.Errorf("fetching page %d: %w", page, err)
		}
		if len(activities) == 0 {
			break
		}

		for _, a := range activities {
			if a.IsRide() {
				rides = append(rides, a)
			}
		}
		if onProgress != nil {
			onProgress(len(rides))
		}

		if len(activities) < ridesPerPage {
			break
		}
	}
	return rides, nil
}

// GetPowerStream fetches the time and watts streams for an activity.
func (c *Client) GetPowerStream(ctx context.Context, activityID int64) (*Streams, error) {
	params := url.Values{
		"keys":        {"time,watts"},
		"key_by_type": {"true"},
	}

	var streams Streams
	path := fmt.Sprintf("/activities/%d/streams", activityID)
	if err := c.getJSON(ctx, path, params, &streams); err != nil {
		return nil, err
	}
	return &streams, nil
}

// RateLimitStatus reports the remaining request allowance in both windows.
func (c *Client) RateLimitStatus() (shortRemaining, dailyRemaining int) {
	return c.rateLimiter.Status()
}

// getJSON performs a rate-limited GET and decodes the JSON response into out.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return err
	}

	reqURL := BaseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	c.rateLimiter.UpdateFromHeaders(resp.Header)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}
