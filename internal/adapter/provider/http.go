package provider

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"pricesync/internal/domain/model"
)

func newRestClient(baseURL string, timeout time.Duration) *resty.Client {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(timeout)
	client.SetHeader("Accept", "application/json")
	client.SetHeader("User-Agent", "pricesync/1.0")
	return client
}

// get performs one bounded GET and returns the body of a 2xx response.
// Transport failures, timeouts and non-2xx answers become *model.ProviderError.
func get(ctx context.Context, req *resty.Request, provider, op, path string) ([]byte, error) {
	resp, err := req.SetContext(ctx).Get(path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return nil, &model.ProviderError{Provider: provider, Op: op, Err: err}
	}

	if resp.IsError() {
		perr := &model.ProviderError{
			Provider:   provider,
			Op:         op,
			StatusCode: resp.StatusCode(),
		}
		if resp.StatusCode() == http.StatusTooManyRequests {
			perr.RetryAfter = parseRetryAfter(resp.Header().Get("Retry-After"))
		}
		return nil, perr
	}

	return resp.Body(), nil
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
