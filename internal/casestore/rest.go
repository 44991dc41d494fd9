package casestore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/copperline/triage/internal/httpclient"
	"github.com/copperline/triage/internal/model"
)

const restBasePath = "/api/v1/emergency"

// REST fetches cases from an upstream case-management service. Reads retry
// transient failures; writes are single-shot.
type REST struct {
	client *httpclient.Client
}

// NewREST creates a REST store against the given base URL. The API key is
// sent as a Bearer token when non-empty.
func NewREST(endpoint, apiKey string) *REST {
	return &REST{client: httpclient.New(endpoint, apiKey)}
}

func (r *REST) Get(ctx context.Context, id string) (model.CaseContext, bool, error) {
	var c model.CaseContext
	err := r.client.GetJSON(ctx, restBasePath+"/"+url.PathEscape(id), nil, &c)
	if err != nil {
		var apiErr *httpclient.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == 404 {
			return model.CaseContext{}, false, nil
		}
		return model.CaseContext{}, false, fmt.Errorf("casestore: get %s: %w", id, err)
	}
	return c, true, nil
}

func (r *REST) Put(ctx context.Context, c model.CaseContext) error {
	if err := r.client.PostJSON(ctx, restBasePath, c, nil); err != nil {
		return fmt.Errorf("casestore: put %s: %w", c.ID, err)
	}
	return nil
}

func (r *REST) Recent(ctx context.Context, limit int) ([]model.CaseContext, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out []model.CaseContext
	if err := r.client.GetJSON(ctx, restBasePath, q, &out); err != nil {
		return nil, fmt.Errorf("casestore: recent: %w", err)
	}
	return out, nil
}
