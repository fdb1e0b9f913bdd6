package api

import (
	"context"
	"net/url"
	"strconv"

	"github.com/pkg/errors"
	"github.com/pseudomuto/transformctl/pkg/utils"
)

const notificationPageSize = 1000

// RetrieveTransformations returns the transformations among externalIDs that
// exist. Unknown ids are ignored.
func (c *Client) RetrieveTransformations(ctx context.Context, externalIDs []string) ([]Transformation, error) {
	return retrieveByExternalIDs[Transformation](ctx, c, "/transformations/byids", externalIDs)
}

// RetrieveTransformation returns a single transformation. An unknown id yields
// an error matching ErrNotFound.
func (c *Client) RetrieveTransformation(ctx context.Context, id Identifier) (*Transformation, error) {
	var resp itemsResponse[Transformation]
	if err := c.post(ctx, "/transformations/byids", itemsRequest[Identifier]{Items: []Identifier{id}}, &resp); err != nil {
		return nil, err
	}

	if len(resp.Items) == 0 {
		return nil, errors.Wrapf(ErrNotFound, "transformation %s", id)
	}

	return &resp.Items[0], nil
}

func (c *Client) CreateTransformations(ctx context.Context, items []Transformation) ([]Transformation, error) {
	var resp itemsResponse[Transformation]
	err := c.post(ctx, "/transformations", itemsRequest[Transformation]{Items: items}, &resp)
	return resp.Items, err
}

func (c *Client) UpdateTransformations(ctx context.Context, items []Update) ([]Transformation, error) {
	var resp itemsResponse[Transformation]
	err := c.post(ctx, "/transformations/update", itemsRequest[Update]{Items: items}, &resp)
	return resp.Items, err
}

// DeleteTransformations deletes the given transformations, ignoring unknown ids.
func (c *Client) DeleteTransformations(ctx context.Context, ids []Identifier) error {
	return c.post(ctx, "/transformations/delete", itemsRequest[Identifier]{
		Items:            ids,
		IgnoreUnknownIDs: ignoreUnknown(true),
	}, nil)
}

// RetrieveSchedules returns the schedules of the given transformations. Unknown
// ids and unscheduled transformations are ignored.
func (c *Client) RetrieveSchedules(ctx context.Context, externalIDs []string) ([]Schedule, error) {
	return retrieveByExternalIDs[Schedule](ctx, c, "/transformations/schedules/byids", externalIDs)
}

func (c *Client) CreateSchedules(ctx context.Context, items []Schedule) ([]Schedule, error) {
	var resp itemsResponse[Schedule]
	err := c.post(ctx, "/transformations/schedules", itemsRequest[Schedule]{Items: items}, &resp)
	return resp.Items, err
}

func (c *Client) UpdateSchedules(ctx context.Context, items []Update) ([]Schedule, error) {
	var resp itemsResponse[Schedule]
	err := c.post(ctx, "/transformations/schedules/update", itemsRequest[Update]{Items: items}, &resp)
	return resp.Items, err
}

// DeleteSchedules unschedules the given transformations, ignoring unknown ids.
func (c *Client) DeleteSchedules(ctx context.Context, ids []Identifier) error {
	return c.post(ctx, "/transformations/schedules/delete", itemsRequest[Identifier]{
		Items:            ids,
		IgnoreUnknownIDs: ignoreUnknown(true),
	}, nil)
}

// ListNotifications returns every notification subscription of a transformation,
// following cursors until the listing is exhausted.
func (c *Client) ListNotifications(ctx context.Context, transformationExternalID string) ([]Notification, error) {
	var (
		out    []Notification
		cursor string
	)

	for {
		query := url.Values{
			"transformationExternalId": {transformationExternalID},
			"limit":                    {strconv.Itoa(notificationPageSize)},
		}
		if cursor != "" {
			query.Set("cursor", cursor)
		}

		var page itemsResponse[Notification]
		if err := c.get(ctx, "/transformations/notifications", query, &page); err != nil {
			return nil, err
		}

		out = append(out, page.Items...)
		if page.NextCursor == "" {
			return out, nil
		}

		cursor = page.NextCursor
	}
}

func (c *Client) CreateNotifications(ctx context.Context, items []Notification) ([]Notification, error) {
	var resp itemsResponse[Notification]
	err := c.post(ctx, "/transformations/notifications", itemsRequest[Notification]{Items: items}, &resp)
	return resp.Items, err
}

// DeleteNotifications deletes notification subscriptions by internal id.
func (c *Client) DeleteNotifications(ctx context.Context, ids []int64) error {
	items := make([]Identifier, len(ids))
	for i, id := range ids {
		items[i] = ByID(id)
	}

	return c.post(ctx, "/transformations/notifications/delete", itemsRequest[Identifier]{Items: items}, nil)
}

// RetrieveDataSet returns a single data set. An unknown id yields an error
// matching ErrNotFound.
func (c *Client) RetrieveDataSet(ctx context.Context, id Identifier) (*DataSet, error) {
	var resp itemsResponse[DataSet]
	if err := c.post(ctx, "/datasets/byids", itemsRequest[Identifier]{Items: []Identifier{id}}, &resp); err != nil {
		return nil, err
	}

	if len(resp.Items) == 0 {
		return nil, errors.Wrapf(ErrNotFound, "data set %s", id)
	}

	return &resp.Items[0], nil
}

// String implements fmt.Stringer.
func (i Identifier) String() string {
	if i.ExternalID != "" {
		return strconv.Quote(i.ExternalID)
	}

	return strconv.FormatInt(i.ID, 10)
}

// retrieveByExternalIDs looks up externalIDs at path, at most RetrieveLimit ids
// per request, ignoring unknown ids.
func retrieveByExternalIDs[T any](ctx context.Context, c *Client, path string, externalIDs []string) ([]T, error) {
	var out []T
	for _, batch := range utils.Chunk(externalIDs, c.config.RetrieveLimit) {
		var resp itemsResponse[T]
		err := c.post(ctx, path, itemsRequest[Identifier]{
			Items:            ByExternalIDs(batch),
			IgnoreUnknownIDs: ignoreUnknown(true),
		}, &resp)
		if err != nil {
			return nil, err
		}

		out = append(out, resp.Items...)
	}

	return out, nil
}
