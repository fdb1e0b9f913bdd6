package deploy_test

import (
	"context"
	"slices"

	"github.com/pkg/errors"
	"github.com/pseudomuto/transformctl/pkg/api"
)

var errRemote = errors.New("remote failure")

type call struct {
	Method string
	Items  any
	Size   int
}

// fakeClient is an in-memory API that records every call. Mutations change its
// state so that consecutive deploys observe each other.
type fakeClient struct {
	transformations []api.Transformation
	schedules       []api.Schedule
	notifications   map[string][]api.Notification
	dataSets        map[string]int64

	// failures maps a method name to the 1-based call number that fails.
	failures map[string]int
	counts   map[string]int

	calls  []call
	nextID int64
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		notifications: make(map[string][]api.Notification),
		dataSets:      make(map[string]int64),
		failures:      make(map[string]int),
		counts:        make(map[string]int),
		nextID:        100,
	}
}

func (f *fakeClient) record(method string, items any, size int) error {
	f.counts[method]++
	f.calls = append(f.calls, call{Method: method, Items: items, Size: size})

	if n, ok := f.failures[method]; ok && n == f.counts[method] {
		return errRemote
	}

	return nil
}

func (f *fakeClient) callsTo(method string) []call {
	var out []call
	for _, c := range f.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}

	return out
}

func (f *fakeClient) mutations() []call {
	var out []call
	for _, c := range f.calls {
		switch c.Method {
		case "RetrieveTransformations", "RetrieveTransformation", "RetrieveSchedules", "ListNotifications", "RetrieveDataSet":
		default:
			out = append(out, c)
		}
	}

	return out
}

func (f *fakeClient) RetrieveDataSet(_ context.Context, id api.Identifier) (*api.DataSet, error) {
	if err := f.record("RetrieveDataSet", id, 1); err != nil {
		return nil, err
	}

	n, ok := f.dataSets[id.ExternalID]
	if !ok {
		return nil, errors.Wrap(api.ErrNotFound, id.ExternalID)
	}

	return &api.DataSet{ID: n, ExternalID: id.ExternalID}, nil
}

func (f *fakeClient) RetrieveTransformations(_ context.Context, externalIDs []string) ([]api.Transformation, error) {
	if err := f.record("RetrieveTransformations", externalIDs, len(externalIDs)); err != nil {
		return nil, err
	}

	var out []api.Transformation
	for _, t := range f.transformations {
		if slices.Contains(externalIDs, t.ExternalID) {
			out = append(out, t)
		}
	}

	return out, nil
}

func (f *fakeClient) RetrieveTransformation(_ context.Context, id api.Identifier) (*api.Transformation, error) {
	if err := f.record("RetrieveTransformation", id, 1); err != nil {
		return nil, err
	}

	for _, t := range f.transformations {
		if (id.ExternalID != "" && t.ExternalID == id.ExternalID) || (id.ID != 0 && t.ID == id.ID) {
			return &t, nil
		}
	}

	return nil, &api.Error{StatusCode: 404, Message: "not found"}
}

func (f *fakeClient) CreateTransformations(_ context.Context, items []api.Transformation) ([]api.Transformation, error) {
	if err := f.record("CreateTransformations", items, len(items)); err != nil {
		return nil, err
	}

	for _, t := range items {
		f.nextID++
		t.ID = f.nextID
		f.transformations = append(f.transformations, t)
	}

	return items, nil
}

func (f *fakeClient) UpdateTransformations(_ context.Context, items []api.Update) ([]api.Transformation, error) {
	if err := f.record("UpdateTransformations", items, len(items)); err != nil {
		return nil, err
	}

	return nil, nil
}

func (f *fakeClient) DeleteTransformations(_ context.Context, ids []api.Identifier) error {
	if err := f.record("DeleteTransformations", ids, len(ids)); err != nil {
		return err
	}

	f.transformations = slices.DeleteFunc(f.transformations, func(t api.Transformation) bool {
		return slices.ContainsFunc(ids, func(id api.Identifier) bool {
			return id.ExternalID == t.ExternalID || (id.ID != 0 && id.ID == t.ID)
		})
	})

	return nil
}

func (f *fakeClient) RetrieveSchedules(_ context.Context, externalIDs []string) ([]api.Schedule, error) {
	if err := f.record("RetrieveSchedules", externalIDs, len(externalIDs)); err != nil {
		return nil, err
	}

	var out []api.Schedule
	for _, s := range f.schedules {
		if slices.Contains(externalIDs, s.ExternalID) {
			out = append(out, s)
		}
	}

	return out, nil
}

func (f *fakeClient) CreateSchedules(_ context.Context, items []api.Schedule) ([]api.Schedule, error) {
	if err := f.record("CreateSchedules", items, len(items)); err != nil {
		return nil, err
	}

	f.schedules = append(f.schedules, items...)
	return items, nil
}

func (f *fakeClient) UpdateSchedules(_ context.Context, items []api.Update) ([]api.Schedule, error) {
	if err := f.record("UpdateSchedules", items, len(items)); err != nil {
		return nil, err
	}

	return nil, nil
}

func (f *fakeClient) DeleteSchedules(_ context.Context, ids []api.Identifier) error {
	if err := f.record("DeleteSchedules", ids, len(ids)); err != nil {
		return err
	}

	f.schedules = slices.DeleteFunc(f.schedules, func(s api.Schedule) bool {
		return slices.Contains(ids, api.ByExternalID(s.ExternalID))
	})

	return nil
}

func (f *fakeClient) ListNotifications(_ context.Context, externalID string) ([]api.Notification, error) {
	if err := f.record("ListNotifications", externalID, 1); err != nil {
		return nil, err
	}

	return slices.Clone(f.notifications[externalID]), nil
}

func (f *fakeClient) CreateNotifications(_ context.Context, items []api.Notification) ([]api.Notification, error) {
	if err := f.record("CreateNotifications", items, len(items)); err != nil {
		return nil, err
	}

	for _, n := range items {
		f.nextID++
		n.ID = f.nextID
		f.notifications[n.TransformationExternalID] = append(f.notifications[n.TransformationExternalID], n)
	}

	return items, nil
}

func (f *fakeClient) DeleteNotifications(_ context.Context, ids []int64) error {
	if err := f.record("DeleteNotifications", ids, len(ids)); err != nil {
		return err
	}

	for extID, items := range f.notifications {
		f.notifications[extID] = slices.DeleteFunc(items, func(n api.Notification) bool {
			return slices.Contains(ids, n.ID)
		})
	}

	return nil
}
