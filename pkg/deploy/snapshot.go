package deploy

import (
	"context"

	"github.com/pseudomuto/transformctl/pkg/api"
)

// Snapshot is the remote state relevant to one deploy. It is read once, before
// any mutation, and never refreshed.
type Snapshot struct {
	// Transformations are the desired transformations that already exist.
	Transformations []api.Transformation

	// Schedules are the existing schedules of the desired transformations.
	Schedules []api.Schedule

	// Notifications are the existing subscriptions keyed by transformation
	// external id. Only existing transformations are listed.
	Notifications map[string][]api.Notification
}

// FetchSnapshot reads the remote state of the transformations in externalIDs.
func FetchSnapshot(ctx context.Context, client Client, externalIDs []string) (*Snapshot, error) {
	transformations, err := client.RetrieveTransformations(ctx, externalIDs)
	if err != nil {
		return nil, &RemoteError{Resource: ResourceTransformations, Operation: OperationRetrieve, Err: err}
	}

	schedules, err := client.RetrieveSchedules(ctx, externalIDs)
	if err != nil {
		return nil, &RemoteError{Resource: ResourceSchedules, Operation: OperationRetrieve, Err: err}
	}

	notifications := make(map[string][]api.Notification, len(transformations))
	for _, t := range transformations {
		items, err := client.ListNotifications(ctx, t.ExternalID)
		if err != nil {
			return nil, &RemoteError{Resource: ResourceNotifications, Operation: OperationRetrieve, Err: err}
		}

		notifications[t.ExternalID] = items
	}

	return &Snapshot{
		Transformations: transformations,
		Schedules:       schedules,
		Notifications:   notifications,
	}, nil
}

// TransformationIDs returns the external ids of the existing transformations.
func (s *Snapshot) TransformationIDs() []string {
	ids := make([]string, len(s.Transformations))
	for i, t := range s.Transformations {
		ids[i] = t.ExternalID
	}

	return ids
}

// ScheduleIDs returns the external ids of the existing schedules.
func (s *Snapshot) ScheduleIDs() []string {
	ids := make([]string, len(s.Schedules))
	for i, sched := range s.Schedules {
		ids[i] = sched.ExternalID
	}

	return ids
}
