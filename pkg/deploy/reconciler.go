package deploy

import (
	"context"
	"fmt"

	"github.com/pseudomuto/transformctl/pkg/api"
	"github.com/pseudomuto/transformctl/pkg/consts"
	"github.com/pseudomuto/transformctl/pkg/utils"
	"go.uber.org/zap"
)

const (
	ResourceTransformations Resource = "transformations"
	ResourceSchedules       Resource = "schedules"
	ResourceNotifications   Resource = "notifications"
)

const (
	OperationRetrieve Operation = "retrieve"
	OperationDelete   Operation = "delete"
	OperationUpdate   Operation = "update"
	OperationCreate   Operation = "create"
)

type (
	// Resource names one of the reconciled resource kinds.
	Resource string

	// Operation names a remote call made while reconciling.
	Operation string

	// PassResult lists what one reconciliation pass deleted, updated and created.
	// Transformations and schedules are listed by external id, notifications as
	// "<external id>: <destination>".
	PassResult struct {
		Resource Resource
		Deleted  []string
		Updated  []string
		Created  []string
	}

	// Reconciler applies the difference between desired and existing resources.
	// Mutations are sent sequentially in fixed size batches; the first failing
	// batch stops the pass.
	Reconciler struct {
		client    Client
		batchSize int
		log       *zap.Logger
	}

	notificationKey struct {
		ExternalID  string
		Destination string
	}
)

// NewReconciler returns a Reconciler. A non-positive batchSize uses the default.
func NewReconciler(client Client, batchSize int, log *zap.Logger) *Reconciler {
	if batchSize <= 0 {
		batchSize = consts.DefaultBatchSize
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Reconciler{client: client, batchSize: batchSize, log: log}
}

// Transformations reconciles transformations. Every existing, desired
// transformation is resubmitted in full, and each update batch is followed by a
// partial update that sets or clears its data set id.
func (r *Reconciler) Transformations(ctx context.Context, desired []api.Transformation, snap *Snapshot) (PassResult, error) {
	byID := make(map[string]api.Transformation, len(desired))
	ids := make([]string, len(desired))
	for i, t := range desired {
		byID[t.ExternalID] = t
		ids[i] = t.ExternalID
	}

	plan := Partition(ids, snap.TransformationIDs())
	res := PassResult{Resource: ResourceTransformations}

	err := apply(ctx, r, ResourceTransformations, OperationDelete, plan.Delete, &res.Deleted, func(ctx context.Context, batch []string) error {
		return r.client.DeleteTransformations(ctx, api.ByExternalIDs(batch))
	})
	if err != nil {
		return res, err
	}

	err = apply(ctx, r, ResourceTransformations, OperationUpdate, plan.Update, &res.Updated, func(ctx context.Context, batch []string) error {
		full := make([]api.Update, len(batch))
		dataSets := make([]api.Update, len(batch))
		for i, id := range batch {
			t := byID[id]
			full[i] = api.FullUpdate(t)
			dataSets[i] = api.SetDataSet(id, t.DataSetID)
		}

		if _, err := r.client.UpdateTransformations(ctx, full); err != nil {
			return err
		}

		_, err := r.client.UpdateTransformations(ctx, dataSets)
		return err
	})
	if err != nil {
		return res, err
	}

	err = apply(ctx, r, ResourceTransformations, OperationCreate, plan.Create, &res.Created, func(ctx context.Context, batch []string) error {
		items := make([]api.Transformation, len(batch))
		for i, id := range batch {
			items[i] = byID[id]
		}

		_, err := r.client.CreateTransformations(ctx, items)
		return err
	})

	return res, err
}

// Schedules reconciles schedules: existing schedules no longer requested are
// deleted, existing requested ones are updated and the rest are created.
func (r *Reconciler) Schedules(ctx context.Context, desired []api.Schedule, snap *Snapshot) (PassResult, error) {
	byID := make(map[string]api.Schedule, len(desired))
	ids := make([]string, len(desired))
	for i, s := range desired {
		byID[s.ExternalID] = s
		ids[i] = s.ExternalID
	}

	plan := Partition(ids, snap.ScheduleIDs())
	res := PassResult{Resource: ResourceSchedules}

	err := apply(ctx, r, ResourceSchedules, OperationDelete, plan.Delete, &res.Deleted, func(ctx context.Context, batch []string) error {
		return r.client.DeleteSchedules(ctx, api.ByExternalIDs(batch))
	})
	if err != nil {
		return res, err
	}

	err = apply(ctx, r, ResourceSchedules, OperationUpdate, plan.Update, &res.Updated, func(ctx context.Context, batch []string) error {
		items := make([]api.Update, len(batch))
		for i, id := range batch {
			items[i] = api.ScheduleUpdate(byID[id])
		}

		_, err := r.client.UpdateSchedules(ctx, items)
		return err
	})
	if err != nil {
		return res, err
	}

	err = apply(ctx, r, ResourceSchedules, OperationCreate, plan.Create, &res.Created, func(ctx context.Context, batch []string) error {
		items := make([]api.Schedule, len(batch))
		for i, id := range batch {
			items[i] = byID[id]
		}

		_, err := r.client.CreateSchedules(ctx, items)
		return err
	})

	return res, err
}

// Notifications reconciles notification subscriptions, matched by transformation
// external id and destination address. Subscriptions that already exist are
// left alone; there is no update step.
func (r *Reconciler) Notifications(ctx context.Context, desired []api.Notification, snap *Snapshot) (PassResult, error) {
	want := make([]notificationKey, len(desired))
	for i, n := range desired {
		want[i] = notificationKey{ExternalID: n.TransformationExternalID, Destination: n.Destination}
	}

	var have []notificationKey
	existingIDs := make(map[notificationKey][]int64)
	for _, extID := range snap.TransformationIDs() {
		for _, n := range snap.Notifications[extID] {
			key := notificationKey{ExternalID: extID, Destination: n.Destination}
			existingIDs[key] = append(existingIDs[key], n.ID)
			have = append(have, key)
		}
	}

	plan := Partition(want, have)
	res := PassResult{Resource: ResourceNotifications}

	// Duplicate subscriptions share a key, so batches are cut from the ids.
	var deleteIDs []int64
	for _, k := range plan.Delete {
		deleteIDs = append(deleteIDs, existingIDs[k]...)
	}

	var deleted []string
	err := apply(ctx, r, ResourceNotifications, OperationDelete, deleteIDs, &deleted, func(ctx context.Context, batch []int64) error {
		return r.client.DeleteNotifications(ctx, batch)
	})
	res.Deleted = deletedKeys(plan.Delete, existingIDs, len(deleted))
	if err != nil {
		return res, err
	}

	err = apply(ctx, r, ResourceNotifications, OperationCreate, plan.Create, &res.Created, func(ctx context.Context, batch []notificationKey) error {
		items := make([]api.Notification, len(batch))
		for i, k := range batch {
			items[i] = api.Notification{TransformationExternalID: k.ExternalID, Destination: k.Destination}
		}

		_, err := r.client.CreateNotifications(ctx, items)
		return err
	})

	return res, err
}

// apply sends items to fn in batches of r.batchSize and appends every applied
// item to done.
func apply[K any](
	ctx context.Context,
	r *Reconciler,
	resource Resource,
	op Operation,
	items []K,
	done *[]string,
	fn func(context.Context, []K) error,
) error {
	for i, batch := range utils.Chunk(items, r.batchSize) {
		r.log.Debug("applying batch",
			zap.String("resource", string(resource)),
			zap.String("operation", string(op)),
			zap.Int("batch", i),
			zap.Int("size", len(batch)),
		)

		if err := fn(ctx, batch); err != nil {
			return &RemoteError{Resource: resource, Operation: op, Applied: len(*done), Err: err}
		}

		for _, item := range batch {
			*done = append(*done, fmt.Sprint(item))
		}
	}

	return nil
}

// deletedKeys returns the keys whose ids are all among the first n deleted ids.
func deletedKeys(keys []notificationKey, ids map[notificationKey][]int64, n int) []string {
	var out []string
	for _, k := range keys {
		if n -= len(ids[k]); n < 0 {
			break
		}
		out = append(out, k.String())
	}

	return out
}

func (k notificationKey) String() string {
	return fmt.Sprintf("%s: %s", k.ExternalID, k.Destination)
}
