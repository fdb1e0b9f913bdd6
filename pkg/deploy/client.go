package deploy

import (
	"context"

	"github.com/pseudomuto/transformctl/pkg/api"
)

type (
	// DataSetRetriever resolves data sets by id or external id.
	DataSetRetriever interface {
		RetrieveDataSet(ctx context.Context, id api.Identifier) (*api.DataSet, error)
	}

	// Client is the subset of the transformations API used during a deploy.
	// *api.Client satisfies it.
	Client interface {
		DataSetRetriever

		RetrieveTransformations(ctx context.Context, externalIDs []string) ([]api.Transformation, error)
		RetrieveTransformation(ctx context.Context, id api.Identifier) (*api.Transformation, error)
		CreateTransformations(ctx context.Context, items []api.Transformation) ([]api.Transformation, error)
		UpdateTransformations(ctx context.Context, items []api.Update) ([]api.Transformation, error)
		DeleteTransformations(ctx context.Context, ids []api.Identifier) error

		RetrieveSchedules(ctx context.Context, externalIDs []string) ([]api.Schedule, error)
		CreateSchedules(ctx context.Context, items []api.Schedule) ([]api.Schedule, error)
		UpdateSchedules(ctx context.Context, items []api.Update) ([]api.Schedule, error)
		DeleteSchedules(ctx context.Context, ids []api.Identifier) error

		ListNotifications(ctx context.Context, transformationExternalID string) ([]api.Notification, error)
		CreateNotifications(ctx context.Context, items []api.Notification) ([]api.Notification, error)
		DeleteNotifications(ctx context.Context, ids []int64) error
	}
)

var _ Client = (*api.Client)(nil)
