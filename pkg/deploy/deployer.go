package deploy

import (
	"context"

	"github.com/pkg/errors"
	"github.com/pseudomuto/transformctl/pkg/api"
	"github.com/pseudomuto/transformctl/pkg/manifest"
	"go.uber.org/zap"
)

type (
	// Options configures a Deployer.
	Options struct {
		// Cluster is used to derive default OAuth scopes.
		Cluster string

		// BatchSize bounds the number of items per mutating call. Defaults to
		// consts.DefaultBatchSize.
		BatchSize int

		Logger *zap.Logger
	}

	// Deployer reconciles a manifest set against the remote project.
	Deployer struct {
		client     Client
		translator *Translator
		reconciler *Reconciler
		log        *zap.Logger
	}

	// Result collects the outcome of every pass that ran.
	Result struct {
		Passes []PassResult
	}
)

// New returns a Deployer that talks to client.
func New(client Client, opts Options) *Deployer {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Deployer{
		client:     client,
		translator: &Translator{Cluster: opts.Cluster, DataSets: client},
		reconciler: NewReconciler(client, opts.BatchSize, log),
		log:        log,
	}
}

// Deploy makes the remote project match set. Every manifest is translated
// before anything remote is read, the remote state is read once, and then the
// transformation, schedule and notification passes run in that order.
//
// Translation failures are returned as *manifest.ConfigError and happen before
// any mutation. A failing pass returns a *RemoteError together with the results
// of every pass so far, including the partial one; nothing already applied is
// rolled back.
//
// Example:
//
//	set, err := manifest.Load("./transformations", manifest.Options{})
//	if err != nil {
//		return err
//	}
//
//	res, err := deploy.New(client, deploy.Options{Cluster: "europe-west1-1"}).Deploy(ctx, set)
//	if res != nil {
//		_ = res.Write(os.Stdout, false)
//	}
func (d *Deployer) Deploy(ctx context.Context, set manifest.Set) (*Result, error) {
	desired, err := d.translator.Translate(ctx, set)
	if err != nil {
		return nil, err
	}

	snap, err := FetchSnapshot(ctx, d.client, set.ExternalIDs())
	if err != nil {
		return nil, err
	}

	d.log.Debug("fetched remote state",
		zap.Int("transformations", len(snap.Transformations)),
		zap.Int("schedules", len(snap.Schedules)),
		zap.Int("notified_transformations", len(snap.Notifications)),
	)

	passes := []func() (PassResult, error){
		func() (PassResult, error) { return d.reconciler.Transformations(ctx, desired.Transformations, snap) },
		func() (PassResult, error) { return d.reconciler.Schedules(ctx, desired.Schedules, snap) },
		func() (PassResult, error) { return d.reconciler.Notifications(ctx, desired.Notifications, snap) },
	}

	res := new(Result)
	for _, pass := range passes {
		pr, err := pass()
		res.Passes = append(res.Passes, pr)
		if err != nil {
			return res, err
		}
	}

	return res, nil
}

// DeleteTransformation deletes a single transformation by id or external id.
// The transformation must exist.
func DeleteTransformation(ctx context.Context, client Client, id api.Identifier) (*api.Transformation, error) {
	t, err := client.RetrieveTransformation(ctx, id)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return nil, errors.Wrapf(err, "id not found: %s", id)
		}

		return nil, &RemoteError{Resource: ResourceTransformations, Operation: OperationRetrieve, Err: err}
	}

	ref := api.ByExternalID(t.ExternalID)
	if t.ExternalID == "" {
		ref = api.ByID(t.ID)
	}

	if err := client.DeleteTransformations(ctx, []api.Identifier{ref}); err != nil {
		return nil, &RemoteError{Resource: ResourceTransformations, Operation: OperationDelete, Err: err}
	}

	return t, nil
}
