// Package deploy turns a loaded manifest set into API calls.
//
// A deploy has three stages. The Translator maps every manifest onto the
// transformation, schedule and notification resources it implies, reading SQL
// files and resolving data set external ids along the way. FetchSnapshot then
// reads the matching remote state exactly once. Finally the Reconciler runs one
// pass per resource kind, in the order transformations, schedules,
// notifications.
//
// Every pass partitions keys with Partition:
//
//	delete = existing - desired
//	update = existing ∩ desired
//	create = desired - existing
//
// and applies the three lists in that order, in batches. Transformations and
// schedules are always resubmitted when they exist, whether or not anything
// changed. Transformation updates are followed by a second, partial update that
// sets or clears the data set id, since the full update ignores null fields.
// Notifications are keyed by transformation external id and destination
// address, and existing matches are left untouched.
//
// Batches are sent one after another. The first failure stops the deploy with
// a *RemoteError; batches that were already applied stay applied.
package deploy
