// Package optimistic provides the apply/await-confirmation/revert pattern
// used by list views: mutate an in-memory list immediately for responsive
// UI, then roll back to a snapshot if the confirming call fails.
// Last-writer-wins; no merge is attempted.
package optimistic

import (
	"context"
	"slices"
)

// Update applies mutate to *list, then runs confirm. If confirm returns an
// error, *list is restored to the snapshot taken before the mutation and
// the error is returned.
//
// The snapshot is a shallow clone: element values are copied, pointed-to
// data is shared. Callers mutating through pointers need value elements.
func Update[T any](ctx context.Context, list *[]T, mutate func([]T) []T, confirm func(context.Context) error) error {
	snapshot := slices.Clone(*list)
	*list = mutate(*list)

	if err := confirm(ctx); err != nil {
		*list = snapshot
		return err
	}
	return nil
}

// Remove deletes the first element matching pred from *list, confirming via
// confirm and restoring the element on failure.
func Remove[T any](ctx context.Context, list *[]T, pred func(T) bool, confirm func(context.Context) error) error {
	return Update(ctx, list, func(items []T) []T {
		return slices.DeleteFunc(items, pred)
	}, confirm)
}
