package driving

import (
	"context"

	"github.com/custodia-labs/sercha-desk/internal/core/domain"
)

// IndexService runs indexing pipelines over registered folders.
type IndexService interface {
	// Start begins indexing a registered folder in the background.
	// Returns domain.ErrIndexInProgress if a run already covers it.
	Start(ctx context.Context, folder string) (IndexRun, error)

	// IndexAll indexes every registered folder one after another and
	// returns a summary per folder path.
	IndexAll(ctx context.Context, progress func(folder string, ev domain.IndexEvent)) (map[string]domain.IndexSummary, error)

	// Status returns the state of the latest run for a folder.
	Status(folder string) domain.IndexState
}

// IndexRun is a handle to one background indexing run.
type IndexRun interface {
	// ID is a unique identifier for the run.
	ID() string

	// Folder is the root being indexed.
	Folder() string

	// Events streams progress messages followed by exactly one completion
	// event. The channel is closed after the completion event.
	Events() <-chan domain.IndexEvent

	// Cancel requests cooperative cancellation.
	Cancel()

	// Wait blocks until the run finishes and returns its summary.
	Wait() domain.IndexSummary

	// State returns the current lifecycle state.
	State() domain.IndexState
}
