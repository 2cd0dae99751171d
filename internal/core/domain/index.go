package domain

// IndexState is the lifecycle state of an indexing run.
type IndexState int

// Indexing states.
const (
	IndexIdle IndexState = iota
	IndexScanning
	IndexCompleted
	IndexCancelled
	// IndexFailed means the run could not start against the store.
	IndexFailed
)

// String returns a lower-case label.
func (s IndexState) String() string {
	switch s {
	case IndexIdle:
		return "idle"
	case IndexScanning:
		return "scanning"
	case IndexCompleted:
		return "completed"
	case IndexCancelled:
		return "cancelled"
	case IndexFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether the run has finished.
func (s IndexState) IsTerminal() bool {
	return s == IndexCompleted || s == IndexCancelled || s == IndexFailed
}

// IndexSummary is the completion event of an indexing run.
type IndexSummary struct {
	Indexed   int
	Skipped   int
	Cancelled bool
	// Err is set only when the run failed before scanning.
	Err error
}

// IndexEventKind distinguishes progress messages from completion.
type IndexEventKind int

// Index event kinds.
const (
	IndexEventProgress IndexEventKind = iota
	IndexEventDone
)

// IndexEvent is one message on an indexing run's event stream.
type IndexEvent struct {
	Kind IndexEventKind

	// Message is free text, set for progress events.
	Message string

	// Summary is set for the completion event.
	Summary IndexSummary
}

// IndexSettings holds indexing pipeline configuration.
type IndexSettings struct {
	// MinContentLength is the stripped length a text must exceed.
	MinContentLength int

	// EmbedMaxChars truncates content before embedding.
	EmbedMaxChars int

	// BatchSize is the number of documents written per transaction.
	BatchSize int

	// ArchiveDepth is how many archive levels are opened.
	ArchiveDepth int
}

// DefaultIndexSettings returns the pipeline defaults.
func DefaultIndexSettings() IndexSettings {
	return IndexSettings{
		MinContentLength: 20,
		EmbedMaxChars:    8000,
		BatchSize:        50,
		ArchiveDepth:     1,
	}
}
