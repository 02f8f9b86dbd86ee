package crawl

// StoryRecord is a front-page story once it has been assigned a local
// directory. It is created when the front page is parsed, consumed as
// fetch tasks are spawned, and not retained after dispatch.
type StoryRecord struct {
	ID          string
	Title       string
	URL         string
	HasComments bool
	DirPath     string
}

// CommentLink is one outbound hyperlink found in a story's comment
// thread, paired with the directory its artifact belongs under.
type CommentLink struct {
	StoryID   string
	CommentID string
	URL       string
	DirPath   string
}

// Stats summarizes one pass for the history ledger and the pass-complete
// log line. It is purely additive observability; the id registry remains
// the sole idempotency source.
// Counts that are mutated from concurrent tasks (FetchSuccess,
// FetchFailure, BytesWritten) are int64 so they can be updated with
// sync/atomic; StoriesSeen and StoriesNew are only touched on the
// goroutine that parses the front page.
type Stats struct {
	StoriesSeen  int
	StoriesNew   int
	FetchSuccess int64
	FetchFailure int64
	BytesWritten int64
}
