package crawl

import (
	"context"
	"log"
	"net/url"
	"path/filepath"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/jra3/hn-archiver/internal/extract"
	"github.com/jra3/hn-archiver/internal/pathutil"
	"github.com/jra3/hn-archiver/internal/store"
)

const itemPath = "item"

// Fetcher is the subset of *fetch.Fetcher the scheduler depends on; a
// narrow interface keeps scheduler tests free of real network I/O.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Scheduler is the task scheduler (C6): it orchestrates the
// fetch-parse-persist pipeline for a single pass as a dynamically growing
// task graph, and enforces no backpressure of its own beyond what the
// Fetcher already does at the semaphore layer.
type Scheduler struct {
	fetcher Fetcher
	base    *url.URL
	outRoot string
	seen    *store.Registry
}

// New builds a Scheduler targeting baseURL's front page and outRoot for
// persisted artifacts. seen is consulted and mutated as stories are
// discovered; a story is marked seen at directory-path-assignment time,
// not at full completion of its sub-fetches.
func New(fetcher Fetcher, baseURL, outRoot string, seen *store.Registry) (*Scheduler, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	return &Scheduler{fetcher: fetcher, base: base, outRoot: outRoot, seen: seen}, nil
}

// RunPass fetches the front page, extracts its stories, and spawns one
// subtree of tasks per newly discovered story. It returns once every
// spawned task (and every task those tasks spawned) has terminated.
func (s *Scheduler) RunPass(ctx context.Context, passID string) Stats {
	var stats Stats

	body, err := s.fetcher.Fetch(ctx, s.base.String())
	if err != nil {
		log.Printf("[pass %s] front page fetch failed: %v", passID, err)
		return stats
	}
	atomic.AddInt64(&stats.BytesWritten, int64(len(body)))

	mainPath := filepath.Join(s.outRoot, "main.html")
	if err := store.Persist(mainPath, body); err != nil {
		log.Printf("[pass %s] persist main page failed: %v", passID, err)
	}

	stories, err := extract.ExtractStories(body)
	if err != nil {
		log.Printf("[pass %s] front page parse failed: %v", passID, err)
		return stats
	}
	stats.StoriesSeen = len(stories)

	var eg errgroup.Group
	for _, story := range stories {
		if s.seen.Contains(story.ID) {
			continue
		}
		s.seen.Insert(story.ID)
		stats.StoriesNew++

		record := StoryRecord{
			ID:          story.ID,
			Title:       story.Title,
			URL:         s.resolve(story.URL),
			HasComments: story.HasComments,
			DirPath:     filepath.Join(s.outRoot, story.ID+" "+pathutil.SanitizeTitle(story.Title, 0)),
		}

		if isExternal(record.URL) {
			eg.Go(func() error {
				s.fetchAndPersistStoryPage(ctx, passID, record, &stats)
				return nil
			})
		}
		if record.HasComments {
			eg.Go(func() error {
				s.fetchAndExpandComments(ctx, passID, record, &eg, &stats)
				return nil
			})
		}
	}

	eg.Wait()
	return stats
}

func (s *Scheduler) fetchAndPersistStoryPage(ctx context.Context, passID string, story StoryRecord, stats *Stats) {
	body, err := s.fetcher.Fetch(ctx, story.URL)
	if err != nil {
		log.Printf("[pass %s] story %s fetch failed: %v", passID, story.ID, err)
		atomic.AddInt64(&stats.FetchFailure, 1)
		return
	}
	atomic.AddInt64(&stats.FetchSuccess, 1)
	atomic.AddInt64(&stats.BytesWritten, int64(len(body)))

	path := filepath.Join(story.DirPath, "page.html")
	if err := store.Persist(path, body); err != nil {
		log.Printf("[pass %s] story %s persist failed: %v", passID, story.ID, err)
	}
}

func (s *Scheduler) fetchAndExpandComments(ctx context.Context, passID string, story StoryRecord, eg *errgroup.Group, stats *Stats) {
	commentsURL := s.itemURL(story.ID)
	body, err := s.fetcher.Fetch(ctx, commentsURL)
	if err != nil {
		log.Printf("[pass %s] story %s comments fetch failed: %v", passID, story.ID, err)
		atomic.AddInt64(&stats.FetchFailure, 1)
		return
	}
	atomic.AddInt64(&stats.FetchSuccess, 1)
	atomic.AddInt64(&stats.BytesWritten, int64(len(body)))

	commentsPath := filepath.Join(story.DirPath, "comments.html")
	if err := store.Persist(commentsPath, body); err != nil {
		log.Printf("[pass %s] story %s comments persist failed: %v", passID, story.ID, err)
	}

	links, err := extract.ExtractCommentLinks(body)
	if err != nil {
		log.Printf("[pass %s] story %s comments parse failed: %v", passID, story.ID, err)
		return
	}

	for _, link := range links {
		link := CommentLink{
			StoryID:   story.ID,
			CommentID: link.CommentID,
			URL:       s.resolve(link.URL),
			DirPath:   filepath.Join(story.DirPath, "comment_"+link.CommentID),
		}
		eg.Go(func() error {
			s.fetchAndPersistOutboundLink(ctx, passID, link, stats)
			return nil
		})
	}
}

func (s *Scheduler) fetchAndPersistOutboundLink(ctx context.Context, passID string, link CommentLink, stats *Stats) {
	body, err := s.fetcher.Fetch(ctx, link.URL)
	if err != nil {
		log.Printf("[pass %s] comment %s link fetch failed: %v", passID, link.CommentID, err)
		atomic.AddInt64(&stats.FetchFailure, 1)
		return
	}
	atomic.AddInt64(&stats.FetchSuccess, 1)
	atomic.AddInt64(&stats.BytesWritten, int64(len(body)))

	name := pathutil.DeriveFileName(link.URL, "page.html", nil)
	path := filepath.Join(link.DirPath, name)
	if err := store.Persist(path, body); err != nil {
		log.Printf("[pass %s] comment %s link persist failed: %v", passID, link.CommentID, err)
	}
}

func (s *Scheduler) resolve(ref string) string {
	u, err := s.base.Parse(ref)
	if err != nil {
		return ref
	}
	return u.String()
}

func (s *Scheduler) itemURL(id string) string {
	u := *s.base
	u.Path = itemPath
	u.RawQuery = "id=" + id
	return u.String()
}

// isExternal reports whether a resolved story URL points away from the
// seed site's own item pages (the only case the front page links
// internally for self-posts without an external target).
func isExternal(resolved string) bool {
	return !strings.Contains(resolved, "/item?id=") && !strings.HasSuffix(resolved, "/item")
}
