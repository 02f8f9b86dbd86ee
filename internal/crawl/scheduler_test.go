package crawl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jra3/hn-archiver/internal/store"
)

// fakeFetcher serves fixed bodies keyed by exact URL, recording every URL
// it was asked to fetch.
type fakeFetcher struct {
	mu        sync.Mutex
	responses map[string][]byte
	requested []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	f.requested = append(f.requested, url)
	body, ok := f.responses[url]
	f.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("fake fetcher: no response stubbed for %s", url)
	}
	return body, nil
}

const frontPage = `
<html><body><table>
<tr class="athing" id="1"><td><a href="vote"></a></td><td><a href="https://outside.example/article">External Story</a></td></tr>
<tr><td class="subtext"><a href="item?id=1">3&nbsp;comments</a></td></tr>
</table></body></html>
`

const commentsPage = `
<html><body><table>
<tr class="athing comtr" id="c1"><td><a href="https://linked.example/one" rel="nofollow">one</a></td></tr>
</table></body></html>
`

func TestRunPassHappyPath(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	seen := store.NewRegistry()

	f := &fakeFetcher{responses: map[string][]byte{
		"https://news.example/":                     []byte(frontPage),
		"https://outside.example/article":            []byte("story body"),
		"https://news.example/item?id=1":             []byte(commentsPage),
		"https://linked.example/one":                 []byte("linked body"),
	}}

	s, err := New(f, "https://news.example/", root, seen)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	stats := s.RunPass(context.Background(), "test-pass")

	if stats.StoriesSeen != 1 || stats.StoriesNew != 1 {
		t.Errorf("stats = %+v, want StoriesSeen=1 StoriesNew=1", stats)
	}
	if !seen.Contains("1") {
		t.Error("seen.Contains(\"1\") = false, want true after pass")
	}

	mainBody, err := os.ReadFile(filepath.Join(root, "main.html"))
	if err != nil {
		t.Fatalf("ReadFile(main.html) error = %v", err)
	}
	if string(mainBody) != frontPage {
		t.Error("main.html content mismatch")
	}

	storyDir := filepath.Join(root, "1 External Story")
	if _, err := os.Stat(filepath.Join(storyDir, "page.html")); err != nil {
		t.Errorf("expected page.html under %s: %v", storyDir, err)
	}
	if _, err := os.Stat(filepath.Join(storyDir, "comments.html")); err != nil {
		t.Errorf("expected comments.html under %s: %v", storyDir, err)
	}
	linkPath := filepath.Join(storyDir, "comment_c1", "page.html")
	if _, err := os.Stat(linkPath); err != nil {
		t.Errorf("expected outbound link artifact at %s: %v", linkPath, err)
	}
}

func TestRunPassSkipsAlreadySeenStories(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	seen := store.NewRegistry()
	seen.Insert("1")

	f := &fakeFetcher{responses: map[string][]byte{
		"https://news.example/": []byte(frontPage),
	}}

	s, err := New(f, "https://news.example/", root, seen)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	stats := s.RunPass(context.Background(), "test-pass")

	if stats.StoriesNew != 0 {
		t.Errorf("StoriesNew = %d, want 0 for an already-seen story", stats.StoriesNew)
	}
	if _, err := os.Stat(filepath.Join(root, "1 External Story")); err == nil {
		t.Error("expected no story directory for an already-seen id")
	}
}

func TestRunPassFrontPageFetchFailureIsNonFatal(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	seen := store.NewRegistry()
	f := &fakeFetcher{responses: map[string][]byte{}}

	s, err := New(f, "https://news.example/", root, seen)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	stats := s.RunPass(context.Background(), "test-pass")
	if stats.StoriesSeen != 0 {
		t.Errorf("StoriesSeen = %d, want 0 when the front page fetch fails", stats.StoriesSeen)
	}
}

func TestIsExternal(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{
		"https://outside.example/article": true,
		"https://news.example/item?id=42": false,
	}
	for url, want := range cases {
		if got := isExternal(url); got != want {
			t.Errorf("isExternal(%q) = %v, want %v", url, got, want)
		}
	}
}
