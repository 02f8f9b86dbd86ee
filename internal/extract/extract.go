// Package extract implements the document extractor (C5): pure
// functions over an HTML body that locate the front page's story rows
// and a comment page's outbound links. Neither function performs I/O;
// malformed or missing fields produce an empty result for that row
// rather than aborting extraction.
package extract

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jra3/hn-archiver/internal/crawlerr"
)

// Story is one row pair parsed off the front page, before it has been
// given a local directory (that's crawl.StoryRecord's job).
type Story struct {
	ID          string
	Title       string
	URL         string
	HasComments bool
}

// CommentLink is one outbound anchor found inside a story's comment
// thread.
type CommentLink struct {
	CommentID string
	URL       string
}

// commentsTextToken is the literal substring extract_stories looks for
// in a metadata row's anchor text to decide has_comments.
const commentsTextToken = "comments"

// ExtractStories parses page as HTML and returns the sequence of
// top-level stories it finds. The upstream layout groups each story
// over two adjacent rows carrying class "athing" (title) and its
// immediate sibling (metadata); rows that do not yield a usable id are
// skipped rather than failing the whole page.
func ExtractStories(page []byte) ([]Story, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, &crawlerr.ParseError{Err: err}
	}

	var stories []Story
	doc.Find("tr.athing").Each(func(_ int, row *goquery.Selection) {
		id, ok := row.Attr("id")
		if !ok || id == "" {
			return
		}

		anchors := row.Find("a")
		if anchors.Length() < 2 {
			return
		}
		link := anchors.Eq(1)
		href, ok := link.Attr("href")
		if !ok || href == "" {
			return
		}

		meta := row.Next()
		hasComments := false
		meta.Find("a").Each(func(_ int, a *goquery.Selection) {
			if strings.Contains(a.Text(), commentsTextToken) {
				hasComments = true
			}
		})

		stories = append(stories, Story{
			ID:          id,
			Title:       strings.TrimSpace(link.Text()),
			URL:         href,
			HasComments: hasComments,
		})
	})

	return stories, nil
}

// ExtractCommentLinks parses page as HTML and returns every outbound
// hyperlink found inside a comment thread: anchors carrying
// rel="nofollow" nested inside a row with class "athing comtr", paired
// with the id of their enclosing comment row.
func ExtractCommentLinks(page []byte) ([]CommentLink, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, &crawlerr.ParseError{Err: err}
	}

	var links []CommentLink
	doc.Find("tr.athing.comtr").Each(func(_ int, row *goquery.Selection) {
		commentID, ok := row.Attr("id")
		if !ok || commentID == "" {
			return
		}

		row.Find(`a[rel="nofollow"]`).Each(func(_ int, a *goquery.Selection) {
			href, ok := a.Attr("href")
			if !ok || href == "" {
				return
			}
			links = append(links, CommentLink{CommentID: commentID, URL: href})
		})
	})

	return links, nil
}
