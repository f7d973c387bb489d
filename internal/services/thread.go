package services

import (
	"html/template"
	"sort"

	"veryus/internal/models"
)

// ThreadEntry is one comment of a flattened thread.
type ThreadEntry struct {
	models.Comment
	Depth  int           `json:"depth"`
	Hidden bool          `json:"hidden,omitempty"`
	HTML   template.HTML `json:"html,omitempty"`
}

// ThreadResult is the display order of a post's comments.
// Cycles lists comments whose parent chain loops; they are not part of Entries.
type ThreadResult struct {
	Entries []ThreadEntry
	Cycles  []string
}

type ancestry int

const (
	reachesRoot ancestry = iota
	orphaned
	cyclic
)

// FlattenThread orders the comments of one post for display. Each root is followed by all of
// its descendants sorted by creation time, with Depth counting the hops up to the root.
// Comments whose chain ends in a missing parent are dropped.
func FlattenThread(comments []models.Comment) ThreadResult {
	byID := make(map[string]*models.Comment, len(comments))
	unique := make([]*models.Comment, 0, len(comments))
	for i := range comments {
		c := &comments[i]
		if _, dup := byID[c.ID]; dup {
			continue
		}
		byID[c.ID] = c
		unique = append(unique, c)
	}

	var roots []*models.Comment
	children := make(map[string][]ThreadEntry)
	result := ThreadResult{Entries: make([]ThreadEntry, 0, len(unique))}

	for _, c := range unique {
		if !c.IsReply() {
			roots = append(roots, c)
			continue
		}
		rootID, depth, state := walkToRoot(c, byID)
		switch state {
		case reachesRoot:
			children[rootID] = append(children[rootID], ThreadEntry{Comment: *c, Depth: depth})
		case cyclic:
			result.Cycles = append(result.Cycles, c.ID)
		}
	}

	sort.SliceStable(roots, func(i, j int) bool { return earlier(roots[i], roots[j]) })
	for _, root := range roots {
		result.Entries = append(result.Entries, ThreadEntry{Comment: *root})
		replies := children[root.ID]
		sort.SliceStable(replies, func(i, j int) bool { return earlier(&replies[i].Comment, &replies[j].Comment) })
		result.Entries = append(result.Entries, replies...)
	}
	sort.Strings(result.Cycles)
	return result
}

// walkToRoot follows parent links from c. The walk stops on a missing parent or a revisited id.
func walkToRoot(c *models.Comment, byID map[string]*models.Comment) (string, int, ancestry) {
	visited := map[string]bool{c.ID: true}
	depth := 0
	cur := c
	for cur.IsReply() {
		parentID := *cur.ParentID
		parent, ok := byID[parentID]
		if !ok {
			return "", 0, orphaned
		}
		if visited[parentID] {
			return "", 0, cyclic
		}
		visited[parentID] = true
		depth++
		cur = parent
	}
	return cur.ID, depth, reachesRoot
}

func earlier(a, b *models.Comment) bool {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return a.ID < b.ID
	}
	return a.CreatedAt.Before(b.CreatedAt)
}
