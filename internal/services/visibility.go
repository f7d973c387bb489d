package services

import "veryus/internal/models"

// IsVisible reports whether viewer may read comment on a post written by postAuthorID.
// Secret comments are limited to their writer and the post author; a nil viewer sees none.
func IsVisible(comment models.Comment, viewer *models.Session, postAuthorID string) bool {
	if !comment.IsSecret {
		return true
	}
	if viewer == nil {
		return false
	}
	return viewer.Is(comment.WriterUID) || viewer.Is(postAuthorID)
}

// RedactHidden blanks the secret comments viewer may not read. They keep their place in the
// thread so replies stay attached.
func RedactHidden(entries []ThreadEntry, viewer *models.Session, postAuthorID string) []ThreadEntry {
	for i := range entries {
		if IsVisible(entries[i].Comment, viewer, postAuthorID) {
			continue
		}
		e := &entries[i]
		e.Content = ""
		e.WriterUID = ""
		e.WriterNickname = ""
		e.LikedBy = nil
		e.LikesCount = 0
		e.HTML = ""
		e.Hidden = true
	}
	return entries
}
