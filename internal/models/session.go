package models

// Session is the authenticated viewer of a request. A nil *Session means anonymous.
type Session struct {
	UserID   string
	Nickname string
	Grade    string
	Role     string
}

// Is reports whether the session belongs to uid.
func (s *Session) Is(uid string) bool {
	return s != nil && uid != "" && s.UserID == uid
}
