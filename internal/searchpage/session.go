// internal/searchpage/session.go
package searchpage

// searchSession remembers the last submitted query. It is owned by a single
// SearchPage and written only by Search.
type searchSession struct {
	lastQuery string
}

func (s *searchSession) record(query string) {
	s.lastQuery = query
}

// last returns the recorded query. An empty query counts as none.
func (s *searchSession) last() (string, bool) {
	return s.lastQuery, s.lastQuery != ""
}
