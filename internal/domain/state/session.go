// Package state holds the typed application state shared by every handler:
// user identity, the simulated balance ledger, the simulated inventory, the
// last observed avatar composition, and the correlation caches. A single
// instance is constructed at startup and passed by reference; there is no
// ambient global.
package state

// UserSession carries the observed identity and authentication artifacts of
// the active user. Fields are captured opportunistically from traffic and
// only ever overwritten, never cleared.
type UserSession struct {
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	Premium   string `json:"premium"`
	Cookie    string `json:"cookie"`
	CSRFToken string `json:"csrfToken"`
}

// ApplyIdentity updates the identity fields and reports whether anything
// changed. UserID is the change trigger; name and premium ride along.
func (s *UserSession) ApplyIdentity(userID, userName, premium string) bool {
	changed := s.UserID != userID || s.UserName != userName || s.Premium != premium
	s.UserID = userID
	s.UserName = userName
	s.Premium = premium
	return changed
}

// ApplyCookie records a newly observed session cookie.
func (s *UserSession) ApplyCookie(cookie string) bool {
	if cookie == "" || s.Cookie == cookie {
		return false
	}
	s.Cookie = cookie
	return true
}

// ApplyCSRFToken records a newly observed CSRF token.
func (s *UserSession) ApplyCSRFToken(token string) bool {
	if token == "" || s.CSRFToken == token {
		return false
	}
	s.CSRFToken = token
	return true
}
