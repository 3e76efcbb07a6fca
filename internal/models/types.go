package models

// Problem is one multiplication fact. Immutable once created.
type Problem struct {
	A      int `json:"a"`
	B      int `json:"b"`
	Answer int `json:"answer"`
}

// Account is a stored player account. Password is opaque to this layer;
// Balance is the persisted gem count.
type Account struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Avatar   string `json:"avatar"`
	Balance  int    `json:"balance"`
}

// Session is the account binding for one player: the currently bound
// account (nil for guest play) and the live gem balance. Whenever Current
// is set, ActiveBalance mirrors Current.Balance after every credit.
// Scope is the browser session ID; the persisted per-player keys (last
// login, guest balance) are namespaced by it so one browser's state never
// bleeds into another's. An empty Scope addresses the bare legacy keys.
type Session struct {
	Scope         string
	Current       *Account
	ActiveBalance int
}

// Guest reports whether no account is bound.
func (s *Session) Guest() bool {
	return s.Current == nil
}
