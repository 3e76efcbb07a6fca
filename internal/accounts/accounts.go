// Package accounts holds the durable username -> account mapping and the
// login/logout/signup transitions that bind an account to a session.
package accounts

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"

	constants "github.com/CodeAndHammer/stelfalo/internal/constants"
	models "github.com/CodeAndHammer/stelfalo/internal/models"
	store "github.com/CodeAndHammer/stelfalo/internal/store"
	util "github.com/CodeAndHammer/stelfalo/internal/util"
)

var (
	ErrInvalidInput   = errors.New(constants.ErrorCodeInvalidInput)
	ErrDuplicateUser  = errors.New(constants.ErrorCodeDuplicateUser)
	ErrNotFound       = errors.New(constants.ErrorCodeNotFound)
	ErrBadCredentials = errors.New(constants.ErrorCodeBadCredentials)
)

// Store is the shared account registry. Persistence failures never abort an
// operation: the in-memory state stays authoritative and the session keeps
// playing memory-only (worst case, balances reset on next load).
type Store struct {
	mu       sync.Mutex
	kv       store.KV
	accounts map[string]models.Account
}

func Load(kv store.KV) *Store {
	s := &Store{
		kv:       kv,
		accounts: make(map[string]models.Account),
	}

	raw, err := kv.Get(constants.StoreKeyAccounts)
	if err != nil {
		if !errors.Is(err, store.ErrKeyNotFound) {
			util.LogWarn("Failed to read accounts from store: %v", err)
		}
		return s
	}
	if err := json.Unmarshal([]byte(raw), &s.accounts); err != nil {
		util.LogWarn("Failed to parse persisted accounts, starting empty: %v", err)
		s.accounts = make(map[string]models.Account)
		return s
	}
	util.LogInfo("Loaded %d accounts", len(s.accounts))
	return s
}

// Signup creates the account and binds it to the session. The session's
// guest balance carries forward into the new account and is persisted
// immediately, so an in-progress score survives the conversion.
func (s *Store) Signup(sess *models.Session, username, password, avatarRef string) (models.Account, error) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		return models.Account{}, ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[username]; exists {
		return models.Account{}, ErrDuplicateUser
	}

	acct := models.Account{
		Username: username,
		Password: password,
		Avatar:   avatarRef,
		Balance:  sess.ActiveBalance,
	}
	s.accounts[username] = acct
	s.flushLocked()
	s.setLastLoginLocked(sess.Scope, username)

	sess.Current = &acct
	sess.ActiveBalance = acct.Balance
	util.LogInfo("Created account %s (avatar %s, starting balance %d)", username, avatarRef, acct.Balance)
	return acct, nil
}

// Login binds an existing account. automatic marks the silent restore at
// startup: the caller suppresses user-facing prompts, but the error is
// still returned so it can degrade to guest mode.
func (s *Store) Login(sess *models.Session, username, password string, automatic bool) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, exists := s.accounts[strings.TrimSpace(username)]
	if !exists {
		if !automatic {
			util.LogWarn("Login failed for %q: unknown user", username)
		}
		return models.Account{}, ErrNotFound
	}
	if acct.Password != password {
		if !automatic {
			util.LogWarn("Login failed for %q: bad credentials", username)
		}
		return models.Account{}, ErrBadCredentials
	}

	s.setLastLoginLocked(sess.Scope, acct.Username)
	sess.Current = &acct
	sess.ActiveBalance = acct.Balance
	util.LogInfo("Logged in %s (automatic=%v, balance %d)", acct.Username, automatic, acct.Balance)
	return acct, nil
}

// Logout clears the binding and returns the session to guest state.
func (s *Store) Logout(sess *models.Session) {
	s.mu.Lock()
	if err := s.kv.Delete(lastLoginKey(sess.Scope)); err != nil {
		util.LogWarn("Failed to clear last login: %v", err)
	}
	s.mu.Unlock()

	if sess.Current != nil {
		util.LogInfo("Logged out %s", sess.Current.Username)
	}
	sess.Current = nil
	sess.ActiveBalance = 0
}

// RestoreLast silently re-binds the account last logged in under this
// session's scope, if any. Returns false when there is nothing to restore
// or the account has vanished; the session stays in guest mode either way.
// The scoping keeps one browser's silent restore out of every other
// browser's session.
func (s *Store) RestoreLast(sess *models.Session) bool {
	username, err := s.kv.Get(lastLoginKey(sess.Scope))
	if err != nil {
		if !errors.Is(err, store.ErrKeyNotFound) {
			util.LogWarn("Failed to read last login: %v", err)
		}
		return false
	}

	s.mu.Lock()
	acct, exists := s.accounts[username]
	s.mu.Unlock()
	if !exists {
		return false
	}

	if _, err := s.Login(sess, acct.Username, acct.Password, true); err != nil {
		return false
	}
	return true
}

// UpdateBalance writes an account's new balance through to the store. It is
// the ledger's half of the credit path, not a public operation.
func (s *Store) UpdateBalance(username string, balance int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, exists := s.accounts[username]
	if !exists {
		return ErrNotFound
	}
	acct.Balance = balance
	s.accounts[username] = acct
	return s.flushLocked()
}

// Get returns a stored account by username.
func (s *Store) Get(username string) (models.Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, exists := s.accounts[username]
	return acct, exists
}

// Count returns the number of stored accounts.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.accounts)
}

func (s *Store) flushLocked() error {
	data, err := json.Marshal(s.accounts)
	if err != nil {
		return err
	}
	if err := s.kv.Set(constants.StoreKeyAccounts, string(data)); err != nil {
		util.LogWarn("Failed to persist accounts: %v", err)
		return err
	}
	return nil
}

func (s *Store) setLastLoginLocked(scope, username string) {
	if err := s.kv.Set(lastLoginKey(scope), username); err != nil {
		util.LogWarn("Failed to persist last login: %v", err)
	}
}

// lastLoginKey namespaces the persisted login by session scope, matching
// the device-local storage the page keeps it in.
func lastLoginKey(scope string) string {
	if scope == "" {
		return constants.StoreKeyLastLogin
	}
	return constants.StoreKeyLastLogin + ":" + scope
}
