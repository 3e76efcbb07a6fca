// Package ledger tracks the reward-currency balance for one session and
// writes it through to durable storage on every credit.
package ledger

import (
	"errors"
	"strconv"
	"sync"

	accounts "github.com/CodeAndHammer/stelfalo/internal/accounts"
	constants "github.com/CodeAndHammer/stelfalo/internal/constants"
	events "github.com/CodeAndHammer/stelfalo/internal/events"
	models "github.com/CodeAndHammer/stelfalo/internal/models"
	store "github.com/CodeAndHammer/stelfalo/internal/store"
	util "github.com/CodeAndHammer/stelfalo/internal/util"
)

// Ledger binds a session's live balance to its persisted copy. Credits are
// written through before Credit returns; a failed write is logged and the
// in-memory balance stands, so gameplay degrades to memory-only rather
// than aborting.
type Ledger struct {
	mu       sync.Mutex
	sess     *models.Session
	accounts *accounts.Store
	kv       store.KV
	events   *events.Recorder
}

func New(sess *models.Session, acctStore *accounts.Store, kv store.KV, rec *events.Recorder) *Ledger {
	return &Ledger{
		sess:     sess,
		accounts: acctStore,
		kv:       kv,
		events:   rec,
	}
}

// Credit applies a signed delta to the active balance. A bound account's
// persisted balance follows; an unbound (guest) balance goes to the
// session-scoped guest key so the browser keeps its gems across restarts.
func (l *Ledger) Credit(amount int) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.sess.ActiveBalance += amount

	if l.sess.Current != nil {
		l.sess.Current.Balance = l.sess.ActiveBalance
		if err := l.accounts.UpdateBalance(l.sess.Current.Username, l.sess.ActiveBalance); err != nil {
			util.LogWarn("Balance write-through failed for %s, continuing memory-only: %v",
				l.sess.Current.Username, err)
		}
	} else {
		if err := l.kv.Set(l.guestKey(), strconv.Itoa(l.sess.ActiveBalance)); err != nil {
			util.LogWarn("Guest balance write-through failed, continuing memory-only: %v", err)
		}
	}

	l.events.BalanceChanged(l.sess.ActiveBalance)
	return l.sess.ActiveBalance
}

// Read returns the active balance.
func (l *Ledger) Read() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sess.ActiveBalance
}

// RestoreGuest loads the legacy guest balance, used when no account is
// bound at startup.
func (l *Ledger) RestoreGuest() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.sess.Current != nil {
		return
	}
	raw, err := l.kv.Get(l.guestKey())
	if err != nil {
		if !errors.Is(err, store.ErrKeyNotFound) {
			util.LogWarn("Failed to read guest balance: %v", err)
		}
		return
	}
	bal, err := strconv.Atoi(raw)
	if err != nil {
		util.LogWarn("Corrupt guest balance %q ignored", raw)
		return
	}
	l.sess.ActiveBalance = bal
}

// guestKey namespaces the guest balance by session scope so one guest's
// gems never clobber another's. An unscoped session keeps the bare key.
func (l *Ledger) guestKey() string {
	if l.sess.Scope == "" {
		return constants.StoreKeyGuestGems
	}
	return constants.StoreKeyGuestGems + ":" + l.sess.Scope
}
