package ledger

import (
	"errors"
	"strconv"
	"testing"

	accounts "github.com/CodeAndHammer/stelfalo/internal/accounts"
	constants "github.com/CodeAndHammer/stelfalo/internal/constants"
	events "github.com/CodeAndHammer/stelfalo/internal/events"
	models "github.com/CodeAndHammer/stelfalo/internal/models"
	store "github.com/CodeAndHammer/stelfalo/internal/store"
)

func TestCreditRoundTripGuest(t *testing.T) {
	kv := store.NewMemStore()
	sess := &models.Session{}
	rec := events.NewRecorder()
	l := New(sess, accounts.Load(kv), kv, rec)

	before := l.Read()
	if got := l.Credit(10); got != before+10 {
		t.Errorf("Credit(10) = %d, want %d", got, before+10)
	}
	if l.Read() != before+10 {
		t.Errorf("Read = %d, want %d", l.Read(), before+10)
	}

	// Guest balance is written through to the legacy key.
	raw, err := kv.Get(constants.StoreKeyGuestGems)
	if err != nil || raw != strconv.Itoa(before+10) {
		t.Errorf("persisted guest balance = %q, %v", raw, err)
	}

	evs := rec.Drain()
	if len(evs) != 1 || evs[0].Type != events.TypeBalanceChanged || evs[0].Value != before+10 {
		t.Errorf("events = %+v, want balanceChanged(%d)", evs, before+10)
	}
}

func TestCreditWritesThroughBoundAccount(t *testing.T) {
	kv := store.NewMemStore()
	acctStore := accounts.Load(kv)
	sess := &models.Session{}
	if _, err := acctStore.Signup(sess, "ann", "pw", ""); err != nil {
		t.Fatalf("signup failed: %v", err)
	}
	l := New(sess, acctStore, kv, events.NewRecorder())

	l.Credit(10)
	l.Credit(5)
	if sess.Current.Balance != 15 {
		t.Errorf("bound account balance = %d, want 15", sess.Current.Balance)
	}

	// Reloading the account store yields the same persisted balance.
	reloaded := accounts.Load(kv)
	acct, ok := reloaded.Get("ann")
	if !ok || acct.Balance != 15 {
		t.Errorf("reloaded balance = %+v (%v), want 15", acct, ok)
	}
}

func TestNegativeCreditAllowed(t *testing.T) {
	kv := store.NewMemStore()
	sess := &models.Session{ActiveBalance: 20}
	l := New(sess, accounts.Load(kv), kv, events.NewRecorder())

	if got := l.Credit(-5); got != 15 {
		t.Errorf("Credit(-5) = %d, want 15", got)
	}
}

func TestGuestBalancesAreScopedPerSession(t *testing.T) {
	kv := store.NewMemStore()
	acctStore := accounts.Load(kv)

	first := &models.Session{Scope: "sess-1"}
	New(first, acctStore, kv, events.NewRecorder()).Credit(30)

	// A fresh session neither sees nor clobbers the first one's gems.
	second := &models.Session{Scope: "sess-2"}
	l2 := New(second, acctStore, kv, events.NewRecorder())
	l2.RestoreGuest()
	if l2.Read() != 0 {
		t.Errorf("fresh session inherited balance %d, want 0", l2.Read())
	}
	l2.Credit(7)

	restored := &models.Session{Scope: "sess-1"}
	l1 := New(restored, acctStore, kv, events.NewRecorder())
	l1.RestoreGuest()
	if l1.Read() != 30 {
		t.Errorf("scoped balance after another session's credit = %d, want 30", l1.Read())
	}
}

// failingKV rejects every write.
type failingKV struct {
	*store.MemStore
}

func (f failingKV) Set(key, value string) error {
	return errors.New("disk on fire")
}

func TestCreditSurvivesPersistenceFailure(t *testing.T) {
	kv := failingKV{store.NewMemStore()}
	sess := &models.Session{}
	rec := events.NewRecorder()
	l := New(sess, accounts.Load(kv), kv, rec)

	if got := l.Credit(10); got != 10 {
		t.Errorf("Credit under failing store = %d, want 10", got)
	}
	if l.Read() != 10 {
		t.Errorf("in-memory balance rolled back to %d", l.Read())
	}
	evs := rec.Drain()
	if len(evs) != 1 || evs[0].Type != events.TypeBalanceChanged {
		t.Errorf("events = %+v, want balanceChanged despite write failure", evs)
	}
}

func TestRestoreGuest(t *testing.T) {
	kv := store.NewMemStore()
	if err := kv.Set(constants.StoreKeyGuestGems, "40"); err != nil {
		t.Fatal(err)
	}
	sess := &models.Session{}
	l := New(sess, accounts.Load(kv), kv, events.NewRecorder())

	l.RestoreGuest()
	if l.Read() != 40 {
		t.Errorf("restored guest balance = %d, want 40", l.Read())
	}

	// Corrupt value is ignored.
	if err := kv.Set(constants.StoreKeyGuestGems, "forty"); err != nil {
		t.Fatal(err)
	}
	sess2 := &models.Session{}
	l2 := New(sess2, accounts.Load(kv), kv, events.NewRecorder())
	l2.RestoreGuest()
	if l2.Read() != 0 {
		t.Errorf("corrupt guest balance restored as %d, want 0", l2.Read())
	}
}
