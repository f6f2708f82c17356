package mempool

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// Ledger records the transaction ids already projected onto pool state. It is owned by a single loop and is not
// safe for concurrent use.
type Ledger struct {
	seen mapset.Set[string]
}

func NewLedger() *Ledger {
	return &Ledger{seen: mapset.NewThreadUnsafeSet[string]()}
}

// Mark records id and reports whether it was not recorded before.
func (l *Ledger) Mark(id string) bool {
	return l.seen.Add(id)
}

func (l *Ledger) Seen(id string) bool {
	return l.seen.Contains(id)
}

func (l *Ledger) Len() int {
	return l.seen.Cardinality()
}

// Flush forgets every recorded id. Call it only once pool state has been replaced by a confirmed snapshot.
func (l *Ledger) Flush() {
	l.seen.Clear()
}
