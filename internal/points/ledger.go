// Package points implements the in-memory points ledger and its leaderboard
// view. Scores only ever grow: the sharing coordinator is the sole caller of
// Add, and it only does so for verified share actions.
//
// Ranking is deterministic. Map iteration order is not a usable tie-break, so
// the ledger records an insertion sequence per user (assigned on first award)
// and breaks equal totals in favor of the user who reached the board first.
package points

import (
	"sort"
	"sync"

	"github.com/pepemp3/shillbot/internal/domain"
)

// account is one user's ledger row.
type account struct {
	name  string
	total int
	seq   uint64 // first-award order, ascending
}

// Ledger accumulates per-user scores for the lifetime of the process.
// It is safe for concurrent use.
type Ledger struct {
	mu      sync.Mutex
	byUser  map[int64]*account
	nextSeq uint64
}

// NewLedger constructs an empty Ledger.
func NewLedger() *Ledger {
	return &Ledger{byUser: make(map[int64]*account)}
}

// Add credits delta points to userID and returns the new total. The display
// name is captured on first award and refreshed on later ones so renames
// eventually show up on the leaderboard. Non-positive deltas are ignored
// (the total is returned unchanged); the ledger is monotonic by contract.
func (l *Ledger) Add(userID int64, name string, delta int) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc, ok := l.byUser[userID]
	if !ok {
		acc = &account{seq: l.nextSeq}
		l.nextSeq++
		l.byUser[userID] = acc
	}
	if name != "" {
		acc.name = name
	}
	if delta > 0 {
		acc.total += delta
	}
	return acc.total
}

// Total returns the current score for userID (zero when unknown).
func (l *Ledger) Total(userID int64) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if acc, ok := l.byUser[userID]; ok {
		return acc.total
	}
	return 0
}

// Top returns up to n leaderboard entries sorted by total descending.
// Equal totals rank by first-award order: whoever reached the ledger first
// appears first.
func (l *Ledger) Top(n int) []domain.ScoreEntry {
	if n <= 0 {
		return nil
	}

	l.mu.Lock()
	type row struct {
		entry domain.ScoreEntry
		seq   uint64
	}
	rows := make([]row, 0, len(l.byUser))
	for id, acc := range l.byUser {
		rows = append(rows, row{
			entry: domain.ScoreEntry{UserID: id, Name: acc.name, Total: acc.total},
			seq:   acc.seq,
		})
	}
	l.mu.Unlock()

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].entry.Total != rows[j].entry.Total {
			return rows[i].entry.Total > rows[j].entry.Total
		}
		return rows[i].seq < rows[j].seq
	})

	if len(rows) > n {
		rows = rows[:n]
	}
	out := make([]domain.ScoreEntry, len(rows))
	for i, r := range rows {
		out[i] = r.entry
	}
	return out
}

// Size reports how many users hold a ledger row. Used by the operator
// status view only.
func (l *Ledger) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.byUser)
}
