package groups

import (
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-draw/balance"
	"github.com/Dosada05/tournament-draw/models"
)

var (
	ErrEmptyLog      = errors.New("snapshot log is empty")
	ErrSnapshotIndex = errors.New("snapshot index out of range")
)

type Action string

const (
	ActionAdd    Action = "add"
	ActionRemove Action = "remove"
	ActionSwap   Action = "swap"
	ActionRevert Action = "revert"
)

// Method records which stage of the draw produced a mutation.
type Method string

const (
	MethodDeterministic Method = "deterministic"
	MethodBacktrack     Method = "backtrack"
	MethodFallback      Method = "fallback"
	MethodRandom        Method = "random"
	MethodSearch        Method = "search"
)

// Snapshot is one atomic mutation of the working partition together with the
// violation state right after it.
//
// Slots is aligned with Groups: the added or removed entrant for add/remove,
// the occupants before the exchange for swap/revert. Swaps always exchange the
// same Position of two groups.
type Snapshot struct {
	Seq        int                 `json:"seq"`
	Action     Action              `json:"action"`
	Method     Method              `json:"method"`
	Groups     []int               `json:"groups"`
	Position   int                 `json:"position"`
	Slots      []models.Slot       `json:"slots"`
	BatchEnd   bool                `json:"batch_end"`
	Violations []balance.Violation `json:"violations,omitempty"`
	Score      int                 `json:"score"`
	Initial    models.Partition    `json:"initial,omitempty"`
}

// Log is the append-only record of a draw. Its first entry carries a copy of
// the initial (empty, padded) partition.
type Log struct {
	initial models.Partition
	entries []Snapshot
}

func NewLog(initial models.Partition) *Log {
	return &Log{initial: initial.Clone()}
}

// Append stores s at the end of the log and returns its sequence number.
func (l *Log) Append(s Snapshot) int {
	s.Seq = len(l.entries)
	if s.Seq == 0 {
		s.Initial = l.initial.Clone()
	} else {
		s.Initial = nil
	}
	l.entries = append(l.entries, s)
	return s.Seq
}

func (l *Log) Len() int {
	if l == nil {
		return 0
	}
	return len(l.entries)
}

func (l *Log) At(i int) (Snapshot, error) {
	if l.Len() == 0 {
		return Snapshot{}, ErrEmptyLog
	}
	if i < 0 || i >= len(l.entries) {
		return Snapshot{}, fmt.Errorf("%w: %d not in [0, %d)", ErrSnapshotIndex, i, len(l.entries))
	}
	return l.entries[i], nil
}

func (l *Log) Entries() []Snapshot {
	if l == nil {
		return nil
	}
	out := make([]Snapshot, len(l.entries))
	copy(out, l.entries)
	return out
}

func apply(p models.Partition, s Snapshot) {
	switch s.Action {
	case ActionAdd:
		p[s.Groups[0]-1][s.Position] = s.Slots[0]
	case ActionRemove:
		p[s.Groups[0]-1][s.Position] = models.Empty
	case ActionSwap, ActionRevert:
		a, b := s.Groups[0]-1, s.Groups[1]-1
		p[a][s.Position], p[b][s.Position] = p[b][s.Position], p[a][s.Position]
	}
}

// ReplaySlots rebuilds the padded partition as it was right after entry index.
func ReplaySlots(l *Log, index int) (models.Partition, error) {
	if l.Len() == 0 {
		return nil, ErrEmptyLog
	}
	if index < 0 || index >= l.Len() {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrSnapshotIndex, index, l.Len())
	}
	p := l.entries[0].Initial.Clone()
	for _, s := range l.entries[:index+1] {
		apply(p, s)
	}
	return p, nil
}

// ReplayTo rebuilds the partition after entry index with empty slots removed.
// Replaying the last entry yields the partition returned by Draw.
func ReplayTo(l *Log, index int) (models.Partition, error) {
	p, err := ReplaySlots(l, index)
	if err != nil {
		return nil, err
	}
	return p.Compact(), nil
}

// NextBatchBoundary returns the first index after from whose entry ends a batch.
func NextBatchBoundary(l *Log, from int) (int, bool) {
	for i := max(from+1, 0); i < l.Len(); i++ {
		if l.entries[i].BatchEnd {
			return i, true
		}
	}
	return 0, false
}

// PreviousBatchBoundary returns the last index before from whose entry ends a batch.
func PreviousBatchBoundary(l *Log, from int) (int, bool) {
	for i := min(from-1, l.Len()-1); i >= 0; i-- {
		if l.entries[i].BatchEnd {
			return i, true
		}
	}
	return 0, false
}
