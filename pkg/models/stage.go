package models

// Stage is the lifecycle stage of a lead.
type Stage string

const (
	StageNew       Stage = "new"
	StageQualified Stage = "qualified"
	StageOutreach  Stage = "outreach"
	StageEngaged   Stage = "engaged"
	StageWon       Stage = "won"
	StageLost      Stage = "lost"
	StageSpam      Stage = "spam"
)

// stageRank orders stages for merge promotion: spam < new < qualified <
// outreach < engaged < won/lost. Won and lost are both terminal and count as
// the most advanced for promotion purposes.
var stageRank = map[Stage]int{
	StageSpam:      0,
	StageNew:       1,
	StageQualified: 2,
	StageOutreach:  3,
	StageEngaged:   4,
	StageWon:       5,
	StageLost:      5,
}

// IsValid reports whether s is a known stage.
func (s Stage) IsValid() bool {
	_, ok := stageRank[s]
	return ok
}

// IsTerminal reports whether the stage admits no further transitions.
// Reopening terminal stages is out of scope, so spam is terminal too.
func (s Stage) IsTerminal() bool {
	return s == StageWon || s == StageLost || s == StageSpam
}

// Rank returns the promotion rank of the stage.
func (s Stage) Rank() int {
	return stageRank[s]
}

// CanTransitionTo reports whether the stage machine permits a transition from
// s to target: forward along the total order only, spam reachable from any
// non-terminal stage, terminal stages never reopened.
func (s Stage) CanTransitionTo(target Stage) bool {
	if !s.IsValid() || !target.IsValid() || s == target {
		return false
	}
	if s.IsTerminal() {
		return false
	}
	if target == StageSpam {
		return true
	}
	return target.Rank() > s.Rank()
}

// Promote returns the more advanced of two stages, used when merging leads.
func Promote(a, b Stage) Stage {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}
