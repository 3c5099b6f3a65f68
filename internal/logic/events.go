package logic

import (
	"github.com/blues/mfs/internal/model"
)

// 事件负载，序列化后存入 event.data

type projectCreatedPayload struct {
	Creator    string             `json:"creator"`
	Name       string             `json:"name"`
	Category   string             `json:"category"`
	Target     model.Amount       `json:"target"`
	Bond       model.Amount       `json:"bond"`
	Milestones []string           `json:"milestones"`
	Percents   []uint64           `json:"release_percents"`
	State      model.ProjectState `json:"state"`
}

type fundedPayload struct {
	Investor  string       `json:"investor"`
	Requested model.Amount `json:"requested"`
	Accepted  model.Amount `json:"accepted"`
	Refunded  model.Amount `json:"refunded"`
	Invested  model.Amount `json:"invested"`
	Raised    model.Amount `json:"raised"`
}

type cancelledPayload struct {
	Raised           model.Amount `json:"raised"`
	Bond             model.Amount `json:"bond"`
	OwnerBond        model.Amount `json:"owner_bond"`
	InvestorBondPool model.Amount `json:"investor_bond_pool"`
}

type milestoneSubmittedPayload struct {
	Round       int          `json:"round"`
	EvidenceRef string       `json:"evidence_ref"`
	Snapshot    model.Amount `json:"snapshot_total_weight"`
}

type voteCastPayload struct {
	Round  int              `json:"round"`
	Voter  string           `json:"voter"`
	Choice model.VoteChoice `json:"choice"`
	Weight model.Amount     `json:"weight"`
	Yes    model.Amount     `json:"yes_weight"`
	No     model.Amount     `json:"no_weight"`
}

type roundResolvedPayload struct {
	Round    int                `json:"round"`
	Outcome  model.RoundOutcome `json:"outcome"`
	Snapshot model.Amount       `json:"snapshot_total_weight"`
	Yes      model.Amount       `json:"yes_weight"`
	No       model.Amount       `json:"no_weight"`
	Forced   bool               `json:"forced"`
}

type claimedPayload struct {
	Claimant string       `json:"claimant"`
	Amount   model.Amount `json:"amount"`
	Rounds   []int        `json:"rounds,omitempty"`
	Bond     bool         `json:"bond,omitempty"`
}
