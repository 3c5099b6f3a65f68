package logic

import (
	"context"
	"time"

	"github.com/blues/mfs/internal/apperr"
	"github.com/blues/mfs/internal/model"
	"github.com/blues/mfs/internal/tally"
)

const (
	defaultEventLimit = 100
	maxEventLimit     = 500
)

// ProjectCore 项目核心信息
type ProjectCore struct {
	Id        int64              `json:"id"`
	Creator   string             `json:"creator"`
	Name      string             `json:"name"`
	Category  string             `json:"category"`
	Target    model.Amount       `json:"target_amount"`
	Raised    model.Amount       `json:"raised_amount"`
	Bond      model.Amount       `json:"bond_amount"`
	State     model.ProjectState `json:"state"`
	Ordinal   int                `json:"state_ordinal"`
	Progress  float64            `json:"progress"`
	Tone      string             `json:"tone"`
	CreatedAt time.Time          `json:"created_at"`
}

func toProjectCore(p *model.ProjectModel) ProjectCore {
	return ProjectCore{
		Id:        p.Id,
		Creator:   p.Creator,
		Name:      p.Name,
		Category:  p.Category.String(),
		Target:    p.TargetAmount,
		Raised:    p.RaisedAmount,
		Bond:      p.BondAmount,
		State:     p.State,
		Ordinal:   p.State.Ordinal(),
		Progress:  p.State.Progress(),
		Tone:      p.State.Tone(),
		CreatedAt: p.CreatedAt,
	}
}

func toProjectCores(projects []model.ProjectModel) []ProjectCore {
	cores := make([]ProjectCore, len(projects))
	for i := range projects {
		cores[i] = toProjectCore(&projects[i])
	}
	return cores
}

// MilestoneView 里程碑
type MilestoneView struct {
	Idx            int        `json:"idx"`
	Description    string     `json:"description"`
	EvidenceRef    string     `json:"evidence_ref"`
	ReleasePercent uint64     `json:"release_percent"`
	SubmittedAt    *time.Time `json:"submitted_at"`
}

// ProjectMeta 项目描述信息
type ProjectMeta struct {
	Id          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Creator     string          `json:"creator"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Milestones  []MilestoneView `json:"milestones"`
}

// RoundView 投票轮
type RoundView struct {
	Idx       int                `json:"idx"`
	Snapshot  model.Amount       `json:"snapshot_total_weight"`
	Yes       model.Amount       `json:"yes_weight"`
	No        model.Amount       `json:"no_weight"`
	Remaining model.Amount       `json:"remaining_weight"`
	Closed    bool               `json:"closed"`
	Outcome   model.RoundOutcome `json:"outcome"`
	OpenedAt  time.Time          `json:"opened_at"`
	ClosedAt  *time.Time         `json:"closed_at"`
	Deadline  *time.Time         `json:"deadline,omitempty"`
}

// ProjectVoting 项目投票情况
type ProjectVoting struct {
	Id            int64              `json:"id"`
	State         model.ProjectState `json:"state"`
	CurrentRound  int                `json:"current_round"` // 投票中时为当前轮下标，否则 -1
	QuorumPercent uint64             `json:"quorum_percent"`
	VetoPercent   uint64             `json:"veto_percent"`
	Rounds        []RoundView        `json:"rounds"`
}

// InvestmentView 投资记录
type InvestmentView struct {
	Investor string       `json:"investor"`
	Amount   model.Amount `json:"amount"`
	Claimed  bool         `json:"claimed"`
}

// InvestedProject 投资人参与的项目
type InvestedProject struct {
	ProjectCore
	Invested  model.Amount `json:"invested"`
	Claimed   bool         `json:"claimed"`
	Claimable model.Amount `json:"claimable"`
}

// Claimable 地址在三种角色下的待领金额
type Claimable struct {
	Address  string       `json:"address"`
	Creator  model.Amount `json:"creator"`
	Investor model.Amount `json:"investor"`
	Owner    model.Amount `json:"owner"`
}

// GetProjectCore 获取项目核心信息
func (e *Engine) GetProjectCore(ctx context.Context, projectId int64) (*ProjectCore, error) {
	project, err := e.store.Read(ctx).GetProject(projectId)
	if err != nil {
		return nil, err
	}
	core := toProjectCore(project)
	return &core, nil
}

// GetProjectMeta 获取项目描述及里程碑
func (e *Engine) GetProjectMeta(ctx context.Context, projectId int64) (*ProjectMeta, error) {
	tx := e.store.Read(ctx)
	project, err := tx.GetProject(projectId)
	if err != nil {
		return nil, err
	}
	milestones, err := tx.ListMilestones(projectId)
	if err != nil {
		return nil, err
	}

	meta := &ProjectMeta{
		Id:          project.Id,
		Name:        project.Name,
		Description: project.Description,
		Category:    project.Category.String(),
		Creator:     project.Creator,
		CreatedAt:   project.CreatedAt,
		UpdatedAt:   project.UpdatedAt,
		Milestones:  make([]MilestoneView, len(milestones)),
	}
	for i, m := range milestones {
		meta.Milestones[i] = MilestoneView{
			Idx:            m.Idx,
			Description:    m.Description,
			EvidenceRef:    m.EvidenceRef,
			ReleasePercent: m.ReleasePercent,
			SubmittedAt:    m.SubmittedAt,
		}
	}
	return meta, nil
}

// GetProjectVoting 获取项目各投票轮的计票情况
func (e *Engine) GetProjectVoting(ctx context.Context, projectId int64) (*ProjectVoting, error) {
	tx := e.store.Read(ctx)
	project, err := tx.GetProject(projectId)
	if err != nil {
		return nil, err
	}
	rounds, err := tx.ListRounds(projectId)
	if err != nil {
		return nil, err
	}

	voting := &ProjectVoting{
		Id:            project.Id,
		State:         project.State,
		CurrentRound:  -1,
		QuorumPercent: e.gov.QuorumPercent,
		VetoPercent:   e.gov.VetoPercent,
		Rounds:        make([]RoundView, len(rounds)),
	}
	if project.State.IsVoting() {
		voting.CurrentRound = project.State.Round()
	}
	for i, r := range rounds {
		view := RoundView{
			Idx:       r.Idx,
			Snapshot:  r.SnapshotTotalWeight,
			Yes:       r.YesWeight,
			No:        r.NoWeight,
			Remaining: tally.FromModel(&r).Remaining(),
			Closed:    r.Closed,
			Outcome:   r.Outcome,
			OpenedAt:  r.OpenedAt,
			ClosedAt:  r.ClosedAt,
		}
		if e.gov.VotingPeriod > 0 {
			deadline := r.OpenedAt.Add(e.gov.VotingPeriod)
			view.Deadline = &deadline
		}
		voting.Rounds[i] = view
	}
	return voting, nil
}

// GetAllInvestments 获取项目的全部投资记录
func (e *Engine) GetAllInvestments(ctx context.Context, projectId int64) ([]InvestmentView, error) {
	tx := e.store.Read(ctx)
	if _, err := tx.GetProject(projectId); err != nil {
		return nil, err
	}
	investments, err := tx.ListInvestments(projectId)
	if err != nil {
		return nil, err
	}

	views := make([]InvestmentView, len(investments))
	for i, inv := range investments {
		views[i] = InvestmentView{Investor: inv.Investor, Amount: inv.Amount, Claimed: inv.Claimed}
	}
	return views, nil
}

// GetMyInvestedProjects 获取地址参与投资的项目
func (e *Engine) GetMyInvestedProjects(ctx context.Context, address string) ([]InvestedProject, error) {
	address, err := normalizeCaller(address)
	if err != nil {
		return nil, err
	}
	tx := e.store.Read(ctx)
	investments, err := tx.ListInvestmentsByInvestor(address)
	if err != nil {
		return nil, err
	}

	result := make([]InvestedProject, 0, len(investments))
	for i := range investments {
		inv := &investments[i]
		project, err := tx.GetProject(inv.ProjectId)
		if err != nil {
			return nil, err
		}
		refund, err := e.investorRefundOf(tx, project, inv)
		if err != nil {
			return nil, err
		}
		result = append(result, InvestedProject{
			ProjectCore: toProjectCore(project),
			Invested:    inv.Amount,
			Claimed:     inv.Claimed,
			Claimable:   refund,
		})
	}
	return result, nil
}

// GetMilestoneDescriptions 获取三个里程碑描述
func (e *Engine) GetMilestoneDescriptions(ctx context.Context, projectId int64) ([]string, error) {
	tx := e.store.Read(ctx)
	if _, err := tx.GetProject(projectId); err != nil {
		return nil, err
	}
	milestones, err := tx.ListMilestones(projectId)
	if err != nil {
		return nil, err
	}
	descs := make([]string, len(milestones))
	for i, m := range milestones {
		descs[i] = m.Description
	}
	return descs, nil
}

// GetMyVotes 获取地址在项目各轮的投票，未投为 VoteNone
func (e *Engine) GetMyVotes(ctx context.Context, projectId int64, address string) ([]model.VoteChoice, error) {
	address, err := normalizeCaller(address)
	if err != nil {
		return nil, err
	}
	tx := e.store.Read(ctx)
	if _, err := tx.GetProject(projectId); err != nil {
		return nil, err
	}
	votes, err := tx.ListVotesByVoter(projectId, address)
	if err != nil {
		return nil, err
	}

	choices := make([]model.VoteChoice, model.RoundCount)
	for _, v := range votes {
		if v.RoundIdx >= 0 && v.RoundIdx < len(choices) {
			choices[v.RoundIdx] = v.Choice
		}
	}
	return choices, nil
}

// GetAllFundingProjects 获取募资中的项目
func (e *Engine) GetAllFundingProjects(ctx context.Context) ([]ProjectCore, error) {
	projects, err := e.store.Read(ctx).ListProjectsByState(model.StateFunding)
	if err != nil {
		return nil, err
	}
	return toProjectCores(projects), nil
}

// GetProjectsByCreator 获取创建者的项目
func (e *Engine) GetProjectsByCreator(ctx context.Context, creator string) ([]ProjectCore, error) {
	creator, err := normalizeCaller(creator)
	if err != nil {
		return nil, err
	}
	projects, err := e.store.Read(ctx).ListProjectsByCreator(creator)
	if err != nil {
		return nil, err
	}
	return toProjectCores(projects), nil
}

// GetProjectCount 项目总数
func (e *Engine) GetProjectCount(ctx context.Context) (int64, error) {
	return e.store.Read(ctx).ProjectCount()
}

// GetClaimable 汇总地址在三种角色下的待领金额
func (e *Engine) GetClaimable(ctx context.Context, address string) (*Claimable, error) {
	address, err := normalizeCaller(address)
	if err != nil {
		return nil, err
	}
	creator, err := e.GetClaimableCreator(ctx, address)
	if err != nil {
		return nil, err
	}
	investor, err := e.GetClaimableInvestor(ctx, address)
	if err != nil {
		return nil, err
	}
	owner, err := e.GetClaimableOwner(ctx, address)
	if err != nil {
		return nil, err
	}
	return &Claimable{Address: address, Creator: creator, Investor: investor, Owner: owner}, nil
}

// ListEvents 按游标拉取事件
//
// projectId 大于 0 时 after 为项目内序号 seq；为 0 时返回全部项目的事件，after 为全局序号 global_seq。
func (e *Engine) ListEvents(ctx context.Context, projectId, after int64, limit int) ([]model.EventModel, error) {
	if after < 0 {
		return nil, apperr.InvalidArgument("cursor must not be negative")
	}
	switch {
	case limit <= 0:
		limit = defaultEventLimit
	case limit > maxEventLimit:
		limit = maxEventLimit
	}

	tx := e.store.Read(ctx)
	if projectId > 0 {
		if _, err := tx.GetProject(projectId); err != nil {
			return nil, err
		}
	}
	events, err := tx.ListEvents(projectId, after, limit)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []model.EventModel{}
	}
	return events, nil
}
