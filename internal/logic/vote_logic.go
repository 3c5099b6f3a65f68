package logic

import (
	"context"
	"errors"

	"github.com/blues/mfs/internal/apperr"
	"github.com/blues/mfs/internal/lifecycle"
	"github.com/blues/mfs/internal/model"
	"github.com/blues/mfs/internal/tally"
)

// systemActor 定时任务等非用户触发的操作者
const systemActor = "system"

// VoteReceipt 投票结果
type VoteReceipt struct {
	Receipt
	Round   int                `json:"round"`
	Weight  model.Amount       `json:"weight"`
	Outcome model.RoundOutcome `json:"outcome"` // Pending 表示本轮仍未定局
}

// Vote 投资人对当前轮里程碑投票，权重为其投资额
//
// 每票之后重新计票，结果一旦锁定即关闭本轮并驱动状态迁移。
func (e *Engine) Vote(ctx context.Context, projectId int64, voter string, choice model.VoteChoice) (*VoteReceipt, error) {
	voter, err := normalizeCaller(voter)
	if err != nil {
		return nil, err
	}
	if !choice.Valid() {
		return nil, apperr.InvalidArgument("invalid vote choice %d", uint8(choice))
	}

	result := &VoteReceipt{}
	var project *model.ProjectModel
	events, err := e.run(ctx, "Vote", []int64{projectId}, func(rec *recorder) error {
		p, err := rec.tx.GetProject(projectId)
		if err != nil {
			return err
		}
		project = p

		if !project.State.IsVoting() {
			return apperr.InvalidState("vote not allowed in state %s", project.State)
		}
		idx := project.State.Round()
		round, err := rec.tx.GetRound(projectId, idx)
		if err != nil {
			return err
		}
		if round.Closed {
			return apperr.InvalidState("voting round %d of project %d is closed", idx+1, projectId)
		}

		// 只有快照内的投资人可以投票
		investment, err := rec.tx.GetInvestment(projectId, voter)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return apperr.Unauthorized("%s is not an investor of project %d", voter, projectId)
			}
			return err
		}
		if investment.Amount.IsZero() {
			return apperr.Unauthorized("%s has no voting weight in project %d", voter, projectId)
		}

		if _, err := rec.tx.GetVote(projectId, idx, voter); err == nil {
			return apperr.New(apperr.KindAlreadyVoted, "%s already voted in round %d of project %d", voter, idx+1, projectId)
		} else if !errors.Is(err, apperr.ErrNotFound) {
			return err
		}

		weight := investment.Amount
		if err := rec.tx.CreateVote(&model.VoteModel{
			ProjectId: projectId,
			RoundIdx:  idx,
			Voter:     voter,
			Choice:    choice,
			Weight:    weight,
		}); err != nil {
			return err
		}

		if choice == model.VoteYes {
			round.YesWeight = round.YesWeight.Add(weight)
		} else {
			round.NoWeight = round.NoWeight.Add(weight)
		}
		if err := rec.tx.SaveRound(round); err != nil {
			return err
		}

		if err := rec.emit(projectId, model.EventVoteCast, voter, voteCastPayload{
			Round:  idx,
			Voter:  voter,
			Choice: choice,
			Weight: weight,
			Yes:    round.YesWeight,
			No:     round.NoWeight,
		}); err != nil {
			return err
		}

		result.Round = idx
		result.Weight = weight
		result.Outcome = e.tally.Evaluate(tally.FromModel(round))
		if result.Outcome == model.OutcomePending {
			return nil
		}
		return e.resolve(rec, project, round, result.Outcome, false, voter)
	})
	if err != nil {
		return nil, err
	}

	result.Receipt = newReceipt(projectId, project.State, events)
	return result, nil
}

// CloseRoundReceipt 强制结束投票轮的结果
type CloseRoundReceipt struct {
	Receipt
	Round   int                `json:"round"`
	Outcome model.RoundOutcome `json:"outcome"`
}

// CloseRound 投票期结束后强制结束当前投票轮，未投权重作废
func (e *Engine) CloseRound(ctx context.Context, projectId int64) (*CloseRoundReceipt, error) {
	if e.gov.VotingPeriod <= 0 {
		return nil, apperr.InvalidState("voting period is not configured, rounds close only by tally")
	}

	result := &CloseRoundReceipt{}
	var project *model.ProjectModel
	events, err := e.run(ctx, "CloseRound", []int64{projectId}, func(rec *recorder) error {
		p, err := rec.tx.GetProject(projectId)
		if err != nil {
			return err
		}
		project = p

		if !project.State.IsVoting() {
			return apperr.InvalidState("close round not allowed in state %s", project.State)
		}
		idx := project.State.Round()
		round, err := rec.tx.GetRound(projectId, idx)
		if err != nil {
			return err
		}
		if round.Closed {
			return apperr.InvalidState("voting round %d of project %d is closed", idx+1, projectId)
		}
		deadline := round.OpenedAt.Add(e.gov.VotingPeriod)
		if e.now().Before(deadline) {
			return apperr.InvalidState("voting round %d of project %d open until %s", idx+1, projectId, deadline.Format("2006-01-02 15:04:05"))
		}

		result.Round = idx
		result.Outcome = e.tally.Close(tally.FromModel(round))
		return e.resolve(rec, project, round, result.Outcome, true, systemActor)
	})
	if err != nil {
		return nil, err
	}

	result.Receipt = newReceipt(projectId, project.State, events)
	return result, nil
}

// resolve 关闭投票轮并按结果迁移项目状态
func (e *Engine) resolve(rec *recorder, project *model.ProjectModel, round *model.VotingRoundModel, outcome model.RoundOutcome, forced bool, actor string) error {
	trigger := lifecycle.TriggerRoundFailed
	if outcome == model.OutcomePass {
		trigger = lifecycle.TriggerRoundPassed
	}
	tr, err := lifecycle.Apply(project, trigger)
	if err != nil {
		return err
	}
	if err := rec.tx.SaveProject(project); err != nil {
		return err
	}

	now := e.now()
	round.Closed = true
	round.Outcome = outcome
	round.ClosedAt = &now
	if err := rec.tx.SaveRound(round); err != nil {
		return err
	}

	if err := rec.emit(project.Id, model.EventRoundResolved, actor, roundResolvedPayload{
		Round:    round.Idx,
		Outcome:  outcome,
		Snapshot: round.SnapshotTotalWeight,
		Yes:      round.YesWeight,
		No:       round.NoWeight,
		Forced:   forced,
	}); err != nil {
		return err
	}
	return rec.emit(project.Id, model.EventStateChanged, actor, tr)
}

// ExpiredRounds 投票期已过但仍未关闭的投票轮所属项目
func (e *Engine) ExpiredRounds(ctx context.Context) ([]int64, error) {
	if e.gov.VotingPeriod <= 0 {
		return nil, nil
	}
	rounds, err := e.store.Read(ctx).ListExpiredOpenRounds(e.now().Add(-e.gov.VotingPeriod))
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(rounds))
	for _, r := range rounds {
		ids = append(ids, r.ProjectId)
	}
	return ids, nil
}
