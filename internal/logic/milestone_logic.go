package logic

import (
	"context"
	"errors"
	"strings"

	"github.com/blues/mfs/internal/apperr"
	"github.com/blues/mfs/internal/lifecycle"
	"github.com/blues/mfs/internal/model"
)

// SubmitMilestone 创建者提交当前轮的里程碑证明并开启投票
//
// 投票轮的快照权重取当时的募资总额，之后不再变化。
func (e *Engine) SubmitMilestone(ctx context.Context, projectId int64, caller, evidenceRef string) (*Receipt, error) {
	caller, err := normalizeCaller(caller)
	if err != nil {
		return nil, err
	}
	evidenceRef = strings.TrimSpace(evidenceRef)
	if evidenceRef == "" {
		return nil, apperr.InvalidArgument("evidence reference is required")
	}

	var project *model.ProjectModel
	events, err := e.run(ctx, "SubmitMilestone", []int64{projectId}, func(rec *recorder) error {
		p, err := rec.tx.GetProject(projectId)
		if err != nil {
			return err
		}
		project = p

		if project.Creator != caller {
			return apperr.Unauthorized("only the creator can submit milestones of project %d", projectId)
		}
		if !project.State.IsBuilding() {
			return apperr.InvalidState("submit milestone not allowed in state %s", project.State)
		}
		round := project.State.Round()

		milestone, err := rec.tx.GetMilestone(projectId, round)
		if err != nil {
			return err
		}
		if milestone.Submitted() {
			return apperr.New(apperr.KindAlreadySubmitted, "milestone %d of project %d already submitted", round+1, projectId)
		}
		if _, err := rec.tx.GetRound(projectId, round); err == nil {
			return apperr.New(apperr.KindAlreadySubmitted, "voting round %d of project %d already opened", round+1, projectId)
		} else if !errors.Is(err, apperr.ErrNotFound) {
			return err
		}

		now := e.now()
		milestone.EvidenceRef = evidenceRef
		milestone.SubmittedAt = &now
		if err := rec.tx.SaveMilestone(milestone); err != nil {
			return err
		}

		tr, err := lifecycle.Apply(project, lifecycle.TriggerSubmitMilestone)
		if err != nil {
			return err
		}
		if err := rec.tx.SaveProject(project); err != nil {
			return err
		}

		// 募资已关闭，快照即募资总额
		votingRound := &model.VotingRoundModel{
			ProjectId:           projectId,
			Idx:                 round,
			SnapshotTotalWeight: project.RaisedAmount,
			YesWeight:           model.Zero,
			NoWeight:            model.Zero,
			Outcome:             model.OutcomePending,
			OpenedAt:            now,
		}
		if err := rec.tx.CreateRound(votingRound); err != nil {
			return err
		}

		if err := rec.emit(projectId, model.EventMilestoneSubmitted, caller, milestoneSubmittedPayload{
			Round:       round,
			EvidenceRef: evidenceRef,
			Snapshot:    votingRound.SnapshotTotalWeight,
		}); err != nil {
			return err
		}
		return rec.emit(projectId, model.EventStateChanged, caller, tr)
	})
	if err != nil {
		return nil, err
	}

	receipt := newReceipt(projectId, project.State, events)
	return &receipt, nil
}
