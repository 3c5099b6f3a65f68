// Package lifecycle 项目状态机：唯一定义合法的状态迁移
package lifecycle

import (
	"fmt"

	"github.com/blues/mfs/internal/apperr"
	"github.com/blues/mfs/internal/model"
)

// Trigger 触发状态迁移的事件
type Trigger uint8

const (
	TriggerFundingComplete Trigger = iota + 1 // 募资达到目标
	TriggerCancel                             // 创建者取消
	TriggerSubmitMilestone                    // 提交里程碑证明
	TriggerRoundPassed                        // 投票通过
	TriggerRoundFailed                        // 投票失败
)

func (t Trigger) String() string {
	switch t {
	case TriggerFundingComplete:
		return "FundingComplete"
	case TriggerCancel:
		return "Cancel"
	case TriggerSubmitMilestone:
		return "SubmitMilestone"
	case TriggerRoundPassed:
		return "RoundPassed"
	case TriggerRoundFailed:
		return "RoundFailed"
	}
	return fmt.Sprintf("Trigger(%d)", uint8(t))
}

// Transition 一次状态迁移
type Transition struct {
	From    model.ProjectState `json:"from"`
	To      model.ProjectState `json:"to"`
	Trigger string             `json:"trigger"`
}

// Next 计算 from 在 t 触发下的目标状态，不合法时返回 InvalidStateTransition
func Next(from model.ProjectState, t Trigger) (model.ProjectState, error) {
	switch t {
	case TriggerFundingComplete:
		if from == model.StateFunding {
			return model.StateBuildingStage1, nil
		}
	case TriggerCancel:
		if from == model.StateFunding {
			return model.StateCancelled, nil
		}
	case TriggerSubmitMilestone:
		if from.IsBuilding() {
			return model.VotingState(from.Round()), nil
		}
	case TriggerRoundPassed:
		if from.IsVoting() {
			round := from.Round()
			if round == model.RoundCount-1 {
				return model.StateCompleted, nil
			}
			return model.BuildingState(round + 1), nil
		}
	case TriggerRoundFailed:
		if from.IsVoting() {
			return model.FailureState(from.Round()), nil
		}
	}
	return from, apperr.InvalidState("%s not allowed in state %s", t, from)
}

// Apply 迁移 project 的状态并返回迁移记录，失败时不修改 project
func Apply(project *model.ProjectModel, t Trigger) (Transition, error) {
	to, err := Next(project.State, t)
	if err != nil {
		return Transition{}, err
	}
	tr := Transition{From: project.State, To: to, Trigger: t.String()}
	project.State = to
	return tr, nil
}

// Require 校验项目处于给定状态之一
func Require(project *model.ProjectModel, action string, allowed ...model.ProjectState) error {
	for _, s := range allowed {
		if project.State == s {
			return nil
		}
	}
	return apperr.InvalidState("%s not allowed in state %s", action, project.State)
}
