package lifecycle

import (
	"errors"
	"testing"

	"github.com/blues/mfs/internal/apperr"
	"github.com/blues/mfs/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLegalTransitions(t *testing.T) {
	tests := []struct {
		from    model.ProjectState
		trigger Trigger
		to      model.ProjectState
	}{
		{model.StateFunding, TriggerFundingComplete, model.StateBuildingStage1},
		{model.StateFunding, TriggerCancel, model.StateCancelled},
		{model.StateBuildingStage1, TriggerSubmitMilestone, model.StateVotingRound1},
		{model.StateBuildingStage2, TriggerSubmitMilestone, model.StateVotingRound2},
		{model.StateBuildingStage3, TriggerSubmitMilestone, model.StateVotingRound3},
		{model.StateVotingRound1, TriggerRoundPassed, model.StateBuildingStage2},
		{model.StateVotingRound2, TriggerRoundPassed, model.StateBuildingStage3},
		{model.StateVotingRound3, TriggerRoundPassed, model.StateCompleted},
		{model.StateVotingRound1, TriggerRoundFailed, model.StateFailureRound1},
		{model.StateVotingRound2, TriggerRoundFailed, model.StateFailureRound2},
		{model.StateVotingRound3, TriggerRoundFailed, model.StateFailureRound3},
	}
	for _, tt := range tests {
		t.Run(tt.from.String()+"/"+tt.trigger.String(), func(t *testing.T) {
			to, err := Next(tt.from, tt.trigger)
			require.NoError(t, err)
			assert.Equal(t, tt.to, to)
		})
	}
}

func TestTerminalStatesRejectEverything(t *testing.T) {
	triggers := []Trigger{TriggerFundingComplete, TriggerCancel, TriggerSubmitMilestone, TriggerRoundPassed, TriggerRoundFailed}
	for s := model.StateCancelled; s <= model.StateCompleted; s++ {
		if !s.IsTerminal() {
			continue
		}
		for _, tr := range triggers {
			_, err := Next(s, tr)
			assert.True(t, errors.Is(err, apperr.ErrInvalidStateTransition), "%s/%s", s, tr)
		}
	}
}

func TestIllegalTransitions(t *testing.T) {
	cases := []struct {
		from    model.ProjectState
		trigger Trigger
	}{
		{model.StateBuildingStage1, TriggerCancel},
		{model.StateBuildingStage1, TriggerRoundPassed},
		{model.StateVotingRound1, TriggerSubmitMilestone},
		{model.StateFunding, TriggerSubmitMilestone},
		{model.StateVotingRound2, TriggerFundingComplete},
	}
	for _, c := range cases {
		_, err := Next(c.from, c.trigger)
		assert.Equal(t, apperr.KindInvalidStateTransition, apperr.KindOf(err), "%s/%s", c.from, c.trigger)
	}
}

func TestApplyLeavesProjectOnError(t *testing.T) {
	p := &model.ProjectModel{State: model.StateVotingRound2}

	_, err := Apply(p, TriggerCancel)
	require.Error(t, err)
	assert.Equal(t, model.StateVotingRound2, p.State)

	tr, err := Apply(p, TriggerRoundPassed)
	require.NoError(t, err)
	assert.Equal(t, Transition{From: model.StateVotingRound2, To: model.StateBuildingStage3, Trigger: "RoundPassed"}, tr)
	assert.Equal(t, model.StateBuildingStage3, p.State)
}

func TestRequire(t *testing.T) {
	p := &model.ProjectModel{State: model.StateBuildingStage1}
	assert.NoError(t, Require(p, "submit", model.StateBuildingStage1, model.StateBuildingStage2))
	err := Require(p, "fund", model.StateFunding)
	assert.True(t, errors.Is(err, apperr.ErrInvalidStateTransition))
}
