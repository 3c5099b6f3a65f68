package logic

import (
	"testing"

	"github.com/blues/mfs/internal/apperr"
	"github.com/blues/mfs/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProject(t *testing.T) {
	env := newTestEnv(t)

	receipt, err := env.engine.CreateProject(ctx, CreateProjectRequest{
		Creator:     "0x1000000000000000000000000000000000000001",
		Name:        "  Solar kiosk ",
		Description: "Off-grid charging kiosks",
		Category:    model.CategoryHardware,
		Target:      model.NewAmount(1000),
		Milestones:  []string{"prototype", "pilot", "rollout"},
		Bond:        model.NewAmount(100),
	})
	require.NoError(t, err)
	assert.Equal(t, model.StateFunding, receipt.State)
	require.Len(t, receipt.Refs, 1)
	assert.Len(t, receipt.Refs[0], 66)

	core, err := env.engine.GetProjectCore(ctx, receipt.ProjectId)
	require.NoError(t, err)
	assert.Equal(t, "Solar kiosk", core.Name)
	assert.Equal(t, "Hardware", core.Category)
	assert.Equal(t, "1000", core.Target.String())
	assert.Equal(t, "100", core.Bond.String())
	assert.True(t, core.Raised.IsZero())
	assert.Equal(t, 1, core.Ordinal)
	assert.Equal(t, "active", core.Tone)

	descs, err := env.engine.GetMilestoneDescriptions(ctx, receipt.ProjectId)
	require.NoError(t, err)
	assert.Equal(t, []string{"prototype", "pilot", "rollout"}, descs)

	second := env.createProject(t, 500)
	assert.Greater(t, second, receipt.ProjectId)

	count, err := env.engine.GetProjectCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestCreateProjectValidation(t *testing.T) {
	env := newTestEnv(t)

	valid := func() CreateProjectRequest {
		return CreateProjectRequest{
			Creator:    creator,
			Name:       "Project",
			Category:   model.CategoryResearch,
			Target:     model.NewAmount(1005),
			Milestones: []string{"a", "b", "c"},
			Bond:       model.NewAmount(100),
		}
	}

	tests := []struct {
		name   string
		mutate func(r *CreateProjectRequest)
		kind   apperr.Kind
	}{
		{"bond below target/10", func(r *CreateProjectRequest) { r.Bond = model.NewAmount(99) }, apperr.KindInsufficientFunds},
		{"bond above target/10", func(r *CreateProjectRequest) { r.Bond = model.NewAmount(101) }, apperr.KindInvalidArgument},
		{"zero target", func(r *CreateProjectRequest) { r.Target = model.Zero; r.Bond = model.Zero }, apperr.KindInvalidArgument},
		{"target above cap", func(r *CreateProjectRequest) {
			r.Target = model.MaxAmount
			r.Bond = model.MaxAmount.DivUint64(10)
		}, apperr.KindInvalidArgument},
		{"two milestones", func(r *CreateProjectRequest) { r.Milestones = []string{"a", "b"} }, apperr.KindInvalidArgument},
		{"blank milestone", func(r *CreateProjectRequest) { r.Milestones[1] = " " }, apperr.KindInvalidArgument},
		{"blank name", func(r *CreateProjectRequest) { r.Name = "" }, apperr.KindInvalidArgument},
		{"unknown category", func(r *CreateProjectRequest) { r.Category = model.Category(99) }, apperr.KindInvalidArgument},
		{"bad creator", func(r *CreateProjectRequest) { r.Creator = "bob" }, apperr.KindInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(&req)
			_, err := env.engine.CreateProject(ctx, req)
			requireKind(t, err, tt.kind)
		})
	}

	count, err := env.engine.GetProjectCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	// 1005/10 截断为 100
	_, err = env.engine.CreateProject(ctx, valid())
	require.NoError(t, err)
}

func TestCancelUnfundedProject(t *testing.T) {
	env := newTestEnv(t)
	id := env.createProject(t, 1000)

	receipt, err := env.engine.CancelProject(ctx, id, creator)
	require.NoError(t, err)
	assert.Equal(t, model.StateCancelled, receipt.State)
	assert.Len(t, receipt.Refs, 2)

	assert.Equal(t, "100", env.claimable(t, owner).Owner.String())
	assert.True(t, env.claimable(t, alice).Investor.IsZero())
	assert.True(t, env.claimable(t, creator).Creator.IsZero())

	core, err := env.engine.GetProjectCore(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", core.Tone)
	assert.InDelta(t, 100, core.Progress, 1e-9)
}

func TestCancelFundedProjectSplitsBond(t *testing.T) {
	env := newTestEnv(t)
	id := env.createProject(t, 1000)
	env.fund(t, id, alice, 200)
	env.fund(t, id, bob, 300)

	_, err := env.engine.CancelProject(ctx, id, creator)
	require.NoError(t, err)

	assert.Equal(t, "50", env.claimable(t, owner).Owner.String())
	aliceOwed := env.claimable(t, alice).Investor
	bobOwed := env.claimable(t, bob).Investor
	assert.Equal(t, "220", aliceOwed.String())
	assert.Equal(t, "330", bobOwed.String())
	assert.Equal(t, "550", aliceOwed.Add(bobOwed).String())
}

func TestCancelGuards(t *testing.T) {
	env := newTestEnv(t)
	id := env.createProject(t, 1000)

	_, err := env.engine.CancelProject(ctx, id, alice)
	requireKind(t, err, apperr.KindUnauthorized)

	_, err = env.engine.CancelProject(ctx, 999, creator)
	requireKind(t, err, apperr.KindNotFound)

	env.fund(t, id, alice, 1000)
	_, err = env.engine.CancelProject(ctx, id, creator)
	requireKind(t, err, apperr.KindInvalidStateTransition)
	env.requireState(t, id, model.StateBuildingStage1)
}
