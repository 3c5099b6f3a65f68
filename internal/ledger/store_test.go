package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/blues/mfs/internal/apperr"
	"github.com/blues/mfs/internal/config"
	"github.com/blues/mfs/internal/database"
	"github.com/blues/mfs/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const creator = "0x1000000000000000000000000000000000000001"

func newTestStore(t *testing.T) *Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Init(config.DatabaseConfig{
		Driver: "sqlite",
		Path:   fmt.Sprintf("file:ledger_%s?mode=memory&cache=shared", name),
	}, "info")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return NewStore(db)
}

func seedProject(t *testing.T, s *Store, state model.ProjectState) *model.ProjectModel {
	t.Helper()
	project := &model.ProjectModel{
		Creator:      creator,
		Name:         "Solar kiosk",
		Category:     model.CategoryHardware,
		TargetAmount: model.NewAmount(1000),
		RaisedAmount: model.Zero,
		BondAmount:   model.NewAmount(100),
		State:        state,
	}
	milestones := []model.MilestoneModel{
		{Idx: 0, Description: "prototype", ReleasePercent: 20},
		{Idx: 1, Description: "pilot", ReleasePercent: 30},
		{Idx: 2, Description: "rollout", ReleasePercent: 50},
	}
	require.NoError(t, s.Tx(context.Background(), func(tx *Tx) error {
		return tx.CreateProject(project, milestones)
	}))
	return project
}

func TestProjectRoundTrip(t *testing.T) {
	s := newTestStore(t)
	project := seedProject(t, s, model.StateFunding)
	tx := s.Read(context.Background())

	got, err := tx.GetProject(project.Id)
	require.NoError(t, err)
	assert.Equal(t, model.StateFunding, got.State)
	assert.Equal(t, "1000", got.TargetAmount.String())

	milestones, err := tx.ListMilestones(project.Id)
	require.NoError(t, err)
	require.Len(t, milestones, 3)
	assert.Equal(t, "rollout", milestones[2].Description)

	byState, err := tx.ListProjectsByState(model.StateFunding, model.StateCancelled)
	require.NoError(t, err)
	assert.Len(t, byState, 1)

	none, err := tx.ListProjectsByIDs(nil)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = tx.GetProject(404)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	_, err = tx.GetInvestment(project.Id, creator)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestAppendEventSequencesPerProject(t *testing.T) {
	s := newTestStore(t)
	first := seedProject(t, s, model.StateFunding)
	second := seedProject(t, s, model.StateFunding)

	var events []*model.EventModel
	require.NoError(t, s.Tx(context.Background(), func(tx *Tx) error {
		for _, id := range []int64{first.Id, second.Id, first.Id} {
			ev, err := tx.AppendEvent(id, model.EventFunded, creator, map[string]string{"amount": "1"})
			if err != nil {
				return err
			}
			events = append(events, ev)
		}
		return nil
	}))

	assert.Equal(t, int64(1), events[0].Seq)
	assert.Equal(t, int64(1), events[1].Seq)
	assert.Equal(t, int64(2), events[2].Seq)
	assert.JSONEq(t, `{"amount":"1"}`, events[0].Data)
	assert.NotEqual(t, events[0].Ref, events[2].Ref)

	listed, err := s.Read(context.Background()).ListEvents(first.Id, 0, 10)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, events[2].Ref, listed[1].Ref)
}

func TestListEventsCursors(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	first := seedProject(t, s, model.StateFunding)
	second := seedProject(t, s, model.StateFunding)

	appendAll := func(ids ...int64) []model.EventModel {
		var events []model.EventModel
		require.NoError(t, s.Tx(ctx, func(tx *Tx) error {
			for _, id := range ids {
				ev, err := tx.AppendEvent(id, model.EventFunded, creator, nil)
				if err != nil {
					return err
				}
				events = append(events, *ev)
			}
			return tx.AssignGlobalSeq(events)
		}))
		return events
	}

	// 行 id 与项目内序号错开
	batch := appendAll(second.Id, second.Id, first.Id, first.Id)
	assert.Equal(t, []int64{1, 2, 3, 4},
		[]int64{batch[0].GlobalSeq, batch[1].GlobalSeq, batch[2].GlobalSeq, batch[3].GlobalSeq})

	mine, err := s.Read(ctx).ListEvents(first.Id, 1, 10)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, int64(2), mine[0].Seq)
	assert.Equal(t, batch[3].Ref, mine[0].Ref)

	global, err := s.Read(ctx).ListEvents(0, 2, 10)
	require.NoError(t, err)
	require.Len(t, global, 2)
	assert.Equal(t, batch[2].Ref, global[0].Ref)
	assert.Equal(t, int64(4), global[1].GlobalSeq)

	next := appendAll(first.Id)
	assert.Equal(t, int64(5), next[0].GlobalSeq)
	assert.Equal(t, int64(3), next[0].Seq)

	tail, err := s.Read(ctx).ListEvents(0, 4, 10)
	require.NoError(t, err)
	require.Len(t, tail, 1)
	assert.Equal(t, next[0].Ref, tail[0].Ref)
}

func TestEventRef(t *testing.T) {
	data := []byte(`{"amount":"1"}`)
	ref := EventRef(1, 1, model.EventFunded, creator, data)

	assert.Len(t, ref, 66)
	assert.True(t, strings.HasPrefix(ref, "0x"))
	assert.Equal(t, ref, EventRef(1, 1, model.EventFunded, creator, data))
	assert.NotEqual(t, ref, EventRef(1, 2, model.EventFunded, creator, data))
	assert.NotEqual(t, ref, EventRef(2, 1, model.EventFunded, creator, data))
	assert.NotEqual(t, ref, EventRef(1, 1, model.EventFunded, creator, []byte(`{"amount":"2"}`)))
}

func TestTxRollsBack(t *testing.T) {
	s := newTestStore(t)
	project := seedProject(t, s, model.StateFunding)

	boom := errors.New("boom")
	err := s.Tx(context.Background(), func(tx *Tx) error {
		project.State = model.StateCancelled
		if err := tx.SaveProject(project); err != nil {
			return err
		}
		if _, err := tx.AppendEvent(project.Id, model.EventStateChanged, creator, nil); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.Read(context.Background()).GetProject(project.Id)
	require.NoError(t, err)
	assert.Equal(t, model.StateFunding, got.State)
	events, err := s.Read(context.Background()).ListEvents(project.Id, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestVotesAreUniquePerRound(t *testing.T) {
	s := newTestStore(t)
	project := seedProject(t, s, model.StateVotingRound1)
	ctx := context.Background()

	vote := func() error {
		return s.Tx(ctx, func(tx *Tx) error {
			return tx.CreateVote(&model.VoteModel{
				ProjectId: project.Id,
				RoundIdx:  0,
				Voter:     creator,
				Choice:    model.VoteYes,
				Weight:    model.NewAmount(10),
			})
		})
	}
	require.NoError(t, vote())
	assert.Error(t, vote())

	votes, err := s.Read(ctx).ListVotesByVoter(project.Id, creator)
	require.NoError(t, err)
	assert.Len(t, votes, 1)
}

func TestListExpiredOpenRounds(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	opened := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	open := seedProject(t, s, model.StateVotingRound1)
	closed := seedProject(t, s, model.StateBuildingStage2)
	require.NoError(t, s.Tx(ctx, func(tx *Tx) error {
		if err := tx.CreateRound(&model.VotingRoundModel{
			ProjectId:           open.Id,
			Idx:                 0,
			SnapshotTotalWeight: model.NewAmount(1000),
			YesWeight:           model.Zero,
			NoWeight:            model.Zero,
			OpenedAt:            opened,
		}); err != nil {
			return err
		}
		return tx.CreateRound(&model.VotingRoundModel{
			ProjectId:           closed.Id,
			Idx:                 0,
			SnapshotTotalWeight: model.NewAmount(1000),
			YesWeight:           model.NewAmount(1000),
			NoWeight:            model.Zero,
			Closed:              true,
			Outcome:             model.OutcomePass,
			OpenedAt:            opened,
		})
	}))

	tx := s.Read(ctx)
	rounds, err := tx.ListExpiredOpenRounds(opened)
	require.NoError(t, err)
	assert.Empty(t, rounds)

	rounds, err = tx.ListExpiredOpenRounds(opened.Add(time.Second))
	require.NoError(t, err)
	require.Len(t, rounds, 1)
	assert.Equal(t, open.Id, rounds[0].ProjectId)
	assert.Equal(t, "1000", rounds[0].SnapshotTotalWeight.String())
}
