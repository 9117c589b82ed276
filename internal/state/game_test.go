package state_test

import (
	"context"
	"errors"
	"testing"

	"narrative-engine/internal/commands"
	"narrative-engine/internal/mocks"
	"narrative-engine/internal/models"
	"narrative-engine/internal/state"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type deps struct {
	world    *mocks.MockWorld
	creator  *mocks.MockSceneCreator
	executor *mocks.MockTurnExecutor
}

func newGame(t *testing.T) (*state.Game, deps) {
	t.Helper()
	d := deps{
		world:    mocks.NewMockWorld(t),
		creator:  mocks.NewMockSceneCreator(t),
		executor: mocks.NewMockTurnExecutor(t),
	}
	return state.NewGame(d.world, d.creator, d.executor, "a quiet village", nil), d
}

func stageOf(scene models.Scene) models.Stage {
	return models.Stage{ID: scene.ID(), Key: scene.Key, Scene: scene}
}

var square = stageOf(models.Scene{
	Key:  models.RootSceneKey,
	Name: "Village Square",
	Exits: []models.Exit{
		{Name: "Mill", Direction: "east", SceneKey: "mill"},
	},
})

func TestGame_EnsureRootStageLoadsExisting(t *testing.T) {
	ctx := context.Background()
	game, d := newGame(t)
	d.world.On("LoadStage", ctx, models.RootSceneKey).Return(models.StageOrStub{Stage: &square}, nil).Once()

	stage, err := game.EnsureRootStage(ctx)
	require.NoError(t, err)
	assert.Equal(t, square, stage)
	assert.Equal(t, square, game.Current())
}

func TestGame_EnsureRootStageCreatesMissing(t *testing.T) {
	ctx := context.Background()
	game, d := newGame(t)

	content := &models.ContentContainer{Owner: &models.Scene{Key: models.RootSceneKey, Name: "Village Square"}}
	d.world.On("LoadStage", ctx, models.RootSceneKey).Return(models.StageOrStub{}, models.ErrStageNotFound).Once()
	d.creator.On("CreateSceneWithKey", ctx, "a quiet village", "mundane", models.RootSceneKey).Return(content, nil).Once()
	d.world.On("StoreContent", ctx, content).Return(nil).Once()
	d.world.On("LoadStage", ctx, models.RootSceneKey).Return(models.StageOrStub{Stage: &square}, nil).Once()

	stage, err := game.EnsureRootStage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Village Square", stage.Scene.Name)
}

func TestGame_EnsureRootStageRejectsStub(t *testing.T) {
	ctx := context.Background()
	game, d := newGame(t)
	d.world.On("LoadStage", ctx, models.RootSceneKey).
		Return(models.StageOrStub{Stub: &models.SceneStub{Key: models.RootSceneKey}}, nil).Once()

	_, err := game.EnsureRootStage(ctx)
	assert.ErrorIs(t, err, models.ErrRootIsStub)
}

func TestGame_PlayChangesSceneThroughStub(t *testing.T) {
	ctx := context.Background()
	game, d := newGame(t)
	d.world.On("LoadStage", ctx, models.RootSceneKey).Return(models.StageOrStub{Stage: &square}, nil).Once()
	_, err := game.Enter(ctx, models.RootSceneKey)
	require.NoError(t, err)

	stub := models.SceneStub{Key: "mill", Name: "Mill", IsStub: true}
	mill := stageOf(models.Scene{Key: "mill", Name: "Old Mill"})
	content := &models.ContentContainer{Owner: &models.Scene{Key: "mill", Name: "Old Mill"}}

	d.executor.On("Execute", ctx, square, "go east").Return(commands.Result{
		Execution: models.CommandExecution{
			Valid:     true,
			Narration: "You walk to the mill.",
			Events: []models.CommandEvent{
				models.ChangeScene{SceneKey: "mill"},
				models.Narration{Text: "The wheel creaks."},
			},
		},
	}, nil).Once()
	d.world.On("LoadStage", ctx, "mill").Return(models.StageOrStub{Stub: &stub}, nil).Once()
	d.creator.On("CreateSceneFromStub", ctx, stub, square.Scene).Return(content, nil).Once()
	d.world.On("StoreContent", ctx, content).Return(nil).Once()
	d.world.On("LoadStage", ctx, "mill").Return(models.StageOrStub{Stage: &mill}, nil).Once()

	turn, err := game.Play(ctx, "  go east ")
	require.NoError(t, err)
	assert.Equal(t, "go east", turn.Input)
	assert.Equal(t, []string{"You walk to the mill.", "The wheel creaks."}, turn.Lines)
	assert.Equal(t, mill, turn.Stage)
	assert.Equal(t, mill, game.Current())
	assert.Len(t, game.Journal(), 2)
}

func TestGame_PlayBuiltinLook(t *testing.T) {
	ctx := context.Background()
	game, d := newGame(t)
	d.world.On("LoadStage", ctx, models.RootSceneKey).Return(models.StageOrStub{Stage: &square}, nil).Once()
	_, err := game.Enter(ctx, models.RootSceneKey)
	require.NoError(t, err)

	d.executor.On("Execute", ctx, square, "look").
		Return(commands.Result{Builtin: commands.LookAtScene, Execution: models.EmptyExecution()}, nil).Once()

	turn, err := game.Play(ctx, "look")
	require.NoError(t, err)
	assert.Equal(t, commands.LookAtScene, turn.Builtin)
	require.Len(t, turn.Lines, 1)
	assert.Contains(t, turn.Lines[0], "Village Square")
	assert.Contains(t, turn.Lines[0], " - Mill (east)")
}

func TestGame_PlayLookAtEntityAndInvalid(t *testing.T) {
	ctx := context.Background()
	game, d := newGame(t)

	d.executor.On("Execute", ctx, mock.Anything, "examine barkeep").Return(commands.Result{
		Execution: models.CommandExecution{
			Valid:  true,
			Events: []models.CommandEvent{models.LookAtEntity{EntityKey: "p1", SceneKey: ""}},
		},
		Unresolved: models.EventConversionFailures{
			ConversionFailures: []models.EventConversionError{
				{Kind: models.UnrecognizedEvent, Raw: models.RawCommandEvent{EventName: "wiggle"}},
			},
		},
	}, nil).Once()
	d.world.On("LoadEntity", ctx, "", "p1").
		Return(models.Entity{Type: models.EntityPerson, Person: &models.Person{Description: "A grumpy barkeep."}}, nil).Once()

	turn, err := game.Play(ctx, "examine barkeep")
	require.NoError(t, err)
	assert.Equal(t, []string{"A grumpy barkeep."}, turn.Lines)
	assert.Equal(t, `unrecognized event "wiggle"`, turn.Unresolved)

	reason := "you have no wings"
	d.executor.On("Execute", ctx, mock.Anything, "fly").Return(commands.Result{
		Execution: models.CommandExecution{Valid: false, Reason: &reason},
	}, nil).Once()
	turn, err = game.Play(ctx, "fly")
	require.NoError(t, err)
	assert.Equal(t, []string{"You can't do that: you have no wings"}, turn.Lines)
}

func TestGame_UnknownSceneKeepsPlayerInPlace(t *testing.T) {
	ctx := context.Background()
	game, d := newGame(t)
	d.world.On("LoadStage", ctx, "nowhere").Return(models.StageOrStub{}, models.ErrStageNotFound).Once()

	lines, err := game.Apply(ctx, models.CommandExecution{
		Valid:  true,
		Events: []models.CommandEvent{models.ChangeScene{SceneKey: "nowhere"}, models.Stand{Target: "p1"}},
	})
	require.NoError(t, err)
	assert.Empty(t, lines)
	assert.Equal(t, models.Stage{}, game.Current())
}

func TestGame_Errors(t *testing.T) {
	ctx := context.Background()
	game, d := newGame(t)

	_, err := game.Play(ctx, "   ")
	assert.ErrorIs(t, err, models.ErrEmptyCommand)

	d.world.On("LoadStage", ctx, "mill").Return(models.StageOrStub{Stub: &models.SceneStub{Key: "mill"}}, nil).Once()
	_, err = game.Enter(ctx, "mill")
	assert.ErrorIs(t, err, models.ErrStageNotFound)
	assert.ErrorIs(t, err, models.ErrNotFound)

	boom := errors.New("db down")
	d.executor.On("Execute", ctx, mock.Anything, "sing").Return(commands.Result{}, boom).Once()
	_, err = game.Play(ctx, "sing")
	assert.ErrorIs(t, err, boom)
}
