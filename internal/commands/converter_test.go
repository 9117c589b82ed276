package commands_test

import (
	"context"
	"errors"
	"testing"

	"narrative-engine/internal/commands"
	"narrative-engine/internal/mocks"
	"narrative-engine/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCommandEvent(t *testing.T) {
	tests := []struct {
		name    string
		raw     models.RawCommandEvent
		want    models.CommandEvent
		wantErr models.ConversionErrorKind
		fails   bool
	}{
		{
			name: "change scene strips prefix",
			raw:  models.RawCommandEvent{EventName: "change_scene", AppliesTo: "player", Parameter: "scenes/abc123"},
			want: models.ChangeScene{SceneKey: "abc123"},
		},
		{
			name: "posture is case insensitive",
			raw:  models.RawCommandEvent{EventName: "STAND", AppliesTo: "people/p1"},
			want: models.Stand{Target: "p1"},
		},
		{
			name: "crouch",
			raw:  models.RawCommandEvent{EventName: "crouch", AppliesTo: "p2"},
			want: models.Crouch{Target: "p2"},
		},
		{
			name: "narration is carried as is",
			raw:  models.RawCommandEvent{EventName: "narration", Parameter: "people/ the wind howls"},
			want: models.Narration{Text: "people/ the wind howls"},
		},
		{
			name: "look at entity",
			raw:  models.RawCommandEvent{EventName: "look_at_entity", AppliesTo: "scenes/s1", Parameter: "items/i1"},
			want: models.LookAtEntity{EntityKey: "i1", SceneKey: "s1"},
		},
		{
			name: "take damage",
			raw:  models.RawCommandEvent{EventName: "take_damage", AppliesTo: "people/p1", Parameter: "7"},
			want: models.TakeDamage{Target: "p1", Amount: 7},
		},
		{
			name:    "negative damage",
			raw:     models.RawCommandEvent{EventName: "take_damage", AppliesTo: "p1", Parameter: "-5"},
			wantErr: models.InvalidParameter,
			fails:   true,
		},
		{
			name:    "damage out of range",
			raw:     models.RawCommandEvent{EventName: "take_damage", AppliesTo: "p1", Parameter: "4294967296"},
			wantErr: models.InvalidParameter,
			fails:   true,
		},
		{
			name: "explicitly unrecognized",
			raw:  models.RawCommandEvent{EventName: "unrecognized", Parameter: "You can't do that."},
			want: models.Unrecognized{Name: "unrecognized", Narration: "You can't do that."},
		},
		{
			name:    "unknown event",
			raw:     models.RawCommandEvent{EventName: "jump", AppliesTo: "p1"},
			wantErr: models.UnrecognizedEvent,
			fails:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := commands.NewCommandEvent(tt.raw)
			if tt.fails {
				var convErr models.EventConversionError
				require.ErrorAs(t, err, &convErr)
				assert.Equal(t, tt.wantErr, convErr.Kind)
				assert.Equal(t, tt.raw, convErr.Raw)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStripPrefixes(t *testing.T) {
	assert.Equal(t, "abc", commands.StripPrefixes("scenes/abc"))
	assert.Equal(t, "p1", commands.StripPrefixes("people/p1"))
	assert.Equal(t, "i1", commands.StripPrefixes("items/i1"))
	assert.Equal(t, "scenes/x", commands.StripPrefixes("people/scenes/x"))
	assert.Equal(t, "abc", commands.StripPrefixes("abc"))
}

func TestNormalizeKey(t *testing.T) {
	const canonical = "6ba7b810-9dad-11d1-80b4-00c04fd430c8"
	assert.Equal(t, canonical, commands.NormalizeKey("6ba7b8109dad11d180b400c04fd430c8"))
	assert.Equal(t, canonical, commands.NormalizeKey("6ba7b810-9dad11d1-80b4-00c04fd430c8"))
	assert.Equal(t, canonical, commands.NormalizeKey("6BA7B810-9DAD-11D1-80B4-00C04FD430C8"))
	assert.Equal(t, "not-a-key", commands.NormalizeKey("not-a-key"))
	assert.Equal(t, models.RootSceneKey, commands.NormalizeKey(models.RootSceneKey))
}

func TestConvertRawExecution_PartialSuccess(t *testing.T) {
	checker := mocks.NewMockWorldChecker(t)
	raw := models.RawCommandExecution{
		Valid:     true,
		Narration: "You stand up and wiggle.",
		Events: []models.RawCommandEvent{
			{EventName: "stand", AppliesTo: "people/p1"},
			{EventName: "wiggle", AppliesTo: "p1", Parameter: ""},
		},
	}

	result := commands.ConvertRawExecution(context.Background(), raw, checker)

	partial, ok := result.(models.ConversionPartialSuccess)
	require.True(t, ok, "got %T", result)
	assert.Equal(t, []models.CommandEvent{models.Stand{Target: "p1"}}, partial.Execution.Events)
	assert.Equal(t, "You stand up and wiggle.", partial.Execution.Narration)
	require.Len(t, partial.Failures.ConversionFailures, 1)
	assert.Equal(t, models.UnrecognizedEvent, partial.Failures.ConversionFailures[0].Kind)
	assert.Equal(t, "wiggle", partial.Failures.ConversionFailures[0].Raw.EventName)
	assert.Empty(t, partial.Failures.CoherenceFailures)
}

func TestConvertRawExecution_InvalidExecution(t *testing.T) {
	checker := mocks.NewMockWorldChecker(t)

	result := commands.ConvertRawExecution(context.Background(), models.RawCommandExecution{
		Valid:     false,
		Narration: "Nothing happens.",
		Events:    []models.RawCommandEvent{{EventName: "jump"}},
	}, checker)

	success, ok := result.(models.ConversionSuccess)
	require.True(t, ok, "got %T", result)
	assert.False(t, success.Execution.Valid)
	require.NotNil(t, success.Execution.Reason)
	assert.Equal(t, "invalid for unknown reason", *success.Execution.Reason)
	assert.Empty(t, success.Execution.Events)

	reason := "the door is locked"
	result = commands.ConvertRawExecution(context.Background(), models.RawCommandExecution{Reason: &reason}, checker)
	assert.Equal(t, "the door is locked", *result.(models.ConversionSuccess).Execution.Reason)
}

func TestConvertRawExecution_EmptyIsSuccess(t *testing.T) {
	result := commands.ConvertRawExecution(context.Background(), models.EmptyRawExecution(), mocks.NewMockWorldChecker(t))
	success, ok := result.(models.ConversionSuccess)
	require.True(t, ok, "got %T", result)
	assert.True(t, success.Execution.Valid)
	assert.Nil(t, success.Execution.Reason)
}

func TestConvertRawExecution_CoherenceFailures(t *testing.T) {
	ctx := context.Background()
	checker := mocks.NewMockWorldChecker(t)
	checker.On("EntityExists", ctx, "s1", "ghost").Return(false, nil).Once()
	checker.On("StageExists", ctx, "far-away").Return(false, errors.New("connection reset")).Once()

	result := commands.ConvertRawExecution(ctx, models.RawCommandExecution{
		Valid: true,
		Events: []models.RawCommandEvent{
			{EventName: "look_at_entity", AppliesTo: "s1", Parameter: "people/ghost"},
			{EventName: "change_scene", Parameter: "scenes/far-away"},
		},
	}, checker)

	failure, ok := result.(models.ConversionFailure)
	require.True(t, ok, "got %T", result)
	require.Len(t, failure.Failures.CoherenceFailures, 2)

	first := failure.Failures.CoherenceFailures[0]
	assert.Equal(t, models.TargetDoesNotExist, first.Kind)
	assert.Equal(t, models.LookAtEntity{EntityKey: "ghost", SceneKey: "s1"}, first.Event)

	second := failure.Failures.CoherenceFailures[1]
	assert.Equal(t, models.OtherError, second.Kind)
	assert.Equal(t, "connection reset", second.Message)
	assert.Contains(t, failure.Failures.Diagnostic(), "change_scene(far-away)")
}

func TestConvertRawExecution_CheckedEventsPass(t *testing.T) {
	ctx := context.Background()
	checker := mocks.NewMockWorldChecker(t)
	checker.On("StageExists", ctx, "abc123").Return(true, nil).Once()

	result := commands.ConvertRawExecution(ctx, models.RawCommandExecution{
		Valid:  true,
		Events: []models.RawCommandEvent{{EventName: "change_scene", Parameter: "scenes/abc123"}},
	}, checker)

	success, ok := result.(models.ConversionSuccess)
	require.True(t, ok, "got %T", result)
	assert.Equal(t, []models.CommandEvent{models.ChangeScene{SceneKey: "abc123"}}, success.Execution.Events)
}
