package models_test

import (
	"encoding/json"
	"strings"
	"testing"

	"narrative-engine/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKey_IsVersion7(t *testing.T) {
	key := models.NewKey()
	parsed, err := uuid.Parse(key)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
	assert.Equal(t, parsed.String(), key)
}

func TestStage_Display(t *testing.T) {
	stage := models.Stage{
		Scene: models.Scene{
			Name:        "Village Square",
			Description: "A muddy square.",
			Props:       []models.Prop{{Name: "Old Well"}},
			Exits: []models.Exit{
				{Name: "Tavern", Direction: "north"},
				{Name: "Blacksmith", Direction: "east"},
			},
		},
		People: []models.Person{{Name: "Mara", Race: "human", Occupation: "baker"}},
		Items:  []models.Item{{Name: "rusty sword"}},
	}

	expected := "Village Square\n\nA muddy square.\n\n" +
		"Mara (human baker) is here.\n" +
		"A rusty sword is here.\n" +
		"A old well is here.\n" +
		"\n\nExits:\n - Tavern (north)\n - Blacksmith (east)"
	assert.Equal(t, expected, stage.Display())
}

func TestStage_DisplayWithoutExits(t *testing.T) {
	stage := models.Stage{Scene: models.Scene{Name: "Cell", Description: "Dark."}}
	assert.True(t, strings.HasSuffix(stage.Display(), "\n\nExits: seemingly none..."))
}

func TestRawCommandEvent_AcceptsBothNamings(t *testing.T) {
	var camel, snake models.RawCommandEvent
	require.NoError(t, json.Unmarshal([]byte(`{"eventName":"stand","appliesTo":"people/p1","parameter":""}`), &camel))
	require.NoError(t, json.Unmarshal([]byte(`{"event_name":"stand","applies_to":"people/p1","parameter":""}`), &snake))

	assert.Equal(t, camel, snake)
	assert.Equal(t, "stand", camel.EventName)
	assert.Equal(t, "people/p1", camel.AppliesTo)
}

func TestInvalidExecution_DefaultReason(t *testing.T) {
	empty := ""
	exec := models.InvalidExecution(models.RawCommandExecution{Valid: false, Reason: &empty})
	require.NotNil(t, exec.Reason)
	assert.False(t, exec.Valid)
	assert.Equal(t, "invalid for unknown reason", *exec.Reason)

	given := "you cannot fly"
	exec = models.InvalidExecution(models.RawCommandExecution{Valid: false, Reason: &given})
	assert.Equal(t, "you cannot fly", *exec.Reason)
}

func TestCommandExecution_MarshalJSON(t *testing.T) {
	exec := models.CommandExecution{
		Valid:     true,
		Narration: "You stand up.",
		Events:    []models.CommandEvent{models.Stand{Target: "p1"}},
	}

	data, err := json.Marshal(exec)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"valid":true,"narration":"You stand up.","events":[{"type":"stand","event":{"target":"p1"}}]}`,
		string(data))
}

func TestGrammarRegistry(t *testing.T) {
	names := models.GrammarNames()
	assert.Equal(t, []string{
		"Commands", "ExitSeed", "PersonDetails", "RawCommandExecution", "SceneSeed", "VerbsResponse",
	}, names)

	g, ok := models.Grammar("RawCommandExecution")
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(g, "root ::= RawCommandExecution\n"))
	assert.Contains(t, g, `(string | "null")`)
	assert.Contains(t, g, "RawCommandEventList ::= ")

	_, ok = models.Grammar("Nope")
	assert.False(t, ok)
}

func TestContentContainer_RemoveStub(t *testing.T) {
	scene := models.NewScene()
	content := models.ContentContainer{Owner: &scene}
	content.Contain(models.StubRelation(&models.SceneStub{Key: "a", IsStub: true}))
	content.Contain(models.StubRelation(&models.SceneStub{Key: "b", IsStub: true}))
	content.Contain(models.PersonRelation(&models.Person{Key: "p"}))

	assert.True(t, content.RemoveStub("a"))
	assert.False(t, content.RemoveStub("missing"))
	require.Len(t, content.Stubs(), 1)
	assert.Equal(t, "b", content.Stubs()[0].Key)
	assert.Len(t, content.Contained, 2)
}
