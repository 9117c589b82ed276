package prompts

import (
	"strings"

	"narrative-engine/internal/convo"
	"narrative-engine/internal/models"
)

const (
	executionTokens = 512
	creationTokens  = 1024
)

// IntroPrompt открывает сессию разбора команд: полные инструкции и первый ввод.
func (p *Provider) IntroPrompt(input string) convo.Prompt {
	text := p.mustRender(Intro, map[string]string{"PLAYER_INPUT": input})
	return convo.WithGrammar(text, models.MustGrammar(models.CommandsSchema))
}

// ContinuationPrompt — очередной ввод в уже открытой сессии разбора.
func (p *Provider) ContinuationPrompt(input string) convo.Prompt {
	text := p.mustRender(Continuation, map[string]string{"PLAYER_INPUT": input})
	return convo.WithGrammar(text, models.MustGrammar(models.CommandsSchema))
}

func (p *Provider) FindVerbsPrompt(input string) convo.Prompt {
	text := p.mustRender(FindVerbs, map[string]string{"PLAYER_INPUT": input})
	return convo.WithGrammar(text, models.MustGrammar(models.VerbsResponseSchema))
}

// ExecutionPrompt просит модель исполнить команду в контексте сцены.
func (p *Provider) ExecutionPrompt(stage models.Stage, cmd models.Command) convo.Prompt {
	text := p.mustRender(Execution, map[string]string{
		"EVENT_INSTRUCTIONS": p.mustRender(EventInstructions, nil),
		"STAGE_INFO":         stageInfo(stage),
		"VERB":               cmd.Verb,
		"TARGET":             cmd.Target,
		"LOCATION":           cmd.Location,
		"USING":              cmd.Using,
	})
	return convo.WithGrammar(text, models.MustGrammar(models.RawCommandExecutionSchema)).Sized(executionTokens)
}

func (p *Provider) SceneCreationPrompt(sceneType, fantasticalness string) convo.Prompt {
	text := p.mustRender(SceneCreation, map[string]string{
		"SCENE_INSTRUCTIONS": p.mustRender(SceneInstructions, nil),
		"SCENE_TYPE":         sceneType,
		"FANTASTICALNESS":    fantasticalness,
	})
	return convo.WithGrammar(text, models.MustGrammar(models.SceneSeedSchema)).Sized(creationTokens).Creative()
}

// SceneFromStubPrompt строит сцену по заглушке. Соседняя сцена, откуда
// пришёл игрок, даётся как контекст и должна попасть в выходы.
func (p *Provider) SceneFromStubPrompt(connected models.Scene, stub models.SceneStub) convo.Prompt {
	direction := "back"
	for _, e := range connected.Exits {
		if e.SceneKey == stub.Key {
			direction = e.Direction
			break
		}
	}

	text := p.mustRender(SceneFromStub, map[string]string{
		"SCENE_INSTRUCTIONS":          p.mustRender(SceneInstructions, nil),
		"SCENE_NAME":                  stub.Name,
		"SCENE_REGION":                stub.Region,
		"CONNECTED_SCENE_ID":          connected.ID(),
		"CONNECTED_SCENE_KEY":         connected.Key,
		"CONNECTED_SCENE_NAME":        connected.Name,
		"CONNECTED_SCENE_REGION":      connected.Region,
		"CONNECTED_SCENE_DIRECTION":   direction,
		"CONNECTED_SCENE_DESCRIPTION": connected.Description,
	})
	return convo.WithGrammar(text, models.MustGrammar(models.SceneSeedSchema)).Sized(creationTokens).Creative()
}

func (p *Provider) PersonCreationPrompt(scene models.SceneSeed, person models.PersonSeed) convo.Prompt {
	sceneInfo := p.mustRender(PersonSceneInfo, map[string]string{
		"SCENE_NAME":        scene.Name,
		"SCENE_REGION":      scene.Region,
		"SCENE_DESCRIPTION": scene.Description,
	})
	text := p.mustRender(PersonCreation, map[string]string{
		"NAME":       person.Name,
		"RACE":       person.Race,
		"OCCUPATION": person.Occupation,
		"SCENE_INFO": sceneInfo,
	})
	return convo.WithGrammar(text, models.MustGrammar(models.PersonDetailsSchema)).Sized(creationTokens).Creative()
}

// FixExitPrompt просит заменить выход с индексом index. Направления
// остальных выходов запрещены, чтобы не получить дубликат.
func (p *Provider) FixExitPrompt(scene models.Scene, index int) convo.Prompt {
	invalid := scene.Exits[index]

	var other []string
	for i, e := range scene.Exits {
		if i == index {
			continue
		}
		other = append(other, "- `"+e.Direction+"`")
	}
	if len(other) == 0 {
		other = append(other, "- (none)")
	}

	text := p.mustRender(FixExit, map[string]string{
		"OTHER_DIRECTIONS":       strings.Join(other, "\n"),
		"INVALID_EXIT_NAME":      invalid.Name,
		"INVALID_EXIT_DIRECTION": invalid.Direction,
		"SCENE_NAME":             scene.Name,
		"SCENE_DESCRIPTION":      scene.Description,
	})
	return convo.WithGrammar(text, models.MustGrammar(models.ExitSeedSchema)).Sized(creationTokens)
}
