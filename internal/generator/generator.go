// Package generator создаёт сырой контент через модель: разбирает ввод
// игрока, исполняет команды, генерирует сцены и персонажей. Ключи, хранение
// и связность мира решаются уровнем выше.
package generator

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"narrative-engine/internal/convo"
	"narrative-engine/internal/llm"
	"narrative-engine/internal/models"
	"narrative-engine/internal/prompts"

	"go.uber.org/zap"
)

const itemDetailsPlaceholder = "fill me in: item details are not generated yet"

// Generator держит четыре независимых диалога с моделью.
type Generator struct {
	prompts *prompts.Provider
	logger  *zap.Logger

	parsing        *convo.Session
	worldCreation  *convo.Session
	personCreation *convo.Session
	execution      *convo.Session
}

// New создаёт генератор поверх одного транспорта.
func New(transport llm.Transport, provider *prompts.Provider, limits convo.Limits, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		prompts:        provider,
		logger:         logger.Named("Generator"),
		parsing:        convo.NewSession("parsing", transport, limits, logger),
		worldCreation:  convo.NewSession("world_creation", transport, limits, logger),
		personCreation: convo.NewSession("person_creation", transport, limits, logger),
		execution:      convo.NewSession("execution", transport, limits, logger),
	}
}

// ResetCommands сбрасывает диалоги разбора и исполнения команд.
func (g *Generator) ResetCommands() {
	g.parsing.Reset()
	g.execution.Reset()
}

func (g *Generator) ResetWorldCreation() {
	g.worldCreation.Reset()
}

func (g *Generator) ResetPersonCreation() {
	g.personCreation.Reset()
}

// Parse разбирает ввод игрока в команды. Первый ввод в сессии идёт с полной
// инструкцией, последующие дописываются коротким продолжением. Команды с
// пустым глаголом или глаголом, которого нет во вводе, отбрасываются.
func (g *Generator) Parse(ctx context.Context, input string) (models.Commands, error) {
	var prompt convo.Prompt
	if g.parsing.IsEmpty() {
		prompt = g.prompts.IntroPrompt(input)
	} else {
		prompt = g.prompts.ContinuationPrompt(input)
	}

	var cmds models.Commands
	if err := g.parsing.Execute(ctx, prompt, &cmds); err != nil {
		return models.Commands{}, fmt.Errorf("parse %q: %w", input, err)
	}

	verbs, err := g.findVerbs(ctx, input)
	if err != nil {
		return models.Commands{}, err
	}

	filtered := make([]models.Command, 0, len(cmds.Commands))
	for _, cmd := range cmds.Commands {
		if cmd.Verb != "" && slices.Contains(verbs, cmd.Verb) {
			filtered = append(filtered, cmd)
		}
	}
	if dropped := len(cmds.Commands) - len(filtered); dropped > 0 {
		g.logger.Debug("Dropped incoherent commands", zap.String("input", input), zap.Int("dropped", dropped))
	}

	return models.Commands{Commands: filtered, Count: len(filtered)}, nil
}

// findVerbs оставляет только глаголы, которые буквально встречаются во вводе.
func (g *Generator) findVerbs(ctx context.Context, input string) ([]string, error) {
	var resp models.VerbsResponse
	if err := g.parsing.Execute(ctx, g.prompts.FindVerbsPrompt(input), &resp); err != nil {
		return nil, fmt.Errorf("find verbs in %q: %w", input, err)
	}

	verbs := make([]string, 0, len(resp.Verbs))
	for _, v := range resp.Verbs {
		if strings.Contains(input, v) {
			verbs = append(verbs, v)
		}
	}
	return verbs, nil
}

// ExecuteRaw просит модель исполнить команду в сцене.
func (g *Generator) ExecuteRaw(ctx context.Context, stage models.Stage, cmd models.Command) (models.RawCommandExecution, error) {
	var raw models.RawCommandExecution
	if err := g.execution.Execute(ctx, g.prompts.ExecutionPrompt(stage, cmd), &raw); err != nil {
		return models.RawCommandExecution{}, fmt.Errorf("execute %q in %s: %w", cmd.Verb, stage.Key, err)
	}
	return raw, nil
}

func (g *Generator) CreateSceneSeed(ctx context.Context, sceneType, fantasticalness string) (models.SceneSeed, error) {
	var seed models.SceneSeed
	if err := g.worldCreation.Execute(ctx, g.prompts.SceneCreationPrompt(sceneType, fantasticalness), &seed); err != nil {
		return models.SceneSeed{}, fmt.Errorf("create scene seed: %w", err)
	}
	return seed, nil
}

// CreateSceneSeedFromStub генерирует сцену на месте заглушки, с соседней
// сценой в качестве контекста.
func (g *Generator) CreateSceneSeedFromStub(ctx context.Context, stub models.SceneStub, connected models.Scene) (models.SceneSeed, error) {
	var seed models.SceneSeed
	if err := g.worldCreation.Execute(ctx, g.prompts.SceneFromStubPrompt(connected, stub), &seed); err != nil {
		return models.SceneSeed{}, fmt.Errorf("create scene seed from stub %s: %w", stub.Key, err)
	}
	return seed, nil
}

func (g *Generator) CreatePersonDetails(ctx context.Context, scene models.SceneSeed, seed models.PersonSeed) (models.PersonDetails, error) {
	var details models.PersonDetails
	if err := g.personCreation.Execute(ctx, g.prompts.PersonCreationPrompt(scene, seed), &details); err != nil {
		return models.PersonDetails{}, fmt.Errorf("create details for %q: %w", seed.Name, err)
	}
	return details, nil
}

// CreateItemDetails пока не обращается к модели.
// TODO: промпт и грамматика для описания предметов по аналогии с персонажами.
func (g *Generator) CreateItemDetails(_ context.Context, _ models.SceneSeed, _ models.ItemSeed) (models.ItemDetails, error) {
	return models.ItemDetails{
		Description:      itemDetailsPlaceholder,
		Attributes:       []string{},
		SecretAttributes: []string{},
	}, nil
}

// FixScene подбирает правки для найденных дефектов сцены. Для каждого
// невалидного имени выхода модель генерирует замену; из группы дубликатов
// остаётся первый выход, остальные удаляются.
func (g *Generator) FixScene(ctx context.Context, scene models.Scene, failures []models.CoherenceFailure) ([]models.SceneFix, error) {
	var fixes []models.SceneFix
	for _, failure := range failures {
		switch f := failure.(type) {
		case models.InvalidExitName:
			if f.Index < 0 || f.Index >= len(scene.Exits) {
				return nil, fmt.Errorf("invalid exit index %d in scene %s", f.Index, scene.Key)
			}
			g.logger.Info("invalid exit name", zap.String("scene", scene.Key), zap.String("exit", f.Exit.Name))

			var fixed models.ExitSeed
			if err := g.worldCreation.Execute(ctx, g.prompts.FixExitPrompt(scene, f.Index), &fixed); err != nil {
				return nil, fmt.Errorf("fix exit %q: %w", f.Exit.Name, err)
			}
			g.logger.Info("fixed with",
				zap.String("name", fixed.Name),
				zap.String("direction", fixed.Direction),
				zap.String("region", fixed.Region),
			)
			fixes = append(fixes, models.FixedExit{Index: f.Index, New: fixed})

		case models.DuplicateExits:
			g.logger.Info("found duplicate exits", zap.String("name", f.Name), zap.Ints("indices", f.Indices))
			for i, idx := range f.Indices {
				if i > 0 {
					fixes = append(fixes, models.DeleteExit{Index: idx})
				}
			}
		}
	}
	return fixes, nil
}
