package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"narrative-engine/internal/coherence"
	"narrative-engine/internal/generator"
	"narrative-engine/internal/models"

	"go.uber.org/zap"
)

// Logic — верхний уровень генерации: превращает сиды от модели в готовые
// сущности мира с ключами и связями. Все сессии генератора общие, поэтому
// вызовы сериализуются мьютексом.
type Logic struct {
	mu        sync.Mutex
	generator *generator.Generator
	coherence *coherence.Engine
	logger    *zap.Logger
}

// NewLogic создаёт логику поверх генератора. Генератор же чинит выходы сцен.
func NewLogic(gen *generator.Generator, logger *zap.Logger) *Logic {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Logic{
		generator: gen,
		coherence: coherence.New(gen, logger),
		logger:    logger.Named("Logic"),
	}
}

// Execute разбирает ввод игрока и исполняет первую команду.
func (l *Logic) Execute(ctx context.Context, stage models.Stage, input string) (models.Commands, models.RawCommandExecution, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cmds, err := l.generator.Parse(ctx, input)
	if err != nil {
		l.generator.ResetCommands()
		return models.Commands{}, models.RawCommandExecution{}, err
	}
	raw, err := l.executeParsed(ctx, stage, cmds)
	if err != nil {
		return models.Commands{}, models.RawCommandExecution{}, err
	}
	return cmds, raw, nil
}

// ExecuteParsed исполняет уже разобранные команды.
func (l *Logic) ExecuteParsed(ctx context.Context, stage models.Stage, cmds models.Commands) (models.RawCommandExecution, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.executeParsed(ctx, stage, cmds)
}

// executeParsed исполняет только первую команду списка.
// TODO: исполнять все команды по очереди, передавая сцену между ними.
func (l *Logic) executeParsed(ctx context.Context, stage models.Stage, cmds models.Commands) (models.RawCommandExecution, error) {
	if len(cmds.Commands) == 0 {
		return models.EmptyRawExecution(), nil
	}
	defer l.generator.ResetCommands()

	if len(cmds.Commands) > 1 {
		l.logger.Debug("Executing only the first command", zap.Int("count", len(cmds.Commands)))
	}
	return l.generator.ExecuteRaw(ctx, stage, cmds.Commands[0])
}

// CreatePerson генерирует персонажа вместе с его предметами.
func (l *Logic) CreatePerson(ctx context.Context, scene models.SceneSeed, seed models.PersonSeed) (models.ContentContainer, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.createPerson(ctx, scene, seed)
}

func (l *Logic) createPerson(ctx context.Context, scene models.SceneSeed, seed models.PersonSeed) (models.ContentContainer, error) {
	l.generator.ResetPersonCreation()
	defer l.generator.ResetPersonCreation()

	details, err := l.generator.CreatePersonDetails(ctx, scene, seed)
	if err != nil {
		return models.ContentContainer{}, err
	}

	gender := genderOf(details)
	person := &models.Person{
		Key:             models.NewKey(),
		Name:            seed.Name,
		Description:     details.Description,
		Age:             details.Age,
		Residence:       details.Residence,
		CurrentActivity: details.CurrentActivity,
		Occupation:      seed.Occupation,
		Race:            seed.Race,
		Sex:             sexOf(details),
		Gender:          gender,
	}

	content := models.ContentContainer{Owner: person}
	for _, itemSeed := range details.Items {
		item, err := l.createItem(ctx, scene, itemSeed)
		if err != nil {
			return models.ContentContainer{}, err
		}
		content.Contain(models.ContentRelation{
			Content:  &item,
			Outbound: models.RelationItemPossessedBy,
			Inbound:  models.RelationItemPossessedBy,
		})
	}
	return content, nil
}

// CreateItem создаёт предмет. Категорию и редкость модель пока не выбирает.
func (l *Logic) CreateItem(ctx context.Context, scene models.SceneSeed, seed models.ItemSeed) (models.Item, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.createItem(ctx, scene, seed)
}

func (l *Logic) createItem(ctx context.Context, scene models.SceneSeed, seed models.ItemSeed) (models.Item, error) {
	details, err := l.generator.CreateItemDetails(ctx, scene, seed)
	if err != nil {
		return models.Item{}, err
	}
	return models.Item{
		Key:              models.NewKey(),
		Name:             seed.Name,
		Description:      details.Description,
		Category:         models.CategoryOther,
		Rarity:           models.RarityCommon,
		Attributes:       details.Attributes,
		SecretAttributes: details.SecretAttributes,
	}, nil
}

// CreateScene генерирует новую сцену со всем содержимым и чинит её выходы.
func (l *Logic) CreateScene(ctx context.Context, sceneType, fantasticalness string) (*models.ContentContainer, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.createScene(ctx, sceneType, fantasticalness)
}

// CreateSceneWithKey — то же, что CreateScene, но с заданным ключом сцены.
func (l *Logic) CreateSceneWithKey(ctx context.Context, sceneType, fantasticalness, key string) (*models.ContentContainer, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	content, err := l.createScene(ctx, sceneType, fantasticalness)
	if err != nil {
		return nil, err
	}
	content.Scene().Key = key
	return content, nil
}

func (l *Logic) createScene(ctx context.Context, sceneType, fantasticalness string) (*models.ContentContainer, error) {
	defer observeScene("new", time.Now())
	l.generator.ResetWorldCreation()
	defer l.generator.ResetWorldCreation()

	seed, err := l.generator.CreateSceneSeed(ctx, sceneType, fantasticalness)
	if err != nil {
		return nil, err
	}
	content, err := l.fillInScene(ctx, seed)
	if err != nil {
		return nil, err
	}
	if err := l.coherence.MakeSceneCoherent(ctx, content); err != nil {
		return nil, err
	}

	l.logger.Info("Created scene", zap.String("key", content.Scene().Key), zap.String("name", seed.Name))
	return content, nil
}

// CreateSceneFromStub превращает заглушку в полноценную сцену с ключом
// заглушки. Сначала выходы согласуются с соседней сценой, потом проходит
// обычная проверка связности.
func (l *Logic) CreateSceneFromStub(ctx context.Context, stub models.SceneStub, connected models.Scene) (*models.ContentContainer, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	defer observeScene("from_stub", time.Now())
	l.generator.ResetWorldCreation()
	defer l.generator.ResetWorldCreation()

	seed, err := l.generator.CreateSceneSeedFromStub(ctx, stub, connected)
	if err != nil {
		return nil, err
	}
	content, err := l.fillInScene(ctx, seed)
	if err != nil {
		return nil, err
	}
	content.Scene().Key = stub.Key

	if err := l.coherence.MakeSceneFromStubCoherent(content, connected); err != nil {
		return nil, fmt.Errorf("link scene %s back to %s: %w", stub.Key, connected.Key, err)
	}
	if err := l.coherence.MakeSceneCoherent(ctx, content); err != nil {
		return nil, err
	}

	l.logger.Info("Created scene from stub",
		zap.String("key", stub.Key),
		zap.String("connected", connected.Key),
		zap.String("name", seed.Name),
	)
	return content, nil
}

// fillInScene собирает контейнер сцены: люди, предметы, затем выходы и
// заглушки для каждого выхода.
func (l *Logic) fillInScene(ctx context.Context, seed models.SceneSeed) (*models.ContentContainer, error) {
	scene := &models.Scene{
		Key:         models.NewKey(),
		Name:        seed.Name,
		Region:      seed.Region,
		Description: seed.Description,
		Props:       make([]models.Prop, 0, len(seed.Props)),
		Exits:       make([]models.Exit, 0, len(seed.Exits)),
	}
	content := &models.ContentContainer{Owner: scene}

	for _, personSeed := range seed.People {
		person, err := l.createPerson(ctx, seed, personSeed)
		if err != nil {
			return nil, err
		}
		content.ContainNested(person, models.RelationSceneHasPerson, models.RelationPersonAtScene)
	}

	for _, itemSeed := range seed.Items {
		item, err := l.createItem(ctx, seed, itemSeed)
		if err != nil {
			return nil, err
		}
		content.Contain(models.ItemRelation(&item))
	}

	for _, prop := range seed.Props {
		scene.Props = append(scene.Props, models.PropFromSeed(prop))
	}
	for _, exitSeed := range seed.Exits {
		scene.Exits = append(scene.Exits, models.ExitFromSeed(exitSeed))
	}
	for _, exit := range scene.Exits {
		stub := models.StubFromExit(exit)
		content.Contain(models.StubRelation(&stub))
	}
	return content, nil
}
