//go:build integration

package repository_test

import (
	"context"
	"testing"
	"time"

	"narrative-engine/internal/models"
	"narrative-engine/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

type RepositorySuite struct {
	suite.Suite
	pgContainer    *postgres.PostgresContainer
	redisContainer *tcredis.RedisContainer
	pool           *pgxpool.Pool
	redisClient    *redis.Client
	store          *repository.WorldStore
	cache          *repository.RedisCommandCache
}

func (s *RepositorySuite) SetupSuite() {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("narrative-test"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(5*time.Minute),
		),
	)
	s.Require().NoError(err)
	s.pgContainer = pgContainer

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)
	s.pool, err = pgxpool.New(ctx, dsn)
	s.Require().NoError(err)
	s.Require().NoError(repository.Migrate(s.pool, zap.NewNop()))

	redisContainer, err := tcredis.Run(ctx, "redis:7-alpine")
	s.Require().NoError(err)
	s.redisContainer = redisContainer

	redisURL, err := redisContainer.ConnectionString(ctx)
	s.Require().NoError(err)
	opts, err := redis.ParseURL(redisURL)
	s.Require().NoError(err)
	s.redisClient = redis.NewClient(opts)

	s.store = repository.NewWorldStore(s.pool, zap.NewNop())
	s.cache = repository.NewRedisCommandCache(s.redisClient, time.Minute, zap.NewNop())
}

func (s *RepositorySuite) TearDownSuite() {
	ctx := context.Background()
	if s.redisClient != nil {
		_ = s.redisClient.Close()
	}
	if s.pool != nil {
		s.pool.Close()
	}
	if s.redisContainer != nil {
		_ = s.redisContainer.Terminate(ctx)
	}
	if s.pgContainer != nil {
		_ = s.pgContainer.Terminate(ctx)
	}
}

func (s *RepositorySuite) SetupTest() {
	_, err := s.pool.Exec(context.Background(), `TRUNCATE scenes, people, items, world_edges`)
	s.Require().NoError(err)
}

// tavern — сцена с человеком (у которого есть предмет), предметом и одним
// выходом в заглушку.
func tavern() *models.ContentContainer {
	scene := &models.Scene{
		Key:         models.RootSceneKey,
		Name:        "Tavern",
		Region:      "Bree",
		Description: "Smoky.",
		Props:       []models.Prop{{Name: "Hearth", Features: []string{"warm"}}},
		Exits: []models.Exit{
			{Name: "Cellar", Direction: "down", SceneKey: "cellar", Region: "Bree"},
		},
	}
	content := &models.ContentContainer{Owner: scene}

	person := models.ContentContainer{Owner: &models.Person{
		Key: "p1", Name: "Barliman", Description: "Stout.", Age: 52,
		Sex: models.SexMale, Gender: models.GenderMale,
	}}
	person.Contain(models.ContentRelation{
		Content:  &models.Item{Key: "ledger", Name: "Ledger", Category: models.CategoryOther, Rarity: models.RarityCommon},
		Outbound: models.RelationItemPossessedBy,
		Inbound:  models.RelationItemPossessedBy,
	})
	content.ContainNested(person, models.RelationSceneHasPerson, models.RelationPersonAtScene)

	content.Contain(models.ItemRelation(&models.Item{
		Key: "mug", Name: "Mug", Description: "Chipped.", Category: models.CategoryOther, Rarity: models.RarityCommon,
		Attributes: []string{"ceramic"},
	}))
	stub := models.StubFromExit(scene.Exits[0])
	content.Contain(models.StubRelation(&stub))
	return content
}

func (s *RepositorySuite) TestStoreAndLoadStage() {
	ctx := context.Background()
	s.Require().NoError(s.store.StoreContent(ctx, tavern()))

	loaded, err := s.store.LoadStage(ctx, models.RootSceneKey)
	s.Require().NoError(err)
	s.Require().False(loaded.IsStub())

	stage := loaded.Stage
	s.Equal("scenes/__root_scene__", stage.ID)
	s.Equal("Tavern", stage.Scene.Name)
	s.Require().Len(stage.Scene.Props, 1)
	s.Equal([]string{"warm"}, stage.Scene.Props[0].Features)
	s.Require().Len(stage.People, 1)
	s.Equal(uint32(52), stage.People[0].Age)
	s.Equal(models.GenderMale, stage.People[0].Gender)
	s.Require().Len(stage.Items, 1)
	s.Equal("Mug", stage.Items[0].Name)
	s.Equal([]string{"ceramic"}, stage.Items[0].Attributes)
	s.Require().Len(stage.Scene.Exits, 1)
	s.Equal("scenes/cellar", stage.Scene.Exits[0].SceneID)

	cellar, err := s.store.LoadStage(ctx, "cellar")
	s.Require().NoError(err)
	s.Require().True(cellar.IsStub())
	s.Equal("Cellar", cellar.Stub.Name)

	_, err = s.store.LoadStage(ctx, "missing")
	s.ErrorIs(err, models.ErrStageNotFound)
}

func (s *RepositorySuite) TestStubIsReplacedByScene() {
	ctx := context.Background()
	s.Require().NoError(s.store.StoreContent(ctx, tavern()))

	cellar := &models.Scene{
		Key:  "cellar",
		Name: "Cellar",
		Exits: []models.Exit{
			models.ExitToScene(models.Scene{Key: models.RootSceneKey, Name: "Tavern"}, "up"),
		},
	}
	s.Require().NoError(s.store.StoreContent(ctx, &models.ContentContainer{Owner: cellar}))

	loaded, err := s.store.LoadStage(ctx, "cellar")
	s.Require().NoError(err)
	s.Require().False(loaded.IsStub())
	s.Require().Len(loaded.Stage.Scene.Exits, 1)
	s.Equal(models.RootSceneKey, loaded.Stage.Scene.Exits[0].SceneKey)

	// повторная запись заглушки не затирает готовую сцену
	stub := models.SceneStub{Key: "cellar", Name: "Cellar", IsStub: true}
	s.Require().NoError(s.store.StoreContent(ctx, &models.ContentContainer{Owner: &stub}))
	loaded, err = s.store.LoadStage(ctx, "cellar")
	s.Require().NoError(err)
	s.False(loaded.IsStub())
}

func (s *RepositorySuite) TestExistenceChecks() {
	ctx := context.Background()
	s.Require().NoError(s.store.StoreContent(ctx, tavern()))

	exists, err := s.store.StageExists(ctx, "cellar")
	s.Require().NoError(err)
	s.True(exists)

	exists, err = s.store.StageExists(ctx, "attic")
	s.Require().NoError(err)
	s.False(exists)

	exists, err = s.store.EntityExists(ctx, models.RootSceneKey, "p1")
	s.Require().NoError(err)
	s.True(exists)

	exists, err = s.store.EntityExists(ctx, models.RootSceneKey, "ledger")
	s.Require().NoError(err)
	s.False(exists, "the ledger is held by a person, not lying in the scene")

	exists, err = s.store.EntityExists(ctx, "", "ledger")
	s.Require().NoError(err)
	s.True(exists)
}

func (s *RepositorySuite) TestLoadEntity() {
	ctx := context.Background()
	s.Require().NoError(s.store.StoreContent(ctx, tavern()))

	entity, err := s.store.LoadEntity(ctx, models.RootSceneKey, "p1")
	s.Require().NoError(err)
	s.Equal(models.EntityPerson, entity.Type)
	s.Equal("Barliman", entity.Name())

	entity, err = s.store.LoadEntity(ctx, models.RootSceneKey, "mug")
	s.Require().NoError(err)
	s.Equal(models.EntityItem, entity.Type)

	_, err = s.store.LoadEntity(ctx, models.RootSceneKey, "ghost")
	s.ErrorIs(err, models.ErrEntityNotFound)
}

func (s *RepositorySuite) TestCommandCache() {
	ctx := context.Background()
	cmds := models.Commands{Commands: []models.Command{{Verb: "go", Target: "north", Location: "direction"}}, Count: 1}

	miss, err := s.cache.Load(ctx, "go north", "s1")
	s.Require().NoError(err)
	s.Nil(miss)

	s.Require().NoError(s.cache.Store(ctx, "go north", "s1", cmds))

	hit, err := s.cache.Load(ctx, "go north", "s1")
	s.Require().NoError(err)
	s.Require().NotNil(hit)
	s.Equal(cmds, hit.Commands)

	other, err := s.cache.Load(ctx, "go north", "s2")
	s.Require().NoError(err)
	s.Nil(other)
}

func TestRepositorySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("integration suite needs docker")
	}
	suite.Run(t, new(RepositorySuite))
}
