package repository

import (
	"context"
	"fmt"

	"narrative-engine/internal/commands"
	"narrative-engine/internal/models"
	"narrative-engine/internal/state"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// DBTX — общий интерфейс пула и транзакции.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var (
	_ commands.WorldChecker = (*WorldStore)(nil)
	_ state.World           = (*WorldStore)(nil)
)

// WorldStore хранит граф мира в PostgreSQL: сцены, людей, предметы и
// направленные связи между ними.
type WorldStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewWorldStore(pool *pgxpool.Pool, logger *zap.Logger) *WorldStore {
	return &WorldStore{pool: pool, logger: logger.Named("PgWorldStore")}
}

const (
	sceneExistsQuery = `SELECT EXISTS (SELECT 1 FROM scenes WHERE key = $1)`

	entityExistsQuery = `
SELECT EXISTS (SELECT 1 FROM people WHERE key = $1)
    OR EXISTS (SELECT 1 FROM items WHERE key = $1)`

	entityInSceneQuery = `
SELECT EXISTS (
    SELECT 1 FROM world_edges
    WHERE from_key = $1 AND to_key = $2 AND relation = ANY($3)
)`

	getSceneQuery = `
SELECT key, name, region, description, is_stub, props, exits
FROM scenes
WHERE key = $1`

	scenePeopleQuery = `
SELECT p.key, p.name, p.description, p.age, p.residence, p.current_activity,
       p.occupation, p.race, p.sex, p.gender
FROM people p
JOIN world_edges e ON e.to_key = p.key
WHERE e.from_key = $1 AND e.relation = $2
ORDER BY p.created_at, p.key`

	sceneItemsQuery = `
SELECT i.key, i.name, i.description, i.category, i.rarity, i.attributes, i.secret_attributes
FROM items i
JOIN world_edges e ON e.to_key = i.key
WHERE e.from_key = $1 AND e.relation = $2
ORDER BY i.created_at, i.key`

	connectedScenesQuery = `
SELECT to_key FROM world_edges
WHERE from_key = $1 AND relation = $2`

	getPersonInSceneQuery = `
SELECT p.key, p.name, p.description, p.age, p.residence, p.current_activity,
       p.occupation, p.race, p.sex, p.gender
FROM people p
JOIN world_edges e ON e.to_key = p.key
WHERE e.from_key = $1 AND p.key = $2 AND e.relation = $3`

	getItemInSceneQuery = `
SELECT i.key, i.name, i.description, i.category, i.rarity, i.attributes, i.secret_attributes
FROM items i
JOIN world_edges e ON e.to_key = i.key
WHERE e.from_key = $1 AND i.key = $2 AND e.relation = $3`

	upsertSceneQuery = `
INSERT INTO scenes (key, name, region, description, is_stub, props, exits)
VALUES ($1, $2, $3, $4, FALSE, $5, $6)
ON CONFLICT (key) DO UPDATE SET
    name = EXCLUDED.name,
    region = EXCLUDED.region,
    description = EXCLUDED.description,
    is_stub = FALSE,
    props = EXCLUDED.props,
    exits = EXCLUDED.exits,
    updated_at = NOW()`

	insertStubQuery = `
INSERT INTO scenes (key, name, region, is_stub)
VALUES ($1, $2, $3, TRUE)
ON CONFLICT (key) DO NOTHING`

	insertPersonQuery = `
INSERT INTO people (key, name, description, age, residence, current_activity, occupation, race, sex, gender)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (key) DO NOTHING`

	insertItemQuery = `
INSERT INTO items (key, name, description, category, rarity, attributes, secret_attributes)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (key) DO NOTHING`

	insertEdgeQuery = `
INSERT INTO world_edges (from_key, to_key, relation)
VALUES ($1, $2, $3)
ON CONFLICT DO NOTHING`
)

var sceneEntityRelations = []string{models.RelationSceneHasPerson, models.RelationItemLocatedAt}

// StageExists сообщает, есть ли сцена или заглушка с таким ключом.
func (s *WorldStore) StageExists(ctx context.Context, sceneKey string) (bool, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx, sceneExistsQuery, sceneKey).Scan(&exists); err != nil {
		s.logger.Error("Failed to check scene existence", zap.String("scene", sceneKey), zap.Error(err))
		return false, fmt.Errorf("check scene %s: %w", sceneKey, err)
	}
	return exists, nil
}

// EntityExists сообщает, есть ли человек или предмет в сцене. Пустой ключ
// сцены проверяет только существование сущности.
func (s *WorldStore) EntityExists(ctx context.Context, sceneKey, entityKey string) (bool, error) {
	var (
		exists bool
		err    error
	)
	if sceneKey == "" {
		err = s.pool.QueryRow(ctx, entityExistsQuery, entityKey).Scan(&exists)
	} else {
		err = s.pool.QueryRow(ctx, entityInSceneQuery, sceneKey, entityKey, sceneEntityRelations).Scan(&exists)
	}
	if err != nil {
		s.logger.Error("Failed to check entity existence",
			zap.String("scene", sceneKey),
			zap.String("entity", entityKey),
			zap.Error(err),
		)
		return false, fmt.Errorf("check entity %s: %w", entityKey, err)
	}
	return exists, nil
}

// LoadStage загружает сцену с людьми и предметами либо заглушку. В выходах
// остаются только те, чья целевая сцена связана с этой.
func (s *WorldStore) LoadStage(ctx context.Context, key string) (models.StageOrStub, error) {
	var scene models.Scene
	if err := pgxscan.Get(ctx, s.pool, &scene, getSceneQuery, key); err != nil {
		if pgxscan.NotFound(err) {
			return models.StageOrStub{}, models.ErrStageNotFound
		}
		s.logger.Error("Failed to load scene", zap.String("scene", key), zap.Error(err))
		return models.StageOrStub{}, fmt.Errorf("load scene %s: %w", key, err)
	}

	if scene.IsStub {
		return models.StageOrStub{Stub: &models.SceneStub{
			Key:    scene.Key,
			Name:   scene.Name,
			Region: scene.Region,
			IsStub: true,
		}}, nil
	}

	var people []models.Person
	if err := pgxscan.Select(ctx, s.pool, &people, scenePeopleQuery, key, models.RelationSceneHasPerson); err != nil {
		return models.StageOrStub{}, fmt.Errorf("load people of %s: %w", key, err)
	}
	var items []models.Item
	if err := pgxscan.Select(ctx, s.pool, &items, sceneItemsQuery, key, models.RelationItemLocatedAt); err != nil {
		return models.StageOrStub{}, fmt.Errorf("load items of %s: %w", key, err)
	}
	var connected []string
	if err := pgxscan.Select(ctx, s.pool, &connected, connectedScenesQuery, key, models.RelationConnectsTo); err != nil {
		return models.StageOrStub{}, fmt.Errorf("load connections of %s: %w", key, err)
	}

	scene.Exits = connectedExits(scene.Exits, connected)
	return models.StageOrStub{Stage: &models.Stage{
		ID:     scene.ID(),
		Key:    scene.Key,
		Scene:  scene,
		People: people,
		Items:  items,
	}}, nil
}

func connectedExits(exits []models.Exit, connected []string) []models.Exit {
	linked := make(map[string]bool, len(connected))
	for _, key := range connected {
		linked[key] = true
	}

	kept := make([]models.Exit, 0, len(exits))
	for _, exit := range exits {
		if linked[exit.SceneKey] {
			exit.SceneID = models.SceneID(exit.SceneKey)
			kept = append(kept, exit)
		}
	}
	return kept
}

// LoadEntity ищет человека, затем предмет в указанной сцене.
func (s *WorldStore) LoadEntity(ctx context.Context, sceneKey, entityKey string) (models.Entity, error) {
	var person models.Person
	err := pgxscan.Get(ctx, s.pool, &person, getPersonInSceneQuery, sceneKey, entityKey, models.RelationSceneHasPerson)
	if err == nil {
		return models.Entity{Type: models.EntityPerson, Person: &person}, nil
	}
	if !pgxscan.NotFound(err) {
		return models.Entity{}, fmt.Errorf("load person %s: %w", entityKey, err)
	}

	var item models.Item
	err = pgxscan.Get(ctx, s.pool, &item, getItemInSceneQuery, sceneKey, entityKey, models.RelationItemLocatedAt)
	if err == nil {
		return models.Entity{Type: models.EntityItem, Item: &item}, nil
	}
	if pgxscan.NotFound(err) {
		return models.Entity{}, models.ErrEntityNotFound
	}
	return models.Entity{}, fmt.Errorf("load item %s: %w", entityKey, err)
}

// StoreContent сохраняет владельца, всё вложенное и связи одной транзакцией.
// Существующие сцены не перезаписываются заглушками.
func (s *WorldStore) StoreContent(ctx context.Context, content *models.ContentContainer) error {
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return storeContainer(ctx, tx, content)
	})
	if err != nil {
		s.logger.Error("Failed to store content", zap.String("owner", content.Owner.ContentKey()), zap.Error(err))
		return fmt.Errorf("store content %s: %w", content.Owner.ContentKey(), err)
	}
	s.logger.Info("Content stored",
		zap.String("owner", content.Owner.ContentKey()),
		zap.Int("contained", len(content.Contained)),
	)
	return nil
}

func storeContainer(ctx context.Context, db DBTX, content *models.ContentContainer) error {
	if err := storeEntity(ctx, db, content.Owner); err != nil {
		return err
	}

	ownerKey := content.Owner.ContentKey()
	for i := range content.Contained {
		nested := &content.Contained[i]
		if err := storeContainer(ctx, db, &nested.Container); err != nil {
			return err
		}
		nestedKey := nested.Container.Owner.ContentKey()
		if _, err := db.Exec(ctx, insertEdgeQuery, ownerKey, nestedKey, nested.Outbound); err != nil {
			return fmt.Errorf("insert edge %s -> %s: %w", ownerKey, nestedKey, err)
		}
		if _, err := db.Exec(ctx, insertEdgeQuery, nestedKey, ownerKey, nested.Inbound); err != nil {
			return fmt.Errorf("insert edge %s -> %s: %w", nestedKey, ownerKey, err)
		}
	}
	return nil
}

func storeEntity(ctx context.Context, db DBTX, content models.Content) error {
	var err error
	switch c := content.(type) {
	case *models.Scene:
		props, exits := c.Props, c.Exits
		if props == nil {
			props = []models.Prop{}
		}
		if exits == nil {
			exits = []models.Exit{}
		}
		_, err = db.Exec(ctx, upsertSceneQuery, c.Key, c.Name, c.Region, c.Description, props, exits)
	case *models.SceneStub:
		_, err = db.Exec(ctx, insertStubQuery, c.Key, c.Name, c.Region)
	case *models.Person:
		_, err = db.Exec(ctx, insertPersonQuery,
			c.Key, c.Name, c.Description, int32(c.Age), c.Residence, c.CurrentActivity,
			c.Occupation, c.Race, string(c.Sex), string(c.Gender),
		)
	case *models.Item:
		attrs, secret := c.Attributes, c.SecretAttributes
		if attrs == nil {
			attrs = []string{}
		}
		if secret == nil {
			secret = []string{}
		}
		_, err = db.Exec(ctx, insertItemQuery,
			c.Key, c.Name, c.Description, string(c.Category), string(c.Rarity), attrs, secret,
		)
	default:
		return fmt.Errorf("unsupported content type %T", content)
	}
	if err != nil {
		return fmt.Errorf("store %s: %w", content.ContentKey(), err)
	}
	return nil
}
