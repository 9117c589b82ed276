// Package coherence проверяет сгенерированные сцены на структурные дефекты
// выходов и чинит их.
package coherence

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"narrative-engine/internal/models"

	"go.uber.org/zap"
)

var (
	ErrNotAScene  = errors.New("content owner is not a scene")
	ErrInvalidFix = errors.New("scene fix refers to a missing exit")
)

var directionWords = []string{
	"north", "south", "east", "west",
	"northeast", "northwest", "southeast", "southwest",
	"up", "down", "in", "out",
	"to", "from", "back",
}

const (
	weirdNameMarker  = "connected scene"
	defaultFromDir   = "from"
	defaultReverse   = "back"
	failureInvalid   = "invalid_exit_name"
	failureDuplicate = "duplicate_exits"
)

var reverse = map[string]string{
	"north":     "south",
	"south":     "north",
	"east":      "west",
	"west":      "east",
	"northwest": "southeast",
	"northeast": "southwest",
	"southeast": "northwest",
	"southwest": "northeast",
	"up":        "down",
	"down":      "up",
	"in":        "out",
	"out":       "in",
}

// ReverseDirection возвращает противоположное направление. Для всего, что
// не имеет пары, ответ "back".
func ReverseDirection(direction string) string {
	if r, ok := reverse[strings.ToLower(direction)]; ok {
		return r
	}
	return defaultReverse
}

func isDirection(name string) bool {
	return slices.Contains(directionWords, strings.ToLower(name))
}

// isWeirdExitName ловит артефакты промпта, которые модель иногда
// копирует в имя выхода.
func isWeirdExitName(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, weirdNameMarker) || lower == models.RootSceneKey
}

// CheckScene находит дефекты выходов сцены. Функция чистая: сцена не
// меняется. Каждая группа дубликатов сообщается один раз.
func CheckScene(scene models.Scene) []models.CoherenceFailure {
	var failures []models.CoherenceFailure
	reported := make(map[string]bool)

	for i, exit := range scene.Exits {
		if isDirection(exit.Name) || isWeirdExitName(exit.Name) || exit.Name == scene.Name {
			failures = append(failures, models.InvalidExitName{Index: i, Exit: exit})
		}

		if reported[exit.Name] {
			continue
		}
		dup := models.DuplicateExits{Name: exit.Name}
		for j, other := range scene.Exits {
			if other.Name == exit.Name {
				dup.Indices = append(dup.Indices, j)
				dup.Exits = append(dup.Exits, other)
			}
		}
		if len(dup.Indices) > 1 {
			reported[exit.Name] = true
			failures = append(failures, dup)
		}
	}
	return failures
}

// ExitFixer подбирает правки для дефектов сцены.
type ExitFixer interface {
	FixScene(ctx context.Context, scene models.Scene, failures []models.CoherenceFailure) ([]models.SceneFix, error)
}

// Engine применяет правки к контейнеру сцены.
type Engine struct {
	fixer  ExitFixer
	logger *zap.Logger
}

func New(fixer ExitFixer, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{fixer: fixer, logger: logger.Named("CoherenceEngine")}
}

// MakeSceneCoherent проверяет сцену-владельца контейнера и применяет правки.
// Замена выхода получает новый ключ и новую заглушку вместо старой.
// Удаления применяются в конце, чтобы индексы замен оставались верными.
func (e *Engine) MakeSceneCoherent(ctx context.Context, content *models.ContentContainer) error {
	scene := content.Scene()
	if scene == nil {
		return ErrNotAScene
	}

	failures := CheckScene(*scene)
	if len(failures) == 0 {
		return nil
	}
	recordFailures(failures)
	e.logger.Info("Scene has incoherent exits", zap.String("scene", scene.Key), zap.Int("failures", len(failures)))

	fixes, err := e.fixer.FixScene(ctx, *scene, failures)
	if err != nil {
		return fmt.Errorf("fix scene %s: %w", scene.Key, err)
	}

	deletes := make(map[int]bool)
	for _, fix := range fixes {
		switch f := fix.(type) {
		case models.FixedExit:
			if f.Index < 0 || f.Index >= len(scene.Exits) {
				return fmt.Errorf("%w: index %d", ErrInvalidFix, f.Index)
			}
			content.RemoveStub(scene.Exits[f.Index].SceneKey)
			fixed := models.ExitFromSeed(f.New)
			scene.Exits[f.Index] = fixed
			stub := models.StubFromExit(fixed)
			content.Contain(models.StubRelation(&stub))
			fixesApplied.WithLabelValues("fixed_exit").Inc()
		case models.DeleteExit:
			if f.Index < 0 || f.Index >= len(scene.Exits) {
				return fmt.Errorf("%w: index %d", ErrInvalidFix, f.Index)
			}
			deletes[f.Index] = true
		}
	}

	if len(deletes) > 0 {
		removeExits(content, scene, deletes)
		fixesApplied.WithLabelValues("delete_exit").Add(float64(len(deletes)))
	}
	return nil
}

// removeExits удаляет выходы по индексам и заглушки, на которые больше не
// ссылается ни один оставшийся выход.
func removeExits(content *models.ContentContainer, scene *models.Scene, deletes map[int]bool) {
	kept := make([]models.Exit, 0, len(scene.Exits))
	var removed []models.Exit
	for i, exit := range scene.Exits {
		if deletes[i] {
			removed = append(removed, exit)
			continue
		}
		kept = append(kept, exit)
	}
	scene.Exits = kept

	for _, exit := range removed {
		if !slices.ContainsFunc(kept, func(k models.Exit) bool { return k.SceneKey == exit.SceneKey }) {
			content.RemoveStub(exit.SceneKey)
		}
	}
}

// MakeSceneFromStubCoherent связывает новую сцену с соседней, из которой
// пришёл игрок: выходы, конфликтующие с обратной дорогой, удаляются вместе
// с их заглушками, и добавляется выход назад в обратном направлении.
func (e *Engine) MakeSceneFromStubCoherent(content *models.ContentContainer, connected models.Scene) error {
	scene := content.Scene()
	if scene == nil {
		return ErrNotAScene
	}

	directionFrom := defaultFromDir
	for _, exit := range connected.Exits {
		if exit.SceneKey == scene.Key {
			directionFrom = exit.Direction
			break
		}
	}
	back := ReverseDirection(directionFrom)

	conflicts := func(exit models.Exit) bool {
		return strings.EqualFold(exit.Direction, back) ||
			exit.SceneKey == connected.Key ||
			exit.SceneID == connected.ID() ||
			strings.EqualFold(exit.Name, connected.Name) ||
			exit.Name == connected.Key ||
			exit.Name == connected.ID()
	}

	deletes := make(map[int]bool)
	for i, exit := range scene.Exits {
		if conflicts(exit) {
			deletes[i] = true
		}
	}
	if len(deletes) > 0 {
		e.logger.Debug("Removing exits that conflict with the way back",
			zap.String("scene", scene.Key),
			zap.Ints("indices", sortedKeys(deletes)),
		)
		removeExits(content, scene, deletes)
	}

	scene.Exits = append(scene.Exits, models.ExitToScene(connected, back))
	return nil
}

func sortedKeys(m map[int]bool) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
