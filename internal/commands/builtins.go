package commands

import (
	"strings"

	"narrative-engine/internal/models"
)

// Builtin — команда, которая исполняется без модели.
type Builtin string

const (
	NoBuiltin   Builtin = ""
	LookAtScene Builtin = "look_at_scene"
)

// CheckBuiltin распознаёт встроенную команду. Сцена пока не участвует в
// решении, но передаётся для команд, зависящих от окружения.
func CheckBuiltin(_ models.Stage, input string) (Builtin, bool) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "look":
		return LookAtScene, true
	default:
		return NoBuiltin, false
	}
}
