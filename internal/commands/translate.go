package commands

import (
	"strings"

	"narrative-engine/internal/models"
)

var shortcuts = map[string]string{
	"n":    "north",
	"s":    "south",
	"e":    "east",
	"w":    "west",
	"nw":   "northwest",
	"ne":   "northeast",
	"sw":   "southwest",
	"se":   "southeast",
	"up":   "up",
	"down": "down",
	"in":   "in",
	"out":  "out",
	"back": "back",
	"from": "from",
}

// Translate разворачивает короткие команды перемещения в команду, которую
// модель понимает без разбора.
func Translate(input string) (models.Commands, bool) {
	direction, ok := shortcuts[strings.ToLower(strings.TrimSpace(input))]
	if !ok {
		return models.Commands{}, false
	}
	return models.Commands{
		Commands: []models.Command{{Verb: "go", Target: direction, Location: "direction"}},
		Count:    1,
	}, true
}
