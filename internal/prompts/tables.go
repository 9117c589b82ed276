package prompts

import (
	"strings"
	"unicode/utf8"

	"narrative-engine/internal/models"
)

const (
	unknownKey = "unknown"
	noKey      = "n/a"
)

// markdownTable рисует таблицу в markdown с выровненными колонками.
func markdownTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if n := utf8.RuneCountInString(cell); n > widths[i] {
				widths[i] = n
			}
		}
	}

	var b strings.Builder
	writeRow := func(cells []string) {
		b.WriteString("|")
		for i, cell := range cells {
			b.WriteString(" ")
			b.WriteString(cell)
			b.WriteString(strings.Repeat(" ", widths[i]-utf8.RuneCountInString(cell)))
			b.WriteString(" |")
		}
		b.WriteString("\n")
	}

	writeRow(headers)
	b.WriteString("|")
	for _, w := range widths {
		b.WriteString(strings.Repeat("-", w+2))
		b.WriteString("|")
	}
	b.WriteString("\n")
	for _, row := range rows {
		writeRow(row)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func keyOrUnknown(key string) string {
	if key == "" {
		return unknownKey
	}
	return key
}

// entityTable — люди, предметы и пропы сцены с их ключами.
func entityTable(stage models.Stage) string {
	var rows [][]string
	for _, p := range stage.People {
		rows = append(rows, []string{p.Name, string(models.EntityPerson), keyOrUnknown(p.Key)})
	}
	for _, i := range stage.Items {
		rows = append(rows, []string{i.Name, string(models.EntityItem), keyOrUnknown(i.Key)})
	}
	for _, p := range stage.Scene.Props {
		rows = append(rows, []string{p.Name, "prop", noKey})
	}
	return markdownTable([]string{"name", "type", "key"}, rows)
}

// exitTable — выходы сцены с ключами целевых сцен.
func exitTable(exits []models.Exit) string {
	rows := make([][]string, 0, len(exits))
	for _, e := range exits {
		rows = append(rows, []string{e.Name, e.Direction, e.SceneKey, e.Region})
	}
	return markdownTable([]string{"name", "direction", "scene_key", "region"}, rows)
}

// stageInfo — блок с описанием сцены для промпта исполнения.
func stageInfo(stage models.Stage) string {
	var b strings.Builder
	b.WriteString("**Scene Information:**\n")
	b.WriteString(" - Key: `" + stage.Key + "`\n")
	b.WriteString(" - Name: " + stage.Scene.Name + "\n")
	b.WriteString(" - Location: " + stage.Scene.Region + "\n\n")

	b.WriteString("**Entities:**\n\n")
	b.WriteString(entityTable(stage))
	b.WriteString("\n\n")

	b.WriteString("**Exits:**\n\n")
	b.WriteString(exitTable(stage.Scene.Exits))
	b.WriteString("\n\n")

	b.WriteString("**Scene Description:** ")
	b.WriteString(stage.Scene.Description)
	return b.String()
}
