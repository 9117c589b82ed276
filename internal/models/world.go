package models

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// RootSceneKey — зарезервированный ключ стартовой сцены мира.
const RootSceneKey = "__root_scene__"

// Префиксы идентификаторов сущностей в хранилище: id = "<коллекция>/<ключ>".
const (
	ScenesCollection = "scenes"
	PeopleCollection = "people"
	ItemsCollection  = "items"
)

// NewKey выдаёт новый ключ сущности (UUID v7, канонический вид с дефисами).
func NewKey() string {
	return uuid.Must(uuid.NewV7()).String()
}

// SceneID строит полный идентификатор сцены по её ключу.
func SceneID(key string) string {
	return ScenesCollection + "/" + key
}

// Scene — сгенерированная локация. Заглушки (IsStub) хранятся в той же
// таблице и превращаются в полноценные сцены при первом посещении.
type Scene struct {
	Key         string `json:"key" db:"key"`
	Name        string `json:"name" db:"name"`
	Region      string `json:"region" db:"region"`
	Description string `json:"description" db:"description"`
	IsStub      bool   `json:"isStub" db:"is_stub"`
	Props       []Prop `json:"props"`
	Exits       []Exit `json:"exits"`
}

// NewScene возвращает пустую сцену с новым ключом.
func NewScene() Scene {
	return Scene{Key: NewKey()}
}

// ID возвращает полный идентификатор сцены.
func (s Scene) ID() string { return SceneID(s.Key) }

// SceneStub — запись о ещё не сгенерированной сцене, куда ведёт выход.
type SceneStub struct {
	Key    string `json:"key" db:"key"`
	Name   string `json:"name" db:"name"`
	Region string `json:"region" db:"region"`
	IsStub bool   `json:"isStub" db:"is_stub"`
}

// StubFromExit строит заглушку по выходу: ключ заглушки равен scene_key выхода.
func StubFromExit(exit Exit) SceneStub {
	return SceneStub{
		Key:    exit.SceneKey,
		Name:   exit.Name,
		Region: exit.Region,
		IsStub: true,
	}
}

// ID возвращает полный идентификатор заглушки.
func (s SceneStub) ID() string { return SceneID(s.Key) }

// Exit — переход из сцены в соседнюю. SceneID заполняется хранилищем.
type Exit struct {
	Name      string `json:"name"`
	Region    string `json:"region"`
	Direction string `json:"direction"`
	SceneKey  string `json:"scene_key"`
	SceneID   string `json:"scene_id,omitempty"`
}

// ExitFromSeed создаёт выход с новым ключом целевой сцены.
func ExitFromSeed(seed ExitSeed) Exit {
	return Exit{
		Name:      seed.Name,
		Region:    seed.Region,
		Direction: seed.Direction,
		SceneKey:  NewKey(),
	}
}

// ExitToScene строит выход, ведущий в уже существующую сцену.
func ExitToScene(scene Scene, direction string) Exit {
	return Exit{
		Name:      scene.Name,
		Region:    scene.Region,
		Direction: direction,
		SceneKey:  scene.Key,
		SceneID:   scene.ID(),
	}
}

func (e Exit) String() string {
	return fmt.Sprintf(" - %s (%s)", e.Name, e.Direction)
}

// Prop — неинтерактивная деталь сцены, хранится внутри документа сцены.
type Prop struct {
	Name                 string   `json:"name"`
	Description          string   `json:"description"`
	Features             []string `json:"features"`
	PossibleInteractions []string `json:"possible_interactions"`
}

// PropFromSeed переносит описание пропа из сида.
func PropFromSeed(seed PropSeed) Prop {
	return Prop{
		Name:                 seed.Name,
		Description:          seed.Description,
		Features:             seed.Features,
		PossibleInteractions: seed.PossibleInteractions,
	}
}

// Stage — сцена вместе с людьми и предметами в ней.
type Stage struct {
	ID     string   `json:"id"`
	Key    string   `json:"key"`
	Scene  Scene    `json:"scene"`
	People []Person `json:"people"`
	Items  []Item   `json:"items"`
}

// Display рендерит сцену в текст для игрока.
func (s Stage) Display() string {
	var b strings.Builder
	b.WriteString(s.Scene.Name)
	b.WriteString("\n\n")
	b.WriteString(s.Scene.Description)
	b.WriteString("\n\n")

	for _, p := range s.People {
		fmt.Fprintf(&b, "%s (%s %s) is here.\n", p.Name, p.Race, p.Occupation)
	}
	for _, i := range s.Items {
		fmt.Fprintf(&b, "A %s is here.\n", i.Name)
	}
	for _, p := range s.Scene.Props {
		fmt.Fprintf(&b, "A %s is here.\n", strings.ToLower(p.Name))
	}

	if len(s.Scene.Exits) == 0 {
		b.WriteString("\n\nExits: seemingly none...")
		return b.String()
	}

	exits := make([]string, 0, len(s.Scene.Exits))
	for _, e := range s.Scene.Exits {
		exits = append(exits, e.String())
	}
	b.WriteString("\n\nExits:\n")
	b.WriteString(strings.Join(exits, "\n"))
	return b.String()
}

// StageOrStub — результат загрузки сцены: либо полноценная сцена, либо
// заглушка, которую ещё предстоит сгенерировать. Ровно одно поле не nil.
type StageOrStub struct {
	Stage *Stage
	Stub  *SceneStub
}

// IsStub сообщает, что загружена заглушка.
func (s StageOrStub) IsStub() bool { return s.Stub != nil }

// Sex — биологический пол персонажа.
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

// Gender — гендер персонажа.
type Gender string

const (
	GenderMale      Gender = "male"
	GenderFemale    Gender = "female"
	GenderNonBinary Gender = "non_binary"
)

// Display — человекочитаемое название гендера.
func (g Gender) Display() string {
	switch g {
	case GenderFemale:
		return "woman"
	case GenderNonBinary:
		return "nonbinary"
	default:
		return "man"
	}
}

// Person — персонаж мира.
type Person struct {
	Key             string `json:"key" db:"key"`
	Name            string `json:"name" db:"name"`
	Description     string `json:"description" db:"description"`
	Age             uint32 `json:"age" db:"age"`
	Residence       string `json:"residence" db:"residence"`
	CurrentActivity string `json:"current_activity" db:"current_activity"`
	Occupation      string `json:"occupation" db:"occupation"`
	Race            string `json:"race" db:"race"`
	Sex             Sex    `json:"sex" db:"sex"`
	Gender          Gender `json:"gender" db:"gender"`
}

// Category — категория предмета.
type Category string

const (
	CategoryWeapon    Category = "weapon"
	CategoryArmor     Category = "armor"
	CategoryAccessory Category = "accessory"
	CategoryOther     Category = "other"
)

// Rarity — редкость предмета.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityMythic    Rarity = "mythic"
	RarityLegendary Rarity = "legendary"
)

// Item — предмет мира.
type Item struct {
	Key              string   `json:"key" db:"key"`
	Name             string   `json:"name" db:"name"`
	Description      string   `json:"description" db:"description"`
	Category         Category `json:"category" db:"category"`
	Rarity           Rarity   `json:"rarity" db:"rarity"`
	Attributes       []string `json:"attributes" db:"attributes"`
	SecretAttributes []string `json:"secret_attributes" db:"secret_attributes"`
}
