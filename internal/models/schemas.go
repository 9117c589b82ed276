package models

import (
	"sort"

	"narrative-engine/internal/grammar"
)

// Схемы типов, которые генерирует модель. Регистрируются один раз при
// инициализации пакета; грамматики компилируются тогда же.
var (
	ItemSeedSchema = grammar.NewType("ItemSeed",
		grammar.F("name", grammar.Primitive(grammar.String)),
		grammar.F("category", grammar.Primitive(grammar.String)),
		grammar.F("rarity", grammar.Primitive(grammar.String)),
	)

	PersonSeedSchema = grammar.NewType("PersonSeed",
		grammar.F("name", grammar.Primitive(grammar.String)),
		grammar.F("occupation", grammar.Primitive(grammar.String)),
		grammar.F("race", grammar.Primitive(grammar.String)),
	)

	PropSeedSchema = grammar.NewType("PropSeed",
		grammar.F("name", grammar.Primitive(grammar.String)),
		grammar.F("description", grammar.Primitive(grammar.String)),
		grammar.F("features", grammar.List(grammar.Primitive(grammar.String))),
		grammar.F("possible_interactions", grammar.List(grammar.Primitive(grammar.String))),
	)

	ExitSeedSchema = grammar.NewType("ExitSeed",
		grammar.F("name", grammar.Primitive(grammar.String)),
		grammar.F("direction", grammar.Primitive(grammar.String)),
		grammar.F("region", grammar.Primitive(grammar.String)),
	)

	SceneSeedSchema = grammar.NewType("SceneSeed",
		grammar.F("name", grammar.Primitive(grammar.String)),
		grammar.F("region", grammar.Primitive(grammar.String)),
		grammar.F("description", grammar.Primitive(grammar.String)),
		grammar.F("people", grammar.List(grammar.Object(PersonSeedSchema))),
		grammar.F("items", grammar.List(grammar.Object(ItemSeedSchema))),
		grammar.F("props", grammar.List(grammar.Object(PropSeedSchema))),
		grammar.F("exits", grammar.List(grammar.Object(ExitSeedSchema))),
	)

	PersonDetailsSchema = grammar.NewType("PersonDetails",
		grammar.F("description", grammar.Primitive(grammar.String)),
		grammar.F("sex", grammar.Primitive(grammar.String)),
		grammar.F("gender", grammar.Primitive(grammar.String)),
		grammar.F("age", grammar.Primitive(grammar.Number)),
		grammar.F("residence", grammar.Primitive(grammar.String)),
		grammar.F("items", grammar.List(grammar.Object(ItemSeedSchema))),
		grammar.F("currentActivity", grammar.Primitive(grammar.String)),
	)

	CommandSchema = grammar.NewType("Command",
		grammar.F("verb", grammar.Primitive(grammar.String)),
		grammar.F("target", grammar.Primitive(grammar.String)),
		grammar.F("location", grammar.Primitive(grammar.String)),
		grammar.F("using", grammar.Primitive(grammar.String)),
	)

	CommandsSchema = grammar.NewType("Commands",
		grammar.F("commands", grammar.List(grammar.Object(CommandSchema))),
		grammar.F("count", grammar.Primitive(grammar.Number)),
	)

	VerbsResponseSchema = grammar.NewType("VerbsResponse",
		grammar.F("verbs", grammar.List(grammar.Primitive(grammar.String))),
	)

	RawCommandEventSchema = grammar.NewType("RawCommandEvent",
		grammar.F("eventName", grammar.Primitive(grammar.String)),
		grammar.F("appliesTo", grammar.Primitive(grammar.String)),
		grammar.F("parameter", grammar.Primitive(grammar.String)),
	)

	RawCommandExecutionSchema = grammar.NewType("RawCommandExecution",
		grammar.F("valid", grammar.Primitive(grammar.Boolean)),
		grammar.F("reason", grammar.Optional(grammar.Primitive(grammar.String))),
		grammar.F("narration", grammar.Primitive(grammar.String)),
		grammar.F("events", grammar.List(grammar.Object(RawCommandEventSchema))),
	)
)

var registry = compileRegistry(
	SceneSeedSchema,
	ExitSeedSchema,
	PersonDetailsSchema,
	CommandsSchema,
	VerbsResponseSchema,
	RawCommandExecutionSchema,
)

func compileRegistry(types ...*grammar.TypeSchema) map[string]string {
	out := make(map[string]string, len(types))
	for _, t := range types {
		out[t.Name] = grammar.Compile(t)
	}
	return out
}

// Grammar возвращает скомпилированную грамматику для корневого типа.
func Grammar(name string) (string, bool) {
	g, ok := registry[name]
	return g, ok
}

// MustGrammar — Grammar для имён, известных на этапе компиляции.
func MustGrammar(t *grammar.TypeSchema) string {
	g, ok := registry[t.Name]
	if !ok {
		panic("models: grammar is not registered for " + t.Name)
	}
	return g
}

// GrammarNames — отсортированный список зарегистрированных грамматик.
func GrammarNames() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
