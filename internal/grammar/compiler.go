// Package grammar компилирует декларативные схемы полей в GBNF-грамматику,
// которой бэкенд генерации ограничивает вывод модели потокенно.
package grammar

import (
	"fmt"
	"strings"
)

const (
	wsToken = "ws"
	wsBody  = `[ \t\n]*`

	stringBody  = `"\""   ([^"]*)   "\""`
	booleanBody = `"true" | "false"`
	numberBody  = `[0-9]+   "."?   [0-9]*`

	nullLiteral = `"null"`
)

// Rule — одно правило грамматики. Два правила равны, если совпадают и имя,
// и тело.
type Rule struct {
	Name string
	Body string
}

func (r Rule) String() string {
	return r.Name + " ::= " + r.Body
}

// Compile строит полную грамматику для типа: первой строкой идёт правило
// root, затем все достижимые правила без повторов в порядке обнаружения.
func Compile(t *TypeSchema) string {
	rules := Rules(t)
	lines := make([]string, 0, len(rules))
	for _, r := range rules {
		lines = append(lines, r.String())
	}
	return strings.Join(lines, "\n")
}

// Rules возвращает упорядоченный список уникальных правил для типа.
// Паникует, если под одним именем оказываются разные тела: это ошибка
// описания схемы, а не данных.
func Rules(t *TypeSchema) []Rule {
	if t == nil {
		panic("grammar: cannot compile a nil type schema")
	}

	c := &collector{
		bodies:  make(map[string]string),
		visited: make(map[*TypeSchema]bool),
	}
	c.add(Rule{Name: "root", Body: t.Name})
	c.emitType(t)
	return c.rules
}

type collector struct {
	rules   []Rule
	bodies  map[string]string
	visited map[*TypeSchema]bool
}

func (c *collector) add(r Rule) {
	if existing, ok := c.bodies[r.Name]; ok {
		if existing != r.Body {
			panic(fmt.Sprintf("grammar: conflicting definitions for rule %q", r.Name))
		}
		return
	}
	c.bodies[r.Name] = r.Body
	c.rules = append(c.rules, r)
}

func (c *collector) emitType(t *TypeSchema) {
	if c.visited[t] {
		return
	}
	c.visited[t] = true

	c.add(Rule{Name: t.Name, Body: objectBody(t)})
	c.add(Rule{Name: wsToken, Body: wsBody})

	for _, field := range t.Fields {
		c.emitField(field.Schema)
	}
}

func (c *collector) emitField(f FieldSchema) {
	switch f.variant {
	case VariantPrimitive, VariantOptionalPrimitive, VariantLimited:
		c.add(Rule{Name: f.kind.Token(), Body: f.kind.body()})
	case VariantPrimitiveList:
		c.add(Rule{Name: f.Token(), Body: listBody(f.elementToken())})
		c.add(Rule{Name: f.kind.Token(), Body: f.kind.body()})
	case VariantComplex, VariantOptionalComplex:
		c.emitType(f.complex)
	case VariantComplexList:
		c.add(Rule{Name: f.Token(), Body: listBody(f.elementToken())})
		c.emitType(f.complex)
	default:
		panic(fmt.Sprintf("grammar: unsupported field variant %s", f.variant))
	}
}

func objectBody(t *TypeSchema) string {
	if len(t.Fields) == 0 {
		return `"{"   ` + wsToken + `   "}"`
	}

	parts := make([]string, 0, len(t.Fields))
	for _, field := range t.Fields {
		parts = append(parts, fmt.Sprintf(`%s   "\"%s\":"   %s  %s`,
			wsToken, field.Name, wsToken, valueToken(field.Schema)))
	}
	return `"{"  ` + strings.Join(parts, `   ","   `) + `   "}"`
}

// valueToken — то, что стоит после имени поля в объекте. Optional-поля
// допускают литерал null.
func valueToken(f FieldSchema) string {
	if f.IsOptional() {
		return "(" + f.Token() + " | " + nullLiteral + ")"
	}
	return f.Token()
}

func listBody(elem string) string {
	return fmt.Sprintf(`"[]" | "["   %s   %s   (","   %s   %s)*   "]"`, wsToken, elem, wsToken, elem)
}
