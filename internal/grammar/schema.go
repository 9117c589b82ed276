package grammar

import "fmt"

// Kind — примитивный тип значения в грамматике.
type Kind int

const (
	String Kind = iota
	Boolean
	Number
)

// Token возвращает имя правила примитива.
func (k Kind) Token() string {
	switch k {
	case String:
		return "string"
	case Boolean:
		return "boolean"
	case Number:
		return "number"
	default:
		panic(fmt.Sprintf("grammar: unknown primitive kind %d", int(k)))
	}
}

func (k Kind) body() string {
	switch k {
	case String:
		return stringBody
	case Boolean:
		return booleanBody
	case Number:
		return numberBody
	default:
		panic(fmt.Sprintf("grammar: unknown primitive kind %d", int(k)))
	}
}

// Variant перечисляет все формы поля, которые умеет компилятор.
type Variant int

const (
	VariantPrimitive Variant = iota
	VariantOptionalPrimitive
	VariantPrimitiveList
	VariantComplex
	VariantOptionalComplex
	VariantComplexList
	VariantLimited
)

func (v Variant) String() string {
	switch v {
	case VariantPrimitive:
		return "Primitive"
	case VariantOptionalPrimitive:
		return "OptionalPrimitive"
	case VariantPrimitiveList:
		return "PrimitiveList"
	case VariantComplex:
		return "Complex"
	case VariantOptionalComplex:
		return "OptionalComplex"
	case VariantComplexList:
		return "ComplexList"
	case VariantLimited:
		return "Limited"
	default:
		return fmt.Sprintf("Variant(%d)", int(v))
	}
}

// FieldSchema описывает тип одного поля. Значение создаётся только через
// конструкторы пакета, поэтому вложенные Optional/List невозможны в рантайме:
// попытка их построить паникует сразу при описании схемы.
type FieldSchema struct {
	variant Variant
	kind    Kind
	complex *TypeSchema
}

// Variant возвращает форму поля.
func (f FieldSchema) Variant() Variant { return f.variant }

// Kind возвращает примитивный тип. Имеет смысл только для примитивных форм.
func (f FieldSchema) Kind() Kind { return f.kind }

// Complex возвращает вложенный тип. nil для примитивных форм.
func (f FieldSchema) Complex() *TypeSchema { return f.complex }

// IsOptional сообщает, допускает ли поле null.
func (f FieldSchema) IsOptional() bool {
	return f.variant == VariantOptionalPrimitive || f.variant == VariantOptionalComplex
}

// IsList сообщает, является ли поле списком.
func (f FieldSchema) IsList() bool {
	return f.variant == VariantPrimitiveList || f.variant == VariantComplexList
}

func (f FieldSchema) isPrimitive() bool {
	switch f.variant {
	case VariantPrimitive, VariantOptionalPrimitive, VariantPrimitiveList, VariantLimited:
		return true
	}
	return false
}

// Primitive — обязательное поле примитивного типа.
func Primitive(k Kind) FieldSchema {
	return FieldSchema{variant: VariantPrimitive, kind: k}
}

// Limited — примитив с ограниченным набором значений. Набор значений пока не
// выражается в грамматике, поле рендерится как обычный примитив.
func Limited(k Kind) FieldSchema {
	return FieldSchema{variant: VariantLimited, kind: k}
}

// Object — обязательное поле сложного типа.
func Object(t *TypeSchema) FieldSchema {
	if t == nil {
		panic("grammar: complex field requires a type schema")
	}
	return FieldSchema{variant: VariantComplex, complex: t}
}

// Optional оборачивает поле в nullable-форму.
func Optional(f FieldSchema) FieldSchema {
	switch f.variant {
	case VariantPrimitive:
		return FieldSchema{variant: VariantOptionalPrimitive, kind: f.kind}
	case VariantComplex:
		return FieldSchema{variant: VariantOptionalComplex, complex: f.complex}
	case VariantOptionalPrimitive, VariantOptionalComplex:
		panic("grammar: nested optional fields are not allowed")
	case VariantLimited:
		panic("grammar: limited values cannot be optional")
	default:
		panic("grammar: optional type cannot be a list")
	}
}

// List оборачивает поле в список. Список nullable-элементов сводится к
// списку самих элементов.
func List(f FieldSchema) FieldSchema {
	switch f.variant {
	case VariantPrimitive, VariantOptionalPrimitive:
		return FieldSchema{variant: VariantPrimitiveList, kind: f.kind}
	case VariantComplex, VariantOptionalComplex:
		return FieldSchema{variant: VariantComplexList, complex: f.complex}
	case VariantLimited:
		panic("grammar: limited values cannot be listed")
	default:
		panic("grammar: nested lists are not allowed")
	}
}

// Field — именованное поле типа.
type Field struct {
	Name   string
	Schema FieldSchema
}

// F — короткий конструктор поля для табличных описаний схем.
func F(name string, schema FieldSchema) Field {
	return Field{Name: name, Schema: schema}
}

// TypeSchema — один генерируемый объект: имя и упорядоченный список полей.
type TypeSchema struct {
	Name   string
	Fields []Field
}

// NewType создаёт схему типа. Порядок полей сохраняется в грамматике.
func NewType(name string, fields ...Field) *TypeSchema {
	if name == "" {
		panic("grammar: type schema requires a name")
	}
	return &TypeSchema{Name: name, Fields: fields}
}

// Token возвращает имя правила для поля.
func (f FieldSchema) Token() string {
	switch f.variant {
	case VariantPrimitive, VariantOptionalPrimitive, VariantLimited:
		return f.kind.Token()
	case VariantPrimitiveList:
		return f.kind.Token() + "List"
	case VariantComplex, VariantOptionalComplex:
		return f.complex.Name
	case VariantComplexList:
		return f.complex.Name + "List"
	default:
		return ""
	}
}

// elementToken возвращает имя правила элемента (для списков) или самого
// значения (для остальных форм).
func (f FieldSchema) elementToken() string {
	if f.isPrimitive() {
		return f.kind.Token()
	}
	return f.complex.Name
}
