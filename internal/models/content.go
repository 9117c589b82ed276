package models

// Content — любая самостоятельная сущность мира, которая хранится отдельной
// записью: сцена, заглушка сцены, персонаж или предмет.
type Content interface {
	ContentKey() string
	isContent()
}

func (s *Scene) ContentKey() string     { return s.Key }
func (s *SceneStub) ContentKey() string { return s.Key }
func (p *Person) ContentKey() string    { return p.Key }
func (i *Item) ContentKey() string      { return i.Key }

func (*Scene) isContent()     {}
func (*SceneStub) isContent() {}
func (*Person) isContent()    {}
func (*Item) isContent()      {}

// Названия связей между сущностями в графе мира.
const (
	RelationSceneHasPerson  = "scene-has-person"
	RelationPersonAtScene   = "person-at-scene"
	RelationItemLocatedAt   = "item-located-at"
	RelationItemPossessedBy = "item-possessed-by"
	RelationConnectsTo      = "connects-to"
)

// ContentRelation — вложенная сущность и пара направленных связей с владельцем.
type ContentRelation struct {
	Content  Content
	Outbound string
	Inbound  string
}

// PersonRelation — персонаж находится в сцене.
func PersonRelation(p *Person) ContentRelation {
	return ContentRelation{Content: p, Outbound: RelationSceneHasPerson, Inbound: RelationPersonAtScene}
}

// ItemRelation — предмет лежит в сцене (или у персонажа).
func ItemRelation(i *Item) ContentRelation {
	return ContentRelation{Content: i, Outbound: RelationItemLocatedAt, Inbound: RelationItemPossessedBy}
}

// StubRelation — сцена связана с соседней заглушкой.
func StubRelation(s *SceneStub) ContentRelation {
	return ContentRelation{Content: s, Outbound: RelationConnectsTo, Inbound: RelationConnectsTo}
}

// ContentContainer — владелец и всё, что с ним связано. Вложенные сущности
// сами могут быть контейнерами (персонаж со своими предметами).
type ContentContainer struct {
	Owner     Content
	Contained []ContainedContent
}

// ContainedContent — вложенный контейнер и связь с внешним владельцем.
type ContainedContent struct {
	Container ContentContainer
	Outbound  string
	Inbound   string
}

// Contain добавляет в контейнер одиночную сущность.
func (c *ContentContainer) Contain(rel ContentRelation) {
	c.Contained = append(c.Contained, ContainedContent{
		Container: ContentContainer{Owner: rel.Content},
		Outbound:  rel.Outbound,
		Inbound:   rel.Inbound,
	})
}

// ContainNested добавляет вложенный контейнер с заданной связью.
func (c *ContentContainer) ContainNested(nested ContentContainer, outbound, inbound string) {
	c.Contained = append(c.Contained, ContainedContent{
		Container: nested,
		Outbound:  outbound,
		Inbound:   inbound,
	})
}

// Scene возвращает владельца как сцену или nil.
func (c *ContentContainer) Scene() *Scene {
	scene, _ := c.Owner.(*Scene)
	return scene
}

// RemoveStub удаляет из контейнера заглушку с указанным ключом.
// Возвращает true, если что-то было удалено.
func (c *ContentContainer) RemoveStub(key string) bool {
	kept := c.Contained[:0]
	removed := false
	for _, cc := range c.Contained {
		if stub, ok := cc.Container.Owner.(*SceneStub); ok && stub.Key == key {
			removed = true
			continue
		}
		kept = append(kept, cc)
	}
	c.Contained = kept
	return removed
}

// Stubs возвращает все заглушки, непосредственно связанные с владельцем.
func (c *ContentContainer) Stubs() []*SceneStub {
	var stubs []*SceneStub
	for _, cc := range c.Contained {
		if stub, ok := cc.Container.Owner.(*SceneStub); ok {
			stubs = append(stubs, stub)
		}
	}
	return stubs
}

// EntityType — вид сущности, которую можно найти в сцене.
type EntityType string

const (
	EntityPerson EntityType = "person"
	EntityItem   EntityType = "item"
)

// Entity — персонаж или предмет, загруженный из сцены.
type Entity struct {
	Type   EntityType `json:"type"`
	Person *Person    `json:"person,omitempty"`
	Item   *Item      `json:"item,omitempty"`
}

// Name возвращает имя сущности независимо от её вида.
func (e Entity) Name() string {
	switch e.Type {
	case EntityPerson:
		if e.Person != nil {
			return e.Person.Name
		}
	case EntityItem:
		if e.Item != nil {
			return e.Item.Name
		}
	}
	return ""
}
