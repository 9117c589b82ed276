package models

// CoherenceFailure — структурный дефект сгенерированной сцены.
type CoherenceFailure interface {
	isCoherenceFailure()
}

// InvalidExitName — имя выхода является направлением, артефактом модели,
// зарезервированным ключом или именем самой сцены.
type InvalidExitName struct {
	Index int
	Exit  Exit
}

// DuplicateExits — несколько выходов с одинаковым именем. Indices и Exits
// идут в порядке следования в сцене.
type DuplicateExits struct {
	Name    string
	Indices []int
	Exits   []Exit
}

func (InvalidExitName) isCoherenceFailure() {}
func (DuplicateExits) isCoherenceFailure()  {}

// SceneFix — одна правка списка выходов.
type SceneFix interface {
	isSceneFix()
}

// FixedExit — заменить выход по индексу на новый.
type FixedExit struct {
	Index int
	New   ExitSeed
}

// DeleteExit — удалить выход по индексу.
type DeleteExit struct {
	Index int
}

func (FixedExit) isSceneFix()  {}
func (DeleteExit) isSceneFix() {}
