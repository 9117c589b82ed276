package models

// Сиды — сырые объекты, которые модель генерирует по грамматике. Они ещё не
// проверены на связность и не имеют ключей.

// SceneSeed — черновик сцены.
type SceneSeed struct {
	Name        string       `json:"name"`
	Region      string       `json:"region"`
	Description string       `json:"description"`
	People      []PersonSeed `json:"people"`
	Items       []ItemSeed   `json:"items"`
	Props       []PropSeed   `json:"props"`
	Exits       []ExitSeed   `json:"exits"`
}

// PersonSeed — черновик персонажа внутри сцены.
type PersonSeed struct {
	Name       string `json:"name"`
	Occupation string `json:"occupation"`
	Race       string `json:"race"`
}

// ItemSeed — черновик предмета.
type ItemSeed struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Rarity   string `json:"rarity"`
}

// PropSeed — черновик пропа.
type PropSeed struct {
	Name                 string   `json:"name"`
	Description          string   `json:"description"`
	Features             []string `json:"features"`
	PossibleInteractions []string `json:"possible_interactions"`
}

// ExitSeed — черновик выхода.
type ExitSeed struct {
	Name      string `json:"name"`
	Direction string `json:"direction"`
	Region    string `json:"region"`
}

// PersonDetails — подробности персонажа, которые дозаполняет модель.
type PersonDetails struct {
	Description     string     `json:"description"`
	Sex             string     `json:"sex"`
	Gender          string     `json:"gender"`
	Age             uint32     `json:"age"`
	Residence       string     `json:"residence"`
	Items           []ItemSeed `json:"items"`
	CurrentActivity string     `json:"currentActivity"`
}

// ItemDetails — подробности предмета.
type ItemDetails struct {
	Description      string   `json:"description"`
	Attributes       []string `json:"attributes"`
	SecretAttributes []string `json:"secret_attributes"`
}
