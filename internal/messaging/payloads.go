package messaging

// CommandTask — задача на исполнение ввода игрока в сцене.
type CommandTask struct {
	TaskID   string `json:"task_id"`
	SceneKey string `json:"scene_key"`
	Input    string `json:"input"`
}

type ResultStatus string

const (
	StatusSuccess ResultStatus = "success"
	StatusError   ResultStatus = "error"
)

// CommandResult публикуется в очередь результатов после каждой задачи.
// SceneKey — сцена, в которой игрок оказался после хода.
type CommandResult struct {
	TaskID       string       `json:"task_id"`
	Status       ResultStatus `json:"status"`
	SceneKey     string       `json:"scene_key,omitempty"`
	Valid        bool         `json:"valid"`
	Lines        []string     `json:"lines,omitempty"`
	Unresolved   string       `json:"unresolved,omitempty"`
	ErrorDetails string       `json:"error_details,omitempty"`
}
