// Package prompts хранит текстовые шаблоны промптов и собирает из них
// запросы к модели.
package prompts

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Name — ключ шаблона в templates.yaml и имя файла переопределения.
type Name string

const (
	Intro             Name = "intro"
	Continuation      Name = "continuation"
	FindVerbs         Name = "find_verbs"
	Execution         Name = "execution"
	EventInstructions Name = "event_instructions"
	SceneInstructions Name = "scene_instructions"
	SceneCreation     Name = "scene_creation"
	SceneFromStub     Name = "scene_from_stub"
	PersonCreation    Name = "person_creation"
	PersonSceneInfo   Name = "person_scene_info"
	FixExit           Name = "fix_exit"
)

// Names — все шаблоны, которые обязан содержать встроенный набор.
var Names = []Name{
	Intro, Continuation, FindVerbs, Execution, EventInstructions,
	SceneInstructions, SceneCreation, SceneFromStub, PersonCreation,
	PersonSceneInfo, FixExit,
}

const overrideExt = ".md"

var ErrPromptNotFound = errors.New("prompt template not found")

//go:embed templates.yaml
var embeddedTemplates []byte

var placeholderPattern = regexp.MustCompile(`\{\{[A-Z_]+\}\}`)

// Provider отдаёт шаблоны: встроенные по умолчанию и переопределённые
// файлами из каталога. Переопределения можно перечитывать на лету.
type Provider struct {
	logger *zap.Logger
	dir    string

	mu        sync.RWMutex
	defaults  map[Name]string
	overrides map[Name]string
}

// NewProvider загружает встроенный набор и, если dir не пуст, файлы
// переопределений из него.
func NewProvider(dir string, logger *zap.Logger) (*Provider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults, err := parseTemplates(embeddedTemplates)
	if err != nil {
		return nil, err
	}
	p := &Provider{
		logger:    logger.Named("PromptProvider"),
		dir:       dir,
		defaults:  defaults,
		overrides: make(map[Name]string),
	}
	if dir != "" {
		if err := p.LoadOverrides(); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func parseTemplates(data []byte) (map[Name]string, error) {
	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse prompt templates: %w", err)
	}
	out := make(map[Name]string, len(raw))
	for k, v := range raw {
		out[Name(k)] = v
	}
	for _, name := range Names {
		if _, ok := out[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrPromptNotFound, name)
		}
	}
	return out, nil
}

// LoadOverrides перечитывает все файлы <name>.md из каталога.
func (p *Provider) LoadOverrides() error {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return fmt.Errorf("failed to read prompts dir %s: %w", p.dir, err)
	}

	loaded := make(map[Name]string)
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != overrideExt {
			continue
		}
		name, ok := p.nameFromFile(e.Name())
		if !ok {
			continue
		}
		content, err := os.ReadFile(filepath.Join(p.dir, e.Name()))
		if err != nil {
			return fmt.Errorf("failed to read prompt override %s: %w", e.Name(), err)
		}
		loaded[name] = string(content)
	}

	p.mu.Lock()
	p.overrides = loaded
	p.mu.Unlock()

	p.logger.Info("Prompt overrides loaded", zap.String("dir", p.dir), zap.Int("count", len(loaded)))
	return nil
}

// reloadFile обновляет одно переопределение. Отсутствующий файл снимает его.
func (p *Provider) reloadFile(path string) {
	name, ok := p.nameFromFile(filepath.Base(path))
	if !ok {
		return
	}

	content, err := os.ReadFile(path)
	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			delete(p.overrides, name)
			p.logger.Info("Prompt override removed", zap.String("prompt", string(name)))
			return
		}
		p.logger.Error("Failed to reload prompt override", zap.String("path", path), zap.Error(err))
		return
	}
	p.overrides[name] = string(content)
	p.logger.Info("Prompt override reloaded", zap.String("prompt", string(name)))
}

func (p *Provider) nameFromFile(file string) (Name, bool) {
	name := Name(strings.TrimSuffix(file, overrideExt))
	if _, ok := p.defaults[name]; !ok {
		p.logger.Debug("Ignoring file without a matching prompt", zap.String("file", file))
		return "", false
	}
	return name, true
}

// Template возвращает текущий текст шаблона.
func (p *Provider) Template(name Name) (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if t, ok := p.overrides[name]; ok {
		return t, nil
	}
	if t, ok := p.defaults[name]; ok {
		return t, nil
	}
	return "", fmt.Errorf("%w: %s", ErrPromptNotFound, name)
}

// Render подставляет значения в плейсхолдеры {{KEY}} шаблона. Подстановка
// однопроходная: плейсхолдеры внутри значений не раскрываются.
func (p *Provider) Render(name Name, values map[string]string) (string, error) {
	tmpl, err := p.Template(name)
	if err != nil {
		return "", err
	}

	pairs := make([]string, 0, len(values)*2)
	for k, v := range values {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	out := strings.NewReplacer(pairs...).Replace(tmpl)

	if left := placeholderPattern.FindAllString(tmpl, -1); len(left) > 0 {
		var missing []string
		for _, ph := range left {
			if _, ok := values[strings.Trim(ph, "{}")]; !ok {
				missing = append(missing, ph)
			}
		}
		if len(missing) > 0 {
			p.logger.Warn("Prompt rendered with unfilled placeholders",
				zap.String("prompt", string(name)),
				zap.Strings("placeholders", missing),
			)
		}
	}
	return out, nil
}

// mustRender используется для шаблонов из Names: их наличие проверено
// при создании провайдера.
func (p *Provider) mustRender(name Name, values map[string]string) string {
	out, err := p.Render(name, values)
	if err != nil {
		panic(err)
	}
	return out
}
