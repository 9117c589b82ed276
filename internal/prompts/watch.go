package prompts

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch следит за каталогом переопределений и перечитывает изменённые
// файлы. Блокируется до отмены ctx. Без каталога сразу возвращает nil.
func (p *Provider) Watch(ctx context.Context) error {
	if p.dir == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(p.dir); err != nil {
		return fmt.Errorf("watch %s: %w", p.dir, err)
	}
	p.logger.Info("Watching prompt overrides", zap.String("dir", p.dir))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Ext(event.Name) != overrideExt {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				p.logger.Debug("Prompt override changed", zap.String("op", event.Op.String()), zap.String("file", event.Name))
				p.reloadFile(event.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			p.logger.Error("Prompt watcher error", zap.Error(err))
		}
	}
}
