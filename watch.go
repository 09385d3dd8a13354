package mosaic

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ConfigWatcher reloads a YAML settings file whenever it is written and
// delivers the parsed result on Changes. The watcher runs on its own
// goroutine; the host drains Changes on its tick goroutine and passes each
// value to Scheduler.Apply, so the scheduler itself stays single-threaded.
type ConfigWatcher struct {
	path    string
	watcher *fsnotify.Watcher
	changes chan Config
	log     logrus.FieldLogger
	done    chan struct{}
}

// WatchConfig starts watching path. The containing directory is watched so
// editors that replace the file on save are handled.
func WatchConfig(path string, log logrus.FieldLogger) (*ConfigWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve %s", path)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create watcher")
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, errors.Wrapf(err, "watch %s", filepath.Dir(abs))
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	w := &ConfigWatcher{
		path:    abs,
		watcher: fw,
		changes: make(chan Config, 1),
		log:     log.WithField("config", abs),
		done:    make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Changes delivers reloaded settings. Only the latest unread value is kept.
func (w *ConfigWatcher) Changes() <-chan Config {
	return w.changes
}

// Close stops watching and waits for the watcher goroutine to exit.
func (w *ConfigWatcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}

func (w *ConfigWatcher) loop() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			cfg, err := LoadConfig(w.path)
			if err != nil {
				w.log.WithError(err).Warn("config reload rejected")
				continue
			}
			w.log.Info("config reloaded")
			// Drop an unread value so the newest settings win.
			select {
			case <-w.changes:
			default:
			}
			w.changes <- cfg
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.WithError(err).Warn("config watcher error")
		}
	}
}
