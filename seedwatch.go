package redis

import (
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// seedWatcher watches a seed-node file (one host:port per line) for changes
// and calls back with the parsed addresses, debounced, grounded on
// db-bouncer's config.Watcher. It is optional: only
// ReplicationClient.WithSeedFile starts one, for the path it is given;
// nothing here is required for normal operation.
type seedWatcher struct {
	path     string
	callback func([]string)
	watcher  *fsnotify.Watcher
	stopCh   chan struct{}
}

// newSeedWatcher starts watching path, invoking callback once immediately
// with the current contents and again after every debounced write.
func newSeedWatcher(path string, callback func([]string)) (*seedWatcher, error) {
	addrs, err := readSeedFile(path)
	if err != nil {
		return nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return nil, err
	}

	sw := &seedWatcher{path: path, callback: callback, watcher: w, stopCh: make(chan struct{})}
	callback(addrs)
	go sw.run()
	return sw, nil
}

func (sw *seedWatcher) run() {
	var debounce *time.Timer
	for {
		select {
		case event, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(500*time.Millisecond, sw.reload)
			}
		case _, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}
		case <-sw.stopCh:
			return
		}
	}
}

func (sw *seedWatcher) reload() {
	addrs, err := readSeedFile(sw.path)
	if err != nil {
		return
	}
	sw.callback(addrs)
}

// Stop stops the watcher and releases its inotify/kqueue handle.
func (sw *seedWatcher) Stop() error {
	close(sw.stopCh)
	return sw.watcher.Close()
}

func readSeedFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var addrs []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		addrs = append(addrs, line)
	}
	return addrs, nil
}
