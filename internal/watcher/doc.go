// Package watcher reports changes to a fixed set of files so a search can be
// re-run when they change.
//
// Each file's parent directory is watched with fsnotify, which also catches
// editors that save by writing a new file and renaming it over the old one.
// When fsnotify is unavailable the watcher falls back to polling. Bursts of
// events are debounced into one batch.
//
// Usage:
//
//	w, err := watcher.New([]string{"a.txt", "b.txt"}, watcher.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//	go w.Start(ctx)
//
//	for batch := range w.Events() {
//	    // re-run the search
//	}
package watcher
