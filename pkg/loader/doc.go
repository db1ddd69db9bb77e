// Package loader reads logbook configurations from files and keeps the
// active one in an atomically swapped snapshot.
//
// A configuration comes either from one complete file (FileSource) or
// from a global settings file plus one file per logbook (DirSource). The
// Watcher reloads the Store when those files change; a reload that fails
// to parse leaves the previous snapshot active.
//
//	store := loader.NewStore(tel)
//	src := loader.DirSource{GlobalPath: "global.cfg", LogbookDir: "logbooks"}
//	if _, err := store.Reload(ctx, src); err != nil {
//	    return err
//	}
//	w := loader.NewWatcher(store, src)
//	if err := w.Watch(ctx); err != nil {
//	    return err
//	}
//	defer w.Stop()
package loader
