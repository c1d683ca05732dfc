// Package graphhints manages the read-only entity-adjacency graph consulted
// by the Scorer. It supports atomic in-process replacement via Store.Set
// (for update_graph_hints) and, optionally, file-based hot-reload using the
// same fsnotify idiom as internal/config.Watch.
package graphhints
