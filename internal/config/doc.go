// Package config loads and hot-reloads the pipeline configuration: window,
// hop, dedup TTL, episode gap, scoring parameters, rate limits, and the
// declarative threshold rule set. Load parses YAML with sensible defaults;
// Watch follows the teacher's fsnotify idiom to reload on file changes
// without ever leaving the running config in a partially-applied state.
package config
