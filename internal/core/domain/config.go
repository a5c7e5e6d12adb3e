package domain

import "time"

// Config is the resolved project configuration.
type Config struct {
	// Root is the absolute client root.
	Root string
	// Plans are the glob patterns of plan files.
	Plans GlobSet
	// ToolsDir is the tool script directory, relative to Root.
	ToolsDir string
	// WorkDir is the absolute base of private working directories. It lies outside Root.
	WorkDir string
	// Parallelism bounds the number of products built at once.
	Parallelism int
	// Ignore lists directory names skipped by scanning and watching.
	Ignore []string
	// Debounce is the watcher quiet period.
	Debounce time.Duration
	// RebuildInterval is the minimum spacing of watch-triggered rebuilds.
	RebuildInterval time.Duration
	// StatusAddr is the optional listen address of the status server.
	StatusAddr string
}
