package domain

import (
	"path/filepath"
	"time"
)

const (
	// KilnDirName is the name of the internal state directory inside the client root.
	KilnDirName = ".kiln"

	// ArchiveDirName is the directory that receives obsolete outputs.
	ArchiveDirName = "archive"

	// RecordsDirName is the directory holding build records.
	RecordsDirName = "records"

	// IndexDirName is the directory holding the file store index.
	IndexDirName = "index"

	// ConfigFileName is the name of the project configuration file.
	ConfigFileName = "kiln.yaml"

	// PlanFileName is the conventional name of a plan file.
	PlanFileName = "kiln.hcl"

	// ToolExt is the file extension of tool scripts.
	ToolExt = ".sh"

	// ObsoleteWorkDirPrefix prefixes working directories that are being deleted.
	ObsoleteWorkDirPrefix = "obsolete-"

	// DefaultToolsDir is the default tool script directory, relative to the client root.
	DefaultToolsDir = "tools"

	// DefaultDebounce is the default quiet period of the watcher.
	DefaultDebounce = 50 * time.Millisecond

	// DefaultRebuildInterval is the default minimum spacing of watch-triggered rebuilds.
	DefaultRebuildInterval = 250 * time.Millisecond

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644

	// PrivateDirPerm is the permission of private working directories (rwx------).
	PrivateDirPerm = 0o700
)

// DefaultPlanGlobs are the plan file patterns used when kiln.yaml names none.
var DefaultPlanGlobs = []string{PlanFileName, "**/" + PlanFileName}

// AlwaysIgnored are directory names never scanned or watched.
var AlwaysIgnored = []string{".git", ".jj", KilnDirName, "node_modules"}

// DefaultKilnPath returns the state directory relative to the client root.
func DefaultKilnPath() string {
	return KilnDirName
}

// DefaultArchivePath returns the archive directory relative to the client root.
// It joins .kiln and archive.
func DefaultArchivePath() string {
	return filepath.Join(KilnDirName, ArchiveDirName)
}

// DefaultRecordsPath returns the build record directory relative to the client root.
// It joins .kiln and records.
func DefaultRecordsPath() string {
	return filepath.Join(KilnDirName, RecordsDirName)
}

// DefaultIndexPath returns the file store index directory relative to the client root.
// It joins .kiln and index.
func DefaultIndexPath() string {
	return filepath.Join(KilnDirName, IndexDirName)
}

// ToolPath returns the client-relative, slash-separated path of a tool script.
func ToolPath(toolsDir, tool string) string {
	return filepath.ToSlash(filepath.Join(toolsDir, tool+ToolExt))
}
