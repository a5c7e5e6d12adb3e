package domain

import "go.trai.ch/zerr"

var (
	// ErrInvalidGlob is returned when a glob pattern cannot be parsed.
	ErrInvalidGlob = zerr.New("invalid glob")

	// ErrMissingGoal is returned when a recipe is requested for products that are not in the graph.
	ErrMissingGoal = zerr.New("missing goal")

	// ErrDependencyCycle is returned when the products needed for a recipe depend on each other.
	ErrDependencyCycle = zerr.New("cycle in product dependencies")

	// ErrUnknownProduct is returned when a build is requested for a product the executor does not know.
	ErrUnknownProduct = zerr.New("unknown product")

	// ErrNamingConflict is raised when two plan files define a product with the same name.
	ErrNamingConflict = zerr.New("product defined in more than one plan file")

	// ErrClientDirTouched is returned when a tool action references the client directory.
	ErrClientDirTouched = zerr.New("tool action touched the client directory")

	// ErrToolNotFound is returned when an action references a tool script that does not exist.
	ErrToolNotFound = zerr.New("tool not found")

	// ErrToolFailed is returned when a tool script exits unsuccessfully.
	ErrToolFailed = zerr.New("tool failed")

	// ErrStageFailed is returned when inputs cannot be staged into a working directory.
	ErrStageFailed = zerr.New("failed to stage inputs")

	// ErrReconcileFailed is returned when an output cannot be moved into the client directory.
	ErrReconcileFailed = zerr.New("failed to move outputs into the client directory")

	// ErrArchiveFailed is logged when an obsolete output cannot be archived.
	ErrArchiveFailed = zerr.New("failed to archive obsolete output")

	// ErrVersionSkew is returned when a product definition changed while it was being built.
	ErrVersionSkew = zerr.New("product changed while building")

	// ErrBuildCancelled is returned when an in-flight build is cancelled by an invalidation.
	ErrBuildCancelled = zerr.New("build cancelled")

	// ErrBuildFailed is returned when one or more products of a request could not be built.
	ErrBuildFailed = zerr.New("build failed")

	// ErrInvalidHash is returned when a serialized hash cannot be decoded.
	ErrInvalidHash = zerr.New("invalid hash")

	// ErrFileNotFound is returned by the file store when a path does not exist.
	ErrFileNotFound = zerr.New("file not found")

	// ErrStoreFailed is returned when the file store cannot read or persist state.
	ErrStoreFailed = zerr.New("file store failure")

	// ErrRecordReadFailed is returned when a build record cannot be read.
	ErrRecordReadFailed = zerr.New("failed to read build record")

	// ErrRecordWriteFailed is returned when a build record cannot be written.
	ErrRecordWriteFailed = zerr.New("failed to write build record")

	// ErrConfigNotFound is returned when no kiln.yaml exists in the directory tree.
	ErrConfigNotFound = zerr.New("could not find kiln.yaml")

	// ErrInvalidConfig is returned when kiln.yaml fails to decode or validate.
	ErrInvalidConfig = zerr.New("invalid configuration")

	// ErrPlanParse is returned when a plan file cannot be parsed or decoded.
	ErrPlanParse = zerr.New("failed to parse plan file")

	// ErrWatcherFailed is returned when the directory watcher cannot be started.
	ErrWatcherFailed = zerr.New("failed to start watcher")

	// ErrCommandFailed is returned when an external process exits with a non-zero status.
	ErrCommandFailed = zerr.New("command failed")
)
