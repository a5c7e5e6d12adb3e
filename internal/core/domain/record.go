package domain

import (
	"time"
)

// BuildRecord is what a successful build leaves behind for the next run.
type BuildRecord struct {
	Product     string          `json:"product"`
	Fingerprint Hash            `json:"fingerprint"`
	Outputs     map[string]Hash `json:"outputs"`
	BuiltAt     time.Time       `json:"built_at"`
}
