package config

import "time"

// Kilnfile represents the structure of the kiln.yaml configuration file.
type Kilnfile struct {
	Root        string    `yaml:"root"`
	Plans       []string  `yaml:"plans" validate:"dive,required"`
	Tools       string    `yaml:"tools"`
	WorkDir     string    `yaml:"workdir"`
	Parallelism int       `yaml:"parallelism" validate:"gte=0,lte=1024"`
	Ignore      []string  `yaml:"ignore" validate:"dive,required,excludes=/"`
	Watch       WatchDTO  `yaml:"watch"`
	Status      StatusDTO `yaml:"status"`
}

// WatchDTO configures watch mode.
type WatchDTO struct {
	Debounce        time.Duration `yaml:"debounce" validate:"gte=0"`
	RebuildInterval time.Duration `yaml:"rebuild_interval" validate:"gte=0"`
}

// StatusDTO configures the status server.
type StatusDTO struct {
	Addr string `yaml:"addr" validate:"omitempty,hostname_port"`
}
