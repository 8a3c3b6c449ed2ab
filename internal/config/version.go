package config

// Version is injected at build time via ldflags.
//
// Build with:
//
//	go build -ldflags "-X 'github.com/diskseek/diskseek/internal/config.Version=1.2.0'" ./cmd/diskseek
var Version = "dev"
