package generator

import (
	"os"
	"runtime"
	"time"

	"github.com/TheMichaelB/crosscheck/internal/config"
	"github.com/TheMichaelB/crosscheck/internal/crypto"
	"github.com/TheMichaelB/crosscheck/internal/events"
	"github.com/TheMichaelB/crosscheck/internal/models"
)

// GeneratorName identifies this producer in archive metadata.
const GeneratorName = "crosscheck-go"

// BuildDataset runs every builder and assembles the platform dataset with
// its metadata document. Declared counts reflect what was actually built, so
// a skipped KDF tier shows up as a smaller declared count rather than a
// packager failure.
func BuildDataset(provider crypto.Provider, cfg *config.GeneratorConfig, logger *events.Logger) (*models.PlatformDataset, error) {
	rand := NewDeterministicRand(cfg.Seed)
	builder := NewBuilder(provider, rand, cfg.Platform, logger)
	builder.SkipSensitive(cfg.SkipSensitive)

	suites := builder.Suites()
	edgeCases := builder.EdgeCases(cfg.InlineThreshold)

	fileVectors, payloads, err := builder.FileVectors(nil)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	hostname, _ := os.Hostname()

	counts := make(map[string]int)
	for _, suite := range suites {
		counts[string(suite.Algorithm)] = len(suite.Vectors)
	}
	counts["edge_cases"] = len(edgeCases.Cases)
	counts["encrypted_files"] = len(fileVectors)

	ds := &models.PlatformDataset{
		Platform:  cfg.Platform,
		Version:   cfg.Version,
		Timestamp: now,
		Metadata: models.Metadata{
			Platform:  cfg.Platform,
			Version:   cfg.Version,
			Timestamp: now,
			Generator: GeneratorName,
			Device: models.DeviceInfo{
				Hostname: hostname,
				OS:       runtime.GOOS,
				Arch:     runtime.GOARCH,
				Runtime:  runtime.Version(),
			},
			Counts: counts,
		},
		Suites:       suites,
		EdgeCases:    &edgeCases,
		FileVectors:  fileVectors,
		FilePayloads: payloads,
	}

	logger.WithFields(map[string]interface{}{
		"platform": cfg.Platform,
		"vectors":  ds.VectorCount(),
		"files":    len(fileVectors),
	}).Info("Built dataset")

	return ds, nil
}
