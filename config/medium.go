package config

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/BaSui01/memgraph/persist"
)

// OpenMedium constructs the persistence medium the sync section selects.
// Backends that hold connections (mongo, redis) are dialed and verified here.
func (c SyncConfig) OpenMedium(logger *zap.Logger) (persist.Medium, error) {
	switch persist.MediumType(c.Target) {
	case persist.MediumMemory:
		return persist.NewMemoryMedium(), nil
	case persist.MediumFile:
		return persist.NewFileMedium(c.FilePath, logger)
	case persist.MediumDocumentDB:
		return persist.NewMongoMedium(c.Mongo, logger)
	case persist.MediumRedis:
		return persist.NewRedisMedium(c.Redis, logger)
	default:
		return nil, fmt.Errorf("unknown sync target %q", c.Target)
	}
}
