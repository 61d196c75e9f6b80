package app

import (
	"time"

	"go.uber.org/zap"

	"github.com/nhle/mediadash/internal/model"
	"github.com/nhle/mediadash/internal/source"
	appsync "github.com/nhle/mediadash/internal/sync"
)

// RegisterSources builds every configured ingestion source and registers
// it with the poller. It returns the number of sources registered.
func RegisterSources(p *appsync.Poller, cfg model.IngestConfig, logger *zap.Logger) (int, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	registered := 0
	if cfg.SpoolDir != "" {
		spool, err := source.NewSpoolSource(cfg.SpoolDir, logger)
		if err != nil {
			return registered, err
		}
		p.RegisterSource(spool, time.Duration(cfg.PollIntervalSec)*time.Second)
		registered++
		logger.Debug("registered source", zap.String("source", spool.Name()), zap.String("dir", cfg.SpoolDir))
	}

	return registered, nil
}
