package parser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"FundingArchive/internal/config"
	"FundingArchive/internal/domain"
	"FundingArchive/internal/ports"
	"FundingArchive/internal/scanner"
)

// StrategySource implements MessageSource via registered scanner strategies.
type StrategySource struct {
	registry *scanner.Registry
	sources  []config.SourceConfig
	logger   *slog.Logger
}

var _ ports.MessageSource = (*StrategySource)(nil)

// NewStrategySource wires scanner registry with config-defined sources.
func NewStrategySource(reg *scanner.Registry, sources []config.SourceConfig, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		sources:  sources,
		logger:   log,
	}
}

// FetchSince iterates over configured sources and executes their scanners.
// The combined batch is deduplicated and ordered oldest first.
func (s *StrategySource) FetchSince(ctx context.Context, since time.Time) ([]domain.Message, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	s.debug("fetch since", "sources", len(s.sources), "since", since.Format(time.RFC3339))

	var aggregated []domain.Message
	for _, src := range s.sources {
		s.debug("process source", "source", src.Name, "scanner", src.Scanner, "channels", len(src.Channels))
		strategy, err := s.registry.Resolve(src.Scanner)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", src.Name, err)
		}

		req := scanner.Request{
			Since:      since,
			SourceName: src.Name,
			Options:    src.Options,
			Channels:   toScannerChannels(src.Channels),
		}

		results, err := strategy.Scan(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("scan source %s: %w", src.Name, err)
		}

		s.debug("source produced messages", "source", src.Name, "count", len(results))
		aggregated = append(aggregated, results...)
	}

	merged := scanner.Merge(aggregated)
	s.debug("strategy source done", "total_messages", len(merged), "duplicates", len(aggregated)-len(merged))
	return merged, nil
}

func toScannerChannels(cfg []config.ChannelConfig) []scanner.Channel {
	channels := make([]scanner.Channel, 0, len(cfg))
	for _, ch := range cfg {
		channels = append(channels, scanner.Channel{
			Name: ch.Name,
			URL:  ch.URL,
		})
	}
	return channels
}

func (s *StrategySource) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
