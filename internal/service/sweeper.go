package service

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper periodically closes sessions nobody came back to. Expiry is still
// enforced lazily by the guard; the sweeper only keeps storage tidy.
type Sweeper struct {
	chat     *ChatService
	interval time.Duration
}

func NewSweeper(chat *ChatService, interval time.Duration) *Sweeper {
	return &Sweeper{chat: chat, interval: interval}
}

func (s *Sweeper) Run(ctx context.Context) {
	logger := slog.Default().With(slog.String("component", "session.sweeper"))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx, logger)
		case <-ctx.Done():
			logger.InfoContext(ctx, "sweeper stopping")
			return
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context, logger *slog.Logger) {
	start := time.Now()
	closed, err := s.chat.CloseIdleSessions(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "failed to close idle sessions", slog.Any("err", err))
		return
	}
	if closed > 0 {
		logger.InfoContext(ctx, "closed idle sessions",
			slog.Int("closed", closed),
			slog.Duration("duration", time.Since(start)),
		)
	}
}
