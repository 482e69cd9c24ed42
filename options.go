package sharedfile

import "log/slog"

type config struct {
	logger        *slog.Logger
	syncOnFinish  bool
	manualCommit  bool
	initialLength int64
}

func defaultConfig() config {
	return config{
		logger:       slog.New(slog.DiscardHandler),
		syncOnFinish: true,
	}
}

// Option configures a File.
type Option func(*config)

// WithLogger sets the logger used for lifecycle events. Logging is discarded by default.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithoutSync skips syncing the backing store when the writer finishes.
func WithoutSync() Option {
	return func(c *config) {
		c.syncOnFinish = false
	}
}

// WithManualCommit makes written bytes visible to readers only on Flush, Sync or Finish.
func WithManualCommit() Option {
	return func(c *config) {
		c.manualCommit = true
	}
}

// WithInitialLength declares that the backing store already holds n bytes which readers
// may consume. The backing store's write position must already be at n.
func WithInitialLength(n int64) Option {
	return func(c *config) {
		if n > 0 {
			c.initialLength = n
		}
	}
}
