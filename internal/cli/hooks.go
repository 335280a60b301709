package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// logHooks surfaces render fallbacks and cache traffic through the CLI
// logger. Fallbacks are warnings; everything else is debug output.
type logHooks struct {
	logger *log.Logger
}

func (h *logHooks) OnComposeStart(_ context.Context, template string) {
	h.logger.Debug("compose", "template", template)
}

func (h *logHooks) OnStage(_ context.Context, template, stage string) {
	h.logger.Debug("stage", "template", template, "stage", stage)
}

func (h *logHooks) OnFallback(_ context.Context, component, key, reason string) {
	if key == "" {
		h.logger.Warn(component+" skipped", "reason", reason)
		return
	}
	h.logger.Warn(component+" skipped", "key", key, "reason", reason)
}

func (h *logHooks) OnComposeComplete(_ context.Context, template string, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("compose failed", "template", template, "err", err)
		return
	}
	h.logger.Debug("composed", "template", template, "duration", d.Round(time.Millisecond))
}

func (h *logHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *logHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *logHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}
