package scoreboard

import (
	"context"
	"log/slog"

	"scorekeeper/core"
)

// AuditHook logs evictions and rejected submissions. Use with WithHook.
func AuditHook(logger *slog.Logger) func(context.Context, core.Event) {
	return func(ctx context.Context, e core.Event) {
		switch e.Type {
		case core.EventScoreEvicted:
			logger.InfoContext(ctx, "score evicted by retention cap",
				"record_id", e.RecordID, "player", e.Player, "score", e.Score, "held", e.Size)
		case core.EventSubmissionRejected:
			logger.WarnContext(ctx, "submission rejected", "reason", e.Reason)
		case core.EventSnapshotExportFailed:
			logger.ErrorContext(ctx, "export failed", "format", e.Format, "reason", e.Reason)
		}
	}
}
