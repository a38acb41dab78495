package export

import (
	"encoding/json"
	"io"
	"time"

	"scorekeeper/core"
)

type jsonDocument struct {
	GeneratedAt time.Time           `json:"generated_at"`
	TotalScores int                 `json:"total_scores"`
	Exported    int                 `json:"exported"`
	Scores      []core.RankedRecord `json:"scores"`
}

type jsonRenderer struct{}

func (jsonRenderer) ContentType() string { return "application/json" }
func (jsonRenderer) Extension() string   { return "json" }

func (jsonRenderer) Render(w io.Writer, snap Snapshot, _ Style) error {
	scores := snap.Records
	if scores == nil {
		scores = []core.RankedRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonDocument{
		GeneratedAt: snap.GeneratedAt.UTC(),
		TotalScores: snap.Total,
		Exported:    len(scores),
		Scores:      scores,
	})
}
