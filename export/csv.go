package export

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

type csvRenderer struct{}

func (csvRenderer) ContentType() string { return "text/csv; charset=utf-8" }
func (csvRenderer) Extension() string   { return "csv" }

// Render writes one header row and one row per record. Text columns are
// always quoted so names and schools may contain commas, quotes or newlines.
func (csvRenderer) Render(w io.Writer, snap Snapshot, style Style) error {
	l := style.Locale.Labels
	bw := bufio.NewWriter(w)
	writeRow(bw,
		l.Position, l.Name, l.Age, l.School, l.Score, l.Level, l.Date,
	)
	for _, r := range snap.Records {
		writeRow(bw,
			strconv.Itoa(r.Rank),
			quote(r.PlayerName),
			quote(r.PlayerAge),
			quote(r.PlayerSchool),
			strconv.FormatInt(r.Score, 10),
			strconv.FormatInt(r.Level, 10),
			quote(style.Date(r.SubmittedAt)),
		)
	}
	return bw.Flush()
}

func writeRow(w *bufio.Writer, fields ...string) {
	_, _ = w.WriteString(strings.Join(fields, ","))
	_ = w.WriteByte('\n')
}

// quote always quotes, unlike encoding/csv which quotes only when a field needs it.
func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
