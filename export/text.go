package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

const ruleWidth = 40

type textRenderer struct{}

func (textRenderer) ContentType() string { return "text/plain; charset=utf-8" }
func (textRenderer) Extension() string   { return "txt" }

func (textRenderer) Render(w io.Writer, snap Snapshot, style Style) error {
	l := style.Locale.Labels
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, style.Title)
	fmt.Fprintln(bw, strings.Repeat("=", utf8.RuneCountInString(style.Title)))
	fmt.Fprintf(bw, "%s: %s\n", l.GeneratedAt, style.Date(snap.GeneratedAt))
	fmt.Fprintf(bw, "%s: %d\n", l.Total, snap.Total)
	fmt.Fprintln(bw)

	if len(snap.Records) == 0 {
		fmt.Fprintln(bw, l.Empty)
		return bw.Flush()
	}

	rule := strings.Repeat("-", ruleWidth)
	for _, r := range snap.Records {
		fmt.Fprintf(bw, "%s %s (%s)\n", style.Locale.Ordinal(r.Rank), r.PlayerName, r.PlayerAge)
		fmt.Fprintf(bw, "   %s: %s\n", l.School, r.PlayerSchool)
		fmt.Fprintf(bw, "   %s: %d | %s: %d\n", l.Score, r.Score, l.Level, r.Level)
		fmt.Fprintf(bw, "   %s: %s\n", l.Date, style.Date(r.SubmittedAt))
		fmt.Fprintln(bw, rule)
	}
	return bw.Flush()
}
