package feed

import (
	"io"
	"strings"
)

// writeAllQuoted writes rows as CSV with every field quoted, which the
// feed consumer requires. encoding/csv's Writer only quotes fields that
// need it, so rows are serialized by hand here.
func writeAllQuoted(w io.Writer, rows [][]string) error {
	var b strings.Builder
	for _, row := range rows {
		for i, field := range row {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('"')
			b.WriteString(strings.ReplaceAll(field, `"`, `""`))
			b.WriteByte('"')
		}
		b.WriteString("\r\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}
