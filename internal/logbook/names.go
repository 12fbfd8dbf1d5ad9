package logbook

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SanitizeName maps an attachment name onto the archive-safe character set
// [A-Za-z0-9_.- ]. Disallowed characters and spaces become underscores,
// runs collapse, and an empty result falls back to "attachment".
func SanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := b.String()
	for strings.Contains(out, "__") {
		out = strings.ReplaceAll(out, "__", "_")
	}
	out = strings.Trim(out, "_")
	if strings.Trim(out, "._") == "" {
		return "attachment"
	}
	return out
}

// BackupFilename generates the name for a backup written through the
// destination chain, e.g. shiplog-backup-20260830-1a2b3c4d.zip. The short
// random suffix keeps multiple manual backups on the same day apart.
func BackupFilename(now time.Time, ext string) string {
	return fmt.Sprintf("shiplog-backup-%s-%s.%s",
		now.UTC().Format("20060102"), uuid.NewString()[:8], ext)
}
