package libzfs

import (
	"strconv"
	"strings"
)

// MountEntry is one line of a mount table in /proc/mounts format.
type MountEntry struct {
	Source  string
	Target  string
	FSType  string
	Options string
}

// ReadOnly reports whether the entry was mounted read-only.
func (m MountEntry) ReadOnly() bool {
	for _, opt := range strings.Split(m.Options, ",") {
		if opt == "ro" {
			return true
		}
	}
	return false
}

// ParseMountTable parses data in /proc/mounts format. Malformed lines are
// skipped.
func ParseMountTable(data []byte) []MountEntry {
	var entries []MountEntry
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		entries = append(entries, MountEntry{
			Source:  unescapeMountField(fields[0]),
			Target:  unescapeMountField(fields[1]),
			FSType:  fields[2],
			Options: fields[3],
		})
	}
	return entries
}

// FormatMountTable renders entries in /proc/mounts format.
func FormatMountTable(entries []MountEntry) []byte {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(escapeMountField(e.Source))
		b.WriteByte(' ')
		b.WriteString(escapeMountField(e.Target))
		b.WriteByte(' ')
		b.WriteString(e.FSType)
		b.WriteByte(' ')
		b.WriteString(e.Options)
		b.WriteString(" 0 0\n")
	}
	return []byte(b.String())
}

// unescapeMountField decodes the \ooo octal escapes the kernel uses for
// whitespace and backslashes.
func unescapeMountField(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+4 <= len(s) {
			if v, err := strconv.ParseUint(s[i+1:i+4], 8, 8); err == nil {
				b.WriteByte(byte(v))
				i += 3
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func escapeMountField(s string) string {
	r := strings.NewReplacer(`\`, `\134`, " ", `\040`, "\t", `\011`, "\n", `\012`)
	return r.Replace(s)
}
