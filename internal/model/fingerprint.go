package model

import (
	"hash/fnv"
	"sort"
	"strings"
)

// Fingerprint computes the stable hash of an alert's semantic identity: the
// title plus its label bag, independent of any particular instance. Two
// alerts with the same title and labels collapse to the same fingerprint
// regardless of vendor event id or timestamp.
func Fingerprint(title string, labels map[string]string) string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(title)
	for _, k := range keys {
		b.WriteByte('\x00')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(labels[k])
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(b.String()))
	return fnvToHex(h.Sum64())
}

func fnvToHex(v uint64) string {
	const hexDigits = "0123456789abcdef"
	buf := make([]byte, 16)
	for i := 15; i >= 0; i-- {
		buf[i] = hexDigits[v&0xf]
		v >>= 4
	}
	return string(buf)
}
