package cache

import (
	"fmt"
	"strings"
	"time"
)

// Key joins prefix and params with ':'. Times render as YYYYMMDD, so two
// requests for the same daily window share a key whatever their clock time.
func Key(prefix string, params ...interface{}) string {
	var b strings.Builder
	b.WriteString(prefix)
	for _, p := range params {
		b.WriteByte(':')
		switch v := p.(type) {
		case time.Time:
			b.WriteString(v.UTC().Format("20060102"))
		case string:
			b.WriteString(strings.ReplaceAll(v, " ", "_"))
		default:
			fmt.Fprintf(&b, "%v", v)
		}
	}
	return b.String()
}
