package refsolver

import (
	"fmt"
	"os"
	"strings"
)

// writeLP dumps the model's rows and objective in a plain-text format,
// one row per line, for debugging and checkpointing. It is not a
// standard LP-format writer.
func writeLP(filename string, m *Model) error {
	var b strings.Builder
	fmt.Fprintf(&b, "obj: %v\n", m.obj)
	for i, r := range m.rows {
		fmt.Fprintf(&b, "row %d: %v %s %v\n", i, m.a[i], r.sense, r.rhs)
	}
	return os.WriteFile(filename, []byte(b.String()), 0o644)
}
