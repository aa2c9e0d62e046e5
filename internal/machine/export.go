// export.go serializes the effective machine table back to YAML, so users
// can start a custom table from the built-ins.
package machine

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// exportHeader is written before the generated YAML.
const exportHeader = "# Machine table exported by cardpunch. Dimensions are in inches.\n"

// Export writes r as a version 1 YAML machine table. The output loads back
// through LoadFile into an equal registry.
func (r *Registry) Export(w io.Writer) error {
	if _, err := io.WriteString(w, exportHeader); err != nil {
		return err
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	t := table{Version: currentVersion, Machines: r.Profiles()}
	if err := enc.Encode(&t); err != nil {
		return fmt.Errorf("failed to encode machine table: %w", err)
	}
	return enc.Close()
}
