package output

import (
	"fmt"

	"opsboard/internal/payload"
	"opsboard/internal/shared/util"
)

// WritePayload serializes the document compactly to path. The file is
// the machine-readable sibling of the dashboard artifact and carries
// the exact records the page embeds.
func WritePayload(path string, doc *payload.Document) error {
	data, err := payload.Marshal(doc)
	if err != nil {
		return fmt.Errorf("output: %w", err)
	}
	if err := util.WriteFileWithDirs(path, data, 0644); err != nil {
		return fmt.Errorf("output: write payload: %w", err)
	}
	return nil
}
