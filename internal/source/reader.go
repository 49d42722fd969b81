package source

import (
	"encoding/json"
	"fmt"
	"os"
)

// ReadBatch loads a JSON array of extraction documents from path. The whole
// batch is held in memory; a file that cannot be read or parsed is a fatal,
// run-level error rather than a per-document one.
func ReadBatch(path string) ([]Doc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read batch file: %w", err)
	}
	var docs []Doc
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("parse batch file %s: %w", path, err)
	}
	return docs, nil
}
