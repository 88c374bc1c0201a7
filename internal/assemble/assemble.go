// # internal/assemble/assemble.go
package assemble

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"opsboard/internal/payload"
	"opsboard/internal/shared/util"
)

// Generate produces the self-contained dashboard page: markup, style,
// behaviour and the serialized record payload concatenated into one
// artifact. The page needs no server; Chart.js loads from CDN and the
// data travels inline, so opening the file is the whole deployment.
func Generate(doc *payload.Document) (string, error) {
	data, err := payload.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("assemble: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<meta http-equiv="refresh" content="60">
<title>Opsboard — Service Metrics</title>
<script src="https://cdn.jsdelivr.net/npm/chart.js@4.4.1/dist/chart.umd.min.js"></script>
<style>
`)
	sb.WriteString(styleChunk)
	sb.WriteString(`</style>
</head>
<body>
`)
	sb.WriteString(bodyChunk)
	sb.WriteString(`<script>
const D = `)
	sb.Write(data)
	sb.WriteString(`;
`)
	sb.WriteString(scriptChunk)
	sb.WriteString(`</script>
</body>
</html>
`)
	return sb.String(), nil
}

// Write puts the artifact on disk, creating parent directories.
func Write(path, html string) error {
	return util.WriteStringWithDirs(path, html, 0644)
}

// Publish copies the artifact into the publish directory, keeping the
// file name. Returns the destination path.
func Publish(artifactPath, publishDir string) (string, error) {
	src, err := os.Open(artifactPath)
	if err != nil {
		return "", fmt.Errorf("assemble: open artifact: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(publishDir, 0755); err != nil {
		return "", fmt.Errorf("assemble: create publish dir: %w", err)
	}

	dest := filepath.Join(publishDir, filepath.Base(artifactPath))
	out, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("assemble: create published copy: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return "", fmt.Errorf("assemble: copy artifact: %w", err)
	}
	return dest, nil
}
