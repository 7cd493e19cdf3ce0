package export

import (
	"archive/zip"
	"fmt"
	"io"
	"strings"
	"unicode"

	"ext_builder_server/internal/metrics"
	"ext_builder_server/internal/types"

	"github.com/klauspost/compress/flate"
)

// Export formats, used as metrics labels.
const (
	FormatZip      = "zip"
	FormatUnpacked = "unpacked"
)

const archiveSuffix = "_extension.zip"

// ArchiveName is the download name for a result: every run of whitespace in
// name becomes a single underscore, path separators become underscores and
// leading dots are dropped, so the name never leaves its directory.
func ArchiveName(name string) string {
	var b strings.Builder
	inSpace := false
	for _, r := range name {
		if unicode.IsSpace(r) {
			if !inSpace {
				b.WriteByte('_')
			}
			inSpace = true
			continue
		}
		inSpace = false
		b.WriteRune(r)
	}
	base := separatorReplacer.Replace(b.String())
	return strings.TrimLeft(base, ".") + archiveSuffix
}

var separatorReplacer = strings.NewReplacer("/", "_", "\\", "_")

// WriteZip writes one archive entry per file, in result order.
func WriteZip(w io.Writer, result types.ExtensionResult) (err error) {
	defer func() { metrics.IncExport(FormatZip, err) }()

	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})

	for _, f := range result.Files {
		entry, err := zw.CreateHeader(&zip.FileHeader{
			Name:   f.Path,
			Method: zip.Deflate,
		})
		if err != nil {
			return fmt.Errorf("failed to create zip entry %s: %w", f.Path, err)
		}
		if _, err := io.WriteString(entry, f.Content); err != nil {
			return fmt.Errorf("failed to write zip entry %s: %w", f.Path, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize zip archive: %w", err)
	}
	return nil
}
