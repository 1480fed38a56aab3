// Package format renders clipboard bodies for terminal display: colored
// kind headers, short single-line previews and human-readable sizes.
package format

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/berrythewa/clipstream"
)

// Preview creates a short single-line preview of a body, truncated to
// maxLen runes.
func Preview(b *clipstream.Body, maxLen int) string {
	if b == nil {
		return "(no content)"
	}

	switch b.Kind {
	case clipstream.KindText, clipstream.KindHTML:
		return TruncateText(CollapseSpace(b.Text), maxLen)
	case clipstream.KindImage:
		if b.SourcePath != "" {
			return TruncateText(fmt.Sprintf("[PNG %s from %s]",
				Size(int64(len(b.Data))), filepath.Base(b.SourcePath)), maxLen)
		}
		return fmt.Sprintf("[PNG %s]", Size(int64(len(b.Data))))
	case clipstream.KindRawImage:
		return fmt.Sprintf("[image %dx%d %s]", b.Width, b.Height, Size(int64(len(b.Data))))
	case clipstream.KindFileList:
		return previewFileList(b.Paths, maxLen)
	case clipstream.KindCustom:
		return fmt.Sprintf("[%s %s]", b.Format, Size(int64(len(b.Data))))
	}
	return string(b.Kind)
}

func previewFileList(paths []string, maxLen int) string {
	if len(paths) == 0 {
		return "(no files)"
	}
	if len(paths) == 1 {
		return TruncateText(paths[0], maxLen)
	}
	return TruncateText(fmt.Sprintf("%s (+%d more)", paths[0], len(paths)-1), maxLen)
}

// Describe formats a body for display: a kind header with icon and color,
// plus a preview. Compact mode keeps it to one line.
func Describe(b *clipstream.Body, opts Options) string {
	if b == nil {
		return ColorizeIf("(no content)", Gray, opts.UseColors)
	}

	kind := string(b.Kind)
	if color, ok := KindColors[b.Kind]; ok {
		kind = ColorizeIf(kind, color, opts.UseColors)
	}
	if opts.UseIcons {
		if icon, ok := KindIcons[b.Kind]; ok {
			kind = icon + " " + kind
		}
	}

	preview := Preview(b, opts.MaxWidth)
	if opts.Compact {
		return kind + " " + DimIf(preview, opts.UseColors)
	}

	parts := []string{kind, DimIf(preview, opts.UseColors)}
	if size := BodySize(b); size > 0 {
		parts = append(parts, DimIf("Size: "+Size(size), opts.UseColors))
	}
	if b.SourcePath != "" {
		parts = append(parts, DimIf("Source: "+b.SourcePath, opts.UseColors))
	}
	return strings.Join(parts, "\n")
}

// BodySize returns the payload byte count of the representation carried.
func BodySize(b *clipstream.Body) int64 {
	switch b.Kind {
	case clipstream.KindText, clipstream.KindHTML:
		return int64(len(b.Text))
	default:
		return int64(len(b.Data))
	}
}
