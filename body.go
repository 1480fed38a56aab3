package clipstream

import "fmt"

// Kind identifies which clipboard representation a Body carries.
type Kind string

const (
	KindText     Kind = "text"
	KindHTML     Kind = "html"
	KindImage    Kind = "image"     // encoded PNG
	KindRawImage Kind = "raw_image" // decoded 8-bit RGB rows
	KindFileList Kind = "file_list"
	KindCustom   Kind = "custom"
)

// Body is one clipboard snapshot, reduced to its single highest-priority
// representation. The same *Body value is delivered to every subscriber, so
// treat it as immutable.
type Body struct {
	Kind Kind `json:"kind"`

	// Text holds the payload for KindText and KindHTML.
	Text string `json:"text,omitempty"`

	// Data holds PNG bytes for KindImage, tightly packed 8-bit RGB rows for
	// KindRawImage, and the raw payload for KindCustom.
	Data []byte `json:"data,omitempty"`

	// Width and Height are set for KindRawImage.
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`

	// Format is the native format name for KindCustom.
	Format string `json:"format,omitempty"`

	// Paths holds the entries of KindFileList.
	Paths []string `json:"paths,omitempty"`

	// SourcePath optionally names the file an image was copied from. It is
	// filled when the clipboard offers a single-entry file list alongside
	// image data.
	SourcePath string `json:"source_path,omitempty"`
}

func newTextBody(s string) *Body { return &Body{Kind: KindText, Text: s} }

func newHTMLBody(s string) *Body { return &Body{Kind: KindHTML, Text: s} }

func newImageBody(png []byte, sourcePath string) *Body {
	return &Body{Kind: KindImage, Data: png, SourcePath: sourcePath}
}

func newRawImageBody(pix []byte, width, height int, sourcePath string) *Body {
	return &Body{Kind: KindRawImage, Data: pix, Width: width, Height: height, SourcePath: sourcePath}
}

func newFileListBody(paths []string) *Body { return &Body{Kind: KindFileList, Paths: paths} }

func newCustomBody(name string, data []byte) *Body {
	return &Body{Kind: KindCustom, Format: name, Data: data}
}

// String returns a short description suitable for logging.
func (b *Body) String() string {
	switch b.Kind {
	case KindText:
		return fmt.Sprintf("text (%s)", humanBytes(int64(len(b.Text))))
	case KindHTML:
		return fmt.Sprintf("html (%s)", humanBytes(int64(len(b.Text))))
	case KindImage:
		if b.SourcePath != "" {
			return fmt.Sprintf("png image (%s, from %s)", humanBytes(int64(len(b.Data))), b.SourcePath)
		}
		return fmt.Sprintf("png image (%s)", humanBytes(int64(len(b.Data))))
	case KindRawImage:
		return fmt.Sprintf("raw image %dx%d (%s)", b.Width, b.Height, humanBytes(int64(len(b.Data))))
	case KindFileList:
		return fmt.Sprintf("file list (%d entries)", len(b.Paths))
	case KindCustom:
		return fmt.Sprintf("custom %q (%s)", b.Format, humanBytes(int64(len(b.Data))))
	}
	return string(b.Kind)
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
