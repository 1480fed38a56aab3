package clipstream

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeSource scripts each tier's outcome and records the order tiers were
// consulted in. Unscripted tiers report the format as not offered.
type fakeSource struct {
	customFn func(f Format, limit int64) ([]byte, error)
	pngFn    func(limit int64) ([]byte, error)
	rawFn    func(limit int64) ([]byte, int, int, error)
	filesFn  func() ([]string, error)
	htmlFn   func() (string, error)
	textFn   func() (string, error)

	reads []string
}

func (s *fakeSource) customData(f Format, limit int64) ([]byte, error) {
	s.reads = append(s.reads, "custom:"+f.Name)
	if s.customFn == nil {
		return nil, errFormatAbsent
	}
	return s.customFn(f, limit)
}

func (s *fakeSource) pngData(limit int64) ([]byte, error) {
	s.reads = append(s.reads, "png")
	if s.pngFn == nil {
		return nil, errFormatAbsent
	}
	return s.pngFn(limit)
}

func (s *fakeSource) rawImage(limit int64) ([]byte, int, int, error) {
	s.reads = append(s.reads, "raw")
	if s.rawFn == nil {
		return nil, 0, 0, errFormatAbsent
	}
	return s.rawFn(limit)
}

func (s *fakeSource) fileList() ([]string, error) {
	s.reads = append(s.reads, "files")
	if s.filesFn == nil {
		return nil, errFormatAbsent
	}
	return s.filesFn()
}

func (s *fakeSource) htmlText() (string, error) {
	s.reads = append(s.reads, "html")
	if s.htmlFn == nil {
		return "", errFormatAbsent
	}
	return s.htmlFn()
}

func (s *fakeSource) plainText() (string, error) {
	s.reads = append(s.reads, "text")
	if s.textFn == nil {
		return "", errFormatAbsent
	}
	return s.textFn()
}

func newTestExtractor(customs ...Format) *extractor {
	return &extractor{customs: customs, log: zap.NewNop()}
}

func TestResolve_PriorityOrder(t *testing.T) {
	// Everything below PNG is offered too; PNG must win.
	src := &fakeSource{
		pngFn:   func(int64) ([]byte, error) { return []byte("png-bytes"), nil },
		filesFn: func() ([]string, error) { return []string{"/tmp/a", "/tmp/b"}, nil },
		htmlFn:  func() (string, error) { return "<b>hi</b>", nil },
		textFn:  func() (string, error) { return "hi", nil },
	}

	body, err := newTestExtractor().resolve(src, nil)
	require.NoError(t, err)
	require.NotNil(t, body)
	assert.Equal(t, KindImage, body.Kind)
	assert.Equal(t, []byte("png-bytes"), body.Data)
	assert.Empty(t, body.SourcePath, "a multi-entry file list is not an origin hint")
}

func TestResolve_HTMLBeatsText(t *testing.T) {
	src := &fakeSource{
		htmlFn: func() (string, error) { return "<p>rich</p>", nil },
		textFn: func() (string, error) { return "plain", nil },
	}

	body, err := newTestExtractor().resolve(src, nil)
	require.NoError(t, err)
	assert.Equal(t, KindHTML, body.Kind)
	assert.Equal(t, "<p>rich</p>", body.Text)
}

func TestResolve_FileListBeatsHTML(t *testing.T) {
	src := &fakeSource{
		filesFn: func() ([]string, error) { return []string{"/home/u/doc.pdf"}, nil },
		htmlFn:  func() (string, error) { return "<p>rich</p>", nil },
	}

	body, err := newTestExtractor().resolve(src, nil)
	require.NoError(t, err)
	assert.Equal(t, KindFileList, body.Kind)
	assert.Equal(t, []string{"/home/u/doc.pdf"}, body.Paths)
}

func TestResolve_CustomBeatsBuiltins(t *testing.T) {
	second := Format{Name: "application/x-second", ID: 2}

	src := &fakeSource{
		customFn: func(f Format, _ int64) ([]byte, error) {
			if f.Name == second.Name {
				return []byte("second"), nil
			}
			return nil, errFormatAbsent
		},
		pngFn: func(int64) ([]byte, error) { return []byte("png"), nil },
	}

	first := Format{Name: "application/x-first", ID: 1}
	body, err := newTestExtractor(first, second).resolve(src, nil)
	require.NoError(t, err)
	assert.Equal(t, KindCustom, body.Kind)
	assert.Equal(t, "application/x-second", body.Format)
	assert.Equal(t, []byte("second"), body.Data)
	assert.Equal(t, []string{"custom:application/x-first", "custom:application/x-second"}, src.reads,
		"customs are consulted in caller order, ahead of any built-in tier")
}

func TestResolve_FirstCustomWins(t *testing.T) {
	first := Format{Name: "application/x-first", ID: 1}
	second := Format{Name: "application/x-second", ID: 2}

	src := &fakeSource{
		customFn: func(f Format, _ int64) ([]byte, error) { return []byte(f.Name), nil },
	}

	body, err := newTestExtractor(first, second).resolve(src, nil)
	require.NoError(t, err)
	assert.Equal(t, "application/x-first", body.Format)
	assert.Equal(t, []string{"custom:application/x-first"}, src.reads,
		"later tiers are never consulted after a hit")
}

func TestResolve_RawImage(t *testing.T) {
	src := &fakeSource{
		rawFn: func(int64) ([]byte, int, int, error) {
			return []byte{255, 0, 0, 0, 255, 0}, 2, 1, nil
		},
	}

	body, err := newTestExtractor().resolve(src, nil)
	require.NoError(t, err)
	assert.Equal(t, KindRawImage, body.Kind)
	assert.Equal(t, 2, body.Width)
	assert.Equal(t, 1, body.Height)
	assert.Len(t, body.Data, 6)
}

func TestResolve_EmptyTierFallsThrough(t *testing.T) {
	src := &fakeSource{
		pngFn:  func(int64) ([]byte, error) { return nil, errEmptyContent },
		textFn: func() (string, error) { return "fallback", nil },
	}

	body, err := newTestExtractor().resolve(src, nil)
	require.NoError(t, err)
	require.NotNil(t, body)
	assert.Equal(t, KindText, body.Kind)
	assert.Equal(t, "fallback", body.Text)
}

func TestResolve_OversizeTierFallsThrough(t *testing.T) {
	var gotLimit int64
	x := newTestExtractor()
	x.maxImageSize = 16

	src := &fakeSource{
		pngFn: func(limit int64) ([]byte, error) {
			gotLimit = limit
			return nil, errSizeExceeded
		},
		htmlFn: func() (string, error) { return "<p>small</p>", nil },
	}

	body, err := x.resolve(src, nil)
	require.NoError(t, err)
	assert.Equal(t, KindHTML, body.Kind)
	assert.Equal(t, int64(16), gotLimit, "the image limit is handed to the tier read")
}

func TestResolve_CustomLimitPlumbed(t *testing.T) {
	var gotLimit int64
	x := newTestExtractor(Format{Name: "application/x-big", ID: 9})
	x.maxSize = 64

	src := &fakeSource{
		customFn: func(_ Format, limit int64) ([]byte, error) {
			gotLimit = limit
			return nil, errSizeExceeded
		},
		textFn: func() (string, error) { return "small", nil },
	}

	body, err := x.resolve(src, nil)
	require.NoError(t, err)
	assert.Equal(t, KindText, body.Kind)
	assert.Equal(t, int64(64), gotLimit)
}

func TestResolve_AllSkippedProducesNoEvent(t *testing.T) {
	src := &fakeSource{
		pngFn:  func(int64) ([]byte, error) { return nil, errSizeExceeded },
		htmlFn: func() (string, error) { return "", errEmptyContent },
	}

	body, err := newTestExtractor().resolve(src, nil)
	assert.Nil(t, body)
	assert.NoError(t, err, "a change whose offered formats were all empty or oversize is silent")
}

func TestResolve_NothingOffered(t *testing.T) {
	src := &fakeSource{}

	body, err := newTestExtractor().resolve(src, nil)
	assert.Nil(t, body)
	assert.ErrorIs(t, err, ErrNoMatchingFormat)
}

func TestResolve_HardFailureBecomesReadError(t *testing.T) {
	boom := errors.New("transfer timed out")
	src := &fakeSource{
		htmlFn: func() (string, error) { return "", boom },
		textFn: func() (string, error) { return "never reached", nil },
	}

	body, err := newTestExtractor().resolve(src, nil)
	assert.Nil(t, body)

	var readErr *ReadError
	require.ErrorAs(t, err, &readErr)
	assert.Equal(t, "html", readErr.Format)
	assert.ErrorIs(t, err, boom)
	assert.NotContains(t, src.reads, "text", "the failing cycle stops at the failed tier")
}

func TestResolve_ImageSourcePath(t *testing.T) {
	src := &fakeSource{
		pngFn:   func(int64) ([]byte, error) { return []byte("png"), nil },
		filesFn: func() ([]string, error) { return []string{"/tmp/shot.png"}, nil },
	}

	body, err := newTestExtractor().resolve(src, nil)
	require.NoError(t, err)
	assert.Equal(t, KindImage, body.Kind)
	assert.Equal(t, "/tmp/shot.png", body.SourcePath,
		"a single-entry file list names the image's origin")
}

func TestResolve_GatekeeperVeto(t *testing.T) {
	catalog := newFormats(1)
	catalog.add(Format{Name: "UTF8_STRING", ID: 42})

	called := false
	x := newTestExtractor()
	x.gatekeeper = func(ctx *Context) bool {
		called = true
		assert.True(t, ctx.HasFormat("UTF8_STRING"))
		return false
	}

	src := &fakeSource{
		textFn: func() (string, error) { return "secret", nil },
	}

	body, err := x.resolve(src, &Context{formats: catalog})
	assert.True(t, called)
	assert.Nil(t, body)
	assert.NoError(t, err)
	assert.Empty(t, src.reads, "a vetoed change reads no content at all")
}

func TestResolve_GatekeeperAccepts(t *testing.T) {
	x := newTestExtractor()
	x.gatekeeper = func(*Context) bool { return true }

	src := &fakeSource{
		textFn: func() (string, error) { return "visible", nil },
	}

	body, err := x.resolve(src, &Context{formats: newFormats(0)})
	require.NoError(t, err)
	require.NotNil(t, body)
	assert.Equal(t, "visible", body.Text)
}
