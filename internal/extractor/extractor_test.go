package extractor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSupported(t *testing.T) {
	tests := []struct {
		filename string
		want     bool
	}{
		{"report.pdf", true},
		{"report.docx", true},
		{"legacy.doc", true},
		{"sheet.xlsx", true},
		{"deck.pptx", true},
		{"notes.txt", true},
		{"data.csv", true},
		{"scan.TIFF", true},
		{"photo.JPG", true},
		{"archive.zip", false},
		{"page.html", false},
		{"binary.exe", false},
		{"noextension", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSupported(tt.filename))
		})
	}
}

func TestSupportedExtensions_ReturnsCopy(t *testing.T) {
	a := SupportedExtensions()
	a[0] = ".tampered"
	b := SupportedExtensions()
	assert.Equal(t, ".pdf", b[0])
}

func TestExtract_PlainText(t *testing.T) {
	e := New()

	text, err := e.Extract(context.Background(), "notes.txt", []byte("meeting notes from q3"))
	require.NoError(t, err)
	assert.Equal(t, "meeting notes from q3", text)

	csv, err := e.Extract(context.Background(), "data.csv", []byte("a,b,c\n1,2,3"))
	require.NoError(t, err)
	assert.Equal(t, "a,b,c\n1,2,3", csv)
}

func TestExtract_UnsupportedType(t *testing.T) {
	e := New()
	_, err := e.Extract(context.Background(), "archive.zip", []byte("data"))
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestExtract_EmptyDocument(t *testing.T) {
	e := New()
	_, err := e.Extract(context.Background(), "blank.txt", []byte("   \n\t "))
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestExtract_CancelledContext(t *testing.T) {
	e := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Extract(ctx, "notes.txt", []byte("content"))
	assert.ErrorIs(t, err, context.Canceled)
}
