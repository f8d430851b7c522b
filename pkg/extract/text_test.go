package extract

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artem13815/cogniscan/pkg/document"
)

func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestText_Txt(t *testing.T) {
	text, warnings, err := Text("txt", []byte("Hello\r\nWorld"))
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "Hello\nWorld", text)
}

func TestText_TxtLatin1(t *testing.T) {
	// "Résumé" in ISO 8859-1
	data := []byte{0x52, 0xE9, 0x73, 0x75, 0x6D, 0xE9}
	text, warnings, err := Text("txt", data)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "Résumé", text)
}

func TestText_TypeTagCaseInsensitive(t *testing.T) {
	text, _, err := Text("TXT", []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
}

func TestText_UnsupportedType(t *testing.T) {
	_, _, err := Text("exe", []byte("whatever"))
	require.Error(t, err)
	assert.ErrorIs(t, err, document.ErrUnsupportedType)
	assert.Contains(t, err.Error(), "exe")
}

func TestText_Docx(t *testing.T) {
	data := buildDocx(t, `<w:document><w:body><w:p><w:r><w:t>Hello</w:t></w:r></w:p><w:p><w:r><w:t>World</w:t></w:r></w:p></w:body></w:document>`)
	text, warnings, err := Text("docx", data)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "Hello\nWorld", text)
}

func TestText_DocxWithoutDocumentXML(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, err := zw.Create("unrelated.txt")
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	text, warnings, err := Text("docx", buf.Bytes())
	require.NoError(t, err)
	require.NotEmpty(t, warnings)
	assert.Contains(t, warnings[0], "docx parse failed")
	assert.NotEmpty(t, text) // zip bytes decoded as text, garbage but present
}

func TestText_DocxFallsBackToPlainText(t *testing.T) {
	text, warnings, err := Text("docx", []byte("just ordinary text"))
	require.NoError(t, err)
	require.NotEmpty(t, warnings)
	assert.Equal(t, "just ordinary text", text)
}

func TestText_PdfDegradesToEmpty(t *testing.T) {
	text, warnings, err := Text("pdf", []byte("this is not a pdf at all"))
	require.NoError(t, err)
	assert.Equal(t, "", text)
	assert.NotEmpty(t, warnings)
}

func TestNormalizeText(t *testing.T) {
	got := normalizeText("A  B\t C\n\n\n\nD \n E")
	assert.Equal(t, "A B C\n\nD\nE", got)
}

func TestNormalizeText_KeepsParagraphBoundary(t *testing.T) {
	got := normalizeText("first para\n\nsecond para\n")
	assert.Equal(t, "first para\n\nsecond para", got)
}
