package extract

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestSupported(t *testing.T) {
	assert.True(t, Supported(".txt"))
	assert.True(t, Supported(".PDF"))
	assert.True(t, Supported(".Docx"))
	assert.False(t, Supported(".exe"))
	assert.False(t, Supported(""))
}

func TestExtractText_Plain(t *testing.T) {
	e := NewExtractor()

	text, err := e.ExtractText([]byte("hello world"), "notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)

	text, err = e.ExtractText([]byte("# Title\nbody"), "readme.md")
	require.NoError(t, err)
	assert.Equal(t, "# Title\nbody", text)
}

func TestExtractText_UnknownExtensionTreatedAsPlain(t *testing.T) {
	e := NewExtractor()

	text, err := e.ExtractText([]byte("raw"), "object-without-known-ext.data")
	require.NoError(t, err)
	assert.Equal(t, "raw", text)
}

func TestExtractText_InvalidUTF8(t *testing.T) {
	e := NewExtractor()

	_, err := e.ExtractText([]byte{0xff, 0xfe, 0xfd}, "broken.txt")
	assert.Error(t, err)
}

func TestExtractText_CSV(t *testing.T) {
	e := NewExtractor()
	content := []byte("name,age\nalice,30\nbob,41\n")

	text, err := e.ExtractText(content, "people.csv")

	require.NoError(t, err)
	assert.Equal(t, "name\tage\nalice\t30\nbob\t41", text)
}

func TestExtractText_CSVRaggedRows(t *testing.T) {
	e := NewExtractor()
	content := []byte("a,b,c\nd,e\n")

	text, err := e.ExtractText(content, "ragged.csv")

	require.NoError(t, err)
	assert.Equal(t, "a\tb\tc\nd\te", text)
}

func TestExtractText_DOCX(t *testing.T) {
	e := NewExtractor()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(`<w:document><w:body><w:p><w:r><w:t>Hello</w:t></w:r><w:r><w:t xml:space="preserve"> docx</w:t></w:r></w:p></w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	text, err := e.ExtractText(buf.Bytes(), "doc.docx")

	require.NoError(t, err)
	assert.Contains(t, text, "Hello")
	assert.Contains(t, text, "docx")
}

func TestExtractText_DOCXNotZip(t *testing.T) {
	e := NewExtractor()

	_, err := e.ExtractText([]byte("definitely not a zip"), "doc.docx")
	assert.Error(t, err)
}

func TestExtractText_Excel(t *testing.T) {
	e := NewExtractor()

	wb := excelize.NewFile()
	require.NoError(t, wb.SetCellValue("Sheet1", "A1", "name"))
	require.NoError(t, wb.SetCellValue("Sheet1", "B1", "city"))
	require.NoError(t, wb.SetCellValue("Sheet1", "A2", "alice"))
	require.NoError(t, wb.SetCellValue("Sheet1", "B2", "paris"))

	var buf bytes.Buffer
	require.NoError(t, wb.Write(&buf))

	text, err := e.ExtractText(buf.Bytes(), "data.xlsx")

	require.NoError(t, err)
	assert.Contains(t, text, "name\tcity")
	assert.Contains(t, text, "alice\tparis")
}

func TestExtractText_PDFInvalid(t *testing.T) {
	e := NewExtractor()

	_, err := e.ExtractText([]byte("not a pdf"), "doc.pdf")
	assert.Error(t, err)
}
