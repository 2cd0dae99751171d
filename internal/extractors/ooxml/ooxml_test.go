package ooxml

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParagraphs_Word(t *testing.T) {
	doc := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>
<w:p><w:r><w:t>Hello </w:t></w:r><w:r><w:t>World</w:t></w:r></w:p>
<w:p/>
<w:p><w:r><w:t>Second</w:t><w:tab/><w:t>line</w:t></w:r></w:p>
</w:body></w:document>`

	paras, err := Paragraphs([]byte(doc), "")

	require.NoError(t, err)
	assert.Equal(t, []string{"Hello World", "", "Second\tline"}, paras)
}

func TestParagraphs_Drawing(t *testing.T) {
	slide := `<p:sld xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">
<p:cSld><p:spTree><p:sp><p:txBody>
<a:p><a:r><a:t>Quarterly</a:t></a:r><a:r><a:t>Review</a:t></a:r></a:p>
<a:p><a:fld type="slidenum"><a:t>3</a:t></a:fld></a:p>
</p:txBody></p:sp></p:spTree></p:cSld></p:sld>`

	paras, err := Paragraphs([]byte(slide), " ")

	require.NoError(t, err)
	assert.Equal(t, []string{"Quarterly Review", "3"}, paras)
}

func TestParagraphs_IgnoresTextOutsideT(t *testing.T) {
	doc := `<w:document xmlns:w="w"><w:p><w:r><w:instrText>PAGE</w:instrText><w:t>body</w:t></w:r></w:p></w:document>`

	paras, err := Paragraphs([]byte(doc), "")

	require.NoError(t, err)
	assert.Equal(t, []string{"body"}, paras)
}

func TestParagraphs_Malformed(t *testing.T) {
	_, err := Paragraphs([]byte(`<w:p><w:r>`), "")

	assert.Error(t, err)
}

func TestReadPart(t *testing.T) {
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)
	f, err := w.Create("word/document.xml")
	require.NoError(t, err)
	_, _ = f.Write([]byte("<doc/>"))
	require.NoError(t, w.Close())

	zr, err := Open(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	data, err := ReadPart(zr, "word/document.xml")
	require.NoError(t, err)
	assert.Equal(t, "<doc/>", string(data))

	_, err = ReadPart(zr, "missing.xml")
	assert.ErrorIs(t, err, ErrPartNotFound)
}

func TestOpen_NotZip(t *testing.T) {
	data := []byte("plain text")

	_, err := Open(bytes.NewReader(data), int64(len(data)))

	assert.Error(t, err)
}
