package knowledge

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/arthmitra/internal/models"
)

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFile_Text(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, "schemes.md", "# NPS\nNational Pension System.")

	docs, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, path, docs[0].Source)
	assert.Nil(t, docs[0].Page)
	assert.Equal(t, "# NPS\nNational Pension System.", docs[0].Text)

	empty := writeDoc(t, dir, "empty.txt", "  \n")
	docs, err = LoadFile(empty)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestLoadFile_CSVRows(t *testing.T) {
	path := writeDoc(t, t.TempDir(), "slabs.csv", "Income,Rate\n0-3 lakh,Nil\n3-7 lakh,5%\n")

	docs, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "Income: 0-3 lakh\nRate: Nil", docs[0].Text)
	assert.Equal(t, "Income: 3-7 lakh\nRate: 5%", docs[1].Text)
}

func TestLoadFile_Unsupported(t *testing.T) {
	path := writeDoc(t, t.TempDir(), "notes.docx", "x")

	_, err := LoadFile(path)
	assert.True(t, errors.Is(err, models.ErrUnsupportedFileType))
}

func TestLoadFile_MissingPDF(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.pdf"))
	assert.Error(t, err)
}

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported("a/b/Tax.PDF"))
	assert.True(t, IsSupported("x.md"))
	assert.False(t, IsSupported("x.json"))
	assert.False(t, IsSupported("README"))
}
