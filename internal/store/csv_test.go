package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"springwatch/internal/domain"
)

func sampleListings() []domain.Listing {
	return []domain.Listing{
		{Company: "Acme", Title: "Dev", Category: "Tech", URL: "u1"},
		{Company: "Globex, Inc.", Title: `QA "Spring"`, Category: "Tech", URL: "u2"},
	}
}

func TestWriteListings_Format(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listings.csv")

	got, n, err := WriteListings(path, sampleListings())
	require.NoError(t, err)
	assert.Equal(t, path, got)
	assert.Equal(t, 2, n)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	want := "Company,Title,Category,Url\n" +
		"Acme,Dev,Tech,u1\n" +
		`"Globex, Inc.","QA ""Spring""",Tech,u2` + "\n"
	assert.Equal(t, want, string(b))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestWriteListings_Idempotent(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.csv")
	b := filepath.Join(dir, "b.csv")

	_, _, err := WriteListings(a, sampleListings())
	require.NoError(t, err)
	first, err := os.ReadFile(a)
	require.NoError(t, err)

	_, _, err = WriteListings(a, sampleListings())
	require.NoError(t, err)
	second, err := os.ReadFile(a)
	require.NoError(t, err)

	_, _, err = WriteListings(b, sampleListings())
	require.NoError(t, err)
	third, err := os.ReadFile(b)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, first, third)
}

func TestWriteListings_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listings.csv")
	_, _, err := WriteListings(path, sampleListings())
	require.NoError(t, err)

	_, n, err := WriteListings(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Company,Title,Category,Url\n", string(b))
}

func TestWriteListings_UnwritableDir(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, _, err := WriteListings(filepath.Join(blocker, "listings.csv"), sampleListings())
	assert.Error(t, err)
}

func TestReadRows_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listings.csv")
	_, _, err := WriteListings(path, sampleListings())
	require.NoError(t, err)

	rows, err := ReadRows(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Globex, Inc.", rows[1]["Company"])
	assert.Equal(t, "u1", rows[0]["Url"])
}

func TestReadRows_Missing(t *testing.T) {
	rows, err := ReadRows(filepath.Join(t.TempDir(), "nope.csv"))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestReadRows_EmptyFileAndBOM(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.csv")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	rows, err := ReadRows(empty)
	require.NoError(t, err)
	assert.Empty(t, rows)

	bom := filepath.Join(dir, "bom.csv")
	require.NoError(t, os.WriteFile(bom, []byte("\ufeffCompany,Title\nAcme,Dev\n"), 0o644))
	rows, err = ReadRows(bom)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Acme", rows[0]["Company"])
}

func TestReadMailingList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "email.csv")
	content := "name,email\nAda, ada@example.com \nNobody,\nBob,bob@example.com\nShort\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	got, err := ReadMailingList(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"ada@example.com", "bob@example.com"}, got)
}
