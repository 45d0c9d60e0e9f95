package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vcf-converter/backend/internal/converter"
	"go.uber.org/zap"
)

func writeInput(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestConvertFiles(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()

	paths := []string{
		writeInput(t, in, "first.txt", "AAA0812\nnoise\n"),
		writeInput(t, in, "second.list.txt", "+62813\r\n0814\n"),
	}

	results, err := convertFiles(context.Background(), converter.Default(), paths, out, "Team", 2, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, filepath.Join(out, "first.vcf"), results[0].Output)
	assert.Equal(t, 1, results[0].Count)
	assert.Equal(t, filepath.Join(out, "second.list.vcf"), results[1].Output)
	assert.Equal(t, 2, results[1].Count)

	data, err := os.ReadFile(results[0].Output)
	require.NoError(t, err)
	assert.Equal(t, "BEGIN:VCARD\nVERSION:3.0\nFN:Team 1\nTEL:0812\nEND:VCARD\n", string(data))
}

func TestConvertFilesSameBaseName(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	for _, dir := range []string{"a", "b", "c"} {
		require.NoError(t, os.Mkdir(filepath.Join(in, dir), 0755))
	}

	paths := []string{
		writeInput(t, filepath.Join(in, "a"), "list.txt", "0811\n"),
		writeInput(t, filepath.Join(in, "b"), "list.txt", "0821\n0822\n"),
		writeInput(t, filepath.Join(in, "c"), "LIST.txt", "0831\n0832\n0833\n"),
	}

	results, err := convertFiles(context.Background(), converter.Default(), paths, out, "Team", 3, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, filepath.Join(out, "list.vcf"), results[0].Output)
	assert.Equal(t, filepath.Join(out, "list (2).vcf"), results[1].Output)
	assert.Equal(t, filepath.Join(out, "LIST (3).vcf"), results[2].Output)

	for i, want := range []int{1, 2, 3} {
		assert.Equal(t, want, results[i].Count)
		data, err := os.ReadFile(results[i].Output)
		require.NoError(t, err)
		assert.Equal(t, want, bytes.Count(data, []byte("BEGIN:VCARD")), results[i].Output)
	}

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestConvertFilesMissingInput(t *testing.T) {
	out := t.TempDir()
	_, err := convertFiles(context.Background(), converter.Default(), []string{filepath.Join(out, "missing.txt")}, out, "x", 1, nil)
	assert.Error(t, err)
}

func TestConvertFilesCancelled(t *testing.T) {
	in := t.TempDir()
	path := writeInput(t, in, "a.txt", "0812\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := convertFiles(ctx, converter.Default(), []string{path}, t.TempDir(), "x", 1, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConvertCommand(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	path := writeInput(t, in, "numbers.txt", "AAA0812\n")

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetArgs([]string{"convert", "--contact-name", "Sales", "--out-dir", out, path})
	require.NoError(t, rootCmd.Execute())

	assert.Contains(t, stdout.String(), "(1 contacts)")
	data, err := os.ReadFile(filepath.Join(out, "numbers.vcf"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "FN:Sales 1\n")
}

func TestSplitOrigins(t *testing.T) {
	assert.Equal(t, []string{"http://a", "http://b"}, splitOrigins(" http://a , ,http://b"))
	assert.Nil(t, splitOrigins(""))
}
