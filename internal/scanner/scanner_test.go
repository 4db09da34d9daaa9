package scanner

import (
	"archive/tar"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tizen/itest/internal/packaging/rpmtest"
	"github.com/tizen/itest/internal/utils"
)

type member struct {
	name     string
	body     string
	typeflag byte
	link     string
}

func buildTar(t *testing.T, members []member) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, m := range members {
		hdr := &tar.Header{Name: m.name, Mode: 0644, Typeflag: m.typeflag, Linkname: m.link}
		if m.typeflag == tar.TypeReg {
			hdr.Size = int64(len(m.body))
		}
		if m.typeflag == tar.TypeDir {
			hdr.Mode = 0755
		}
		require.NoError(t, tw.WriteHeader(hdr))
		if m.typeflag == tar.TypeReg {
			_, err := tw.Write([]byte(m.body))
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())
	return buf.Bytes()
}

func writeArchive(t *testing.T, c utils.Compression) string {
	t.Helper()
	data := buildTar(t, []member{
		{name: "./", typeflag: tar.TypeDir},
		{name: "./etc/", typeflag: tar.TypeDir},
		{name: "./etc/os-release", body: "ID=tizen\n", typeflag: tar.TypeReg},
		{name: "./etc/hard", typeflag: tar.TypeLink, link: "./etc/os-release"},
		{name: "./lib", typeflag: tar.TypeSymlink, link: "usr/lib"},
	})
	packed, err := utils.Compress(data, c)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "image.tar."+c.String())
	require.NoError(t, os.WriteFile(path, packed, 0644))
	return path
}

func TestDetectImage(t *testing.T) {
	dir := t.TempDir()
	format, _, err := DetectImage(dir)
	require.NoError(t, err)
	assert.Equal(t, FormatDir, format)

	for _, c := range []utils.Compression{utils.CompressionNone, utils.CompressionGzip, utils.CompressionXz, utils.CompressionZstd} {
		format, comp, err := DetectImage(writeArchive(t, c))
		require.NoError(t, err)
		assert.Equal(t, FormatTar, format)
		assert.Equal(t, c, comp)
	}

	rpm := filepath.Join(dir, "x.rpm")
	require.NoError(t, os.WriteFile(rpm, append([]byte{0xED, 0xAB, 0xEE, 0xDB}, make([]byte, 100)...), 0644))
	format, _, err = DetectImage(rpm)
	require.NoError(t, err)
	assert.Equal(t, FormatRpm, format)

	junk := filepath.Join(dir, "junk")
	require.NoError(t, os.WriteFile(junk, []byte("hello"), 0644))
	_, _, err = DetectImage(junk)
	assert.Error(t, err)
}

func TestArchiveScanner(t *testing.T) {
	for _, c := range []utils.Compression{utils.CompressionNone, utils.CompressionGzip, utils.CompressionXz, utils.CompressionZstd} {
		t.Run(c.String(), func(t *testing.T) {
			s, err := Open(writeArchive(t, c))
			require.NoError(t, err)

			entries, err := s.Scan(context.Background())
			require.NoError(t, err)
			require.Len(t, entries, 4)

			assert.Equal(t, "etc", entries[0].Path)
			assert.Equal(t, TypeDir, entries[0].Type)

			assert.Equal(t, "etc/hard", entries[1].Path)
			assert.Equal(t, entries[2].SHA256, entries[1].SHA256)

			assert.Equal(t, "etc/os-release", entries[2].Path)
			body, err := entries[2].Content()
			require.NoError(t, err)
			assert.Equal(t, "ID=tizen\n", string(body))

			assert.Equal(t, TypeSymlink, entries[3].Type)
			assert.Equal(t, "usr/lib", entries[3].LinkTarget)
		})
	}
}

func TestArchiveScannerLargeContent(t *testing.T) {
	s := NewArchiveScanner(writeArchive(t, utils.CompressionNone), utils.CompressionNone)
	s.MaxContent = 2

	entries, err := s.Scan(context.Background())
	require.NoError(t, err)
	for _, e := range entries {
		if e.Path == "etc/os-release" {
			assert.NotEmpty(t, e.SHA256)
			_, err := e.Content()
			assert.Error(t, err)
		}
	}
}

func TestArchiveScannerReadsLargeRPMHeaders(t *testing.T) {
	rpm := rpmtest.Build("gbs", "0.25", "3", "noarch", 2<<20)
	data := buildTar(t, []member{
		{name: "pkgs/gbs.rpm", body: string(rpm), typeflag: tar.TypeReg},
		{name: "pkgs/broken.rpm", body: "not an rpm", typeflag: tar.TypeReg},
	})
	path := filepath.Join(t.TempDir(), "image.tar")
	require.NoError(t, os.WriteFile(path, data, 0644))

	entries, err := NewArchiveScanner(path, utils.CompressionNone).Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)

	broken, gbs := entries[0], entries[1]
	_, err = broken.Package()
	assert.Error(t, err)

	pkg, err := gbs.Package()
	require.NoError(t, err)
	assert.Equal(t, "gbs-0.25-3.noarch", pkg.NEVRA())

	sum, err := utils.ReaderSHA256(bytes.NewReader(rpm))
	require.NoError(t, err)
	assert.Equal(t, sum, gbs.SHA256)

	_, err = gbs.Content()
	assert.Error(t, err)
}

func TestFileSystemScannerRPM(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "mic.rpm"), rpmtest.Build("mic", "1.0", "1", "x86_64", 0), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0644))

	entries, err := NewFileSystemScanner(root).Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)

	pkg, err := entries[0].Package()
	require.NoError(t, err)
	assert.Equal(t, "mic-1.0-1.x86_64", pkg.NEVRA())

	_, err = entries[1].Package()
	assert.Error(t, err)
}

func TestFileSystemScanner(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, utils.WriteFile(filepath.Join(root, "etc", "os-release"), []byte("ID=tizen\n"), 0644))
	require.NoError(t, os.Symlink("usr/lib", filepath.Join(root, "lib")))

	s, err := Open(root)
	require.NoError(t, err)
	entries, err := s.Scan(context.Background())
	require.NoError(t, err)

	var paths []string
	for _, e := range entries {
		paths = append(paths, e.Path)
	}
	assert.Equal(t, []string{"etc", "etc/os-release", "lib"}, paths)
	assert.Equal(t, TypeSymlink, entries[2].Type)

	body, err := entries[1].Content()
	require.NoError(t, err)
	assert.Equal(t, "ID=tizen\n", string(body))
}

func TestFileSystemScannerCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFileSystemScanner(t.TempDir()).Scan(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
