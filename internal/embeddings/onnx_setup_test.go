//go:build cgo

package embeddings

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOnnxLibraryName(t *testing.T) {
	assert.Equal(t, "libonnxruntime.so", onnxLibraryName("linux"))
	assert.Equal(t, "libonnxruntime.dylib", onnxLibraryName("darwin"))
}

func TestOnnxRuntimeDir(t *testing.T) {
	assert.Equal(t, filepath.Join("models", "onnxruntime"), onnxRuntimeDir("models"))
	assert.Equal(t, "onnxruntime", filepath.Base(onnxRuntimeDir("")))
}

// testRuntime targets the host platform, installs into a temp dir and
// downloads from srv.
func testRuntime(t *testing.T, srv *httptest.Server) *onnxRuntime {
	t.Helper()
	o, err := newONNXRuntime(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Skipf("no ONNX runtime release for %s/%s", runtime.GOOS, runtime.GOARCH)
	}
	o.delay = 0
	if srv != nil {
		o.baseURL = srv.URL
		o.client = srv.Client()
	}
	t.Setenv("ONNX_PATH", "")
	return o
}

type tarEntry struct {
	name, link, body string
}

func releaseArchive(t *testing.T, entries ...tarEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.name, Mode: 0o644, Size: int64(len(e.body)), Typeflag: tar.TypeReg}
		if e.link != "" {
			hdr.Typeflag, hdr.Linkname, hdr.Size = tar.TypeSymlink, e.link, 0
		}
		require.NoError(t, tw.WriteHeader(hdr))
		_, err := tw.Write([]byte(e.body))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func TestOnnxRuntime_ArchiveURL(t *testing.T) {
	o := &onnxRuntime{baseURL: onnxReleaseBase, version: "1.23.0", platform: "linux-x64"}
	assert.Equal(t,
		"https://github.com/microsoft/onnxruntime/releases/download/v1.23.0/onnxruntime-linux-x64-1.23.0.tgz",
		o.archiveURL())
}

func TestOnnxRuntime_PrefersONNXPath(t *testing.T) {
	o := testRuntime(t, nil)
	lib := filepath.Join(t.TempDir(), o.libName)
	t.Setenv("ONNX_PATH", lib)

	got, err := o.ensure(context.Background())
	require.NoError(t, err)
	assert.Equal(t, lib, got)
}

func TestOnnxRuntime_InstallsFromRelease(t *testing.T) {
	o := testRuntime(t, nil)
	lib := "onnxruntime-" + o.platform + "-" + o.version + "/lib/"
	archive := releaseArchive(t,
		tarEntry{name: lib + o.libName + ".1.23.0", body: "ELF"},
		tarEntry{name: lib + o.libName, link: o.libName + ".1.23.0"},
		tarEntry{name: lib + "evil", link: "../../etc/passwd"},
		tarEntry{name: "onnxruntime-" + o.platform + "-" + o.version + "/include/api.h", body: "header"},
	)

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write(archive)
	}))
	defer srv.Close()
	o.baseURL, o.client = srv.URL, srv.Client()

	path, err := o.ensure(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(o.dir, o.libName), path)
	assert.Equal(t, path, os.Getenv("ONNX_PATH"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ELF", string(data))
	assert.NoFileExists(t, filepath.Join(o.dir, "api.h"))
	assert.NoFileExists(t, filepath.Join(o.dir, "evil"))

	// A second call finds the installed copy.
	t.Setenv("ONNX_PATH", "")
	_, err = o.ensure(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestOnnxRuntime_DownloadFailures(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantCalls int32
	}{
		{"missing release is not retried", http.StatusNotFound, 1},
		{"server errors are retried", http.StatusBadGateway, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()
			o := testRuntime(t, srv)

			_, err := o.ensure(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), "set ONNX_PATH")
			assert.Equal(t, tt.wantCalls, calls.Load())
			assert.NoFileExists(t, filepath.Join(o.dir, o.libName))
		})
	}
}

func TestOnnxRuntime_ArchiveWithoutLibrary(t *testing.T) {
	o := testRuntime(t, nil)
	archive := releaseArchive(t,
		tarEntry{name: "onnxruntime-" + o.platform + "-" + o.version + "/lib/README", body: "empty"},
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(archive)
	}))
	defer srv.Close()
	o.baseURL, o.client = srv.URL, srv.Client()

	_, err := o.ensure(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not in archive")
}
