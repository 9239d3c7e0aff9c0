//go:build cgo

package embeddings

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"
)

// onnxRuntimeVersion is the ONNX runtime release onnxruntime_go binds to.
// Bump it together with the fastembed-go dependency.
const onnxRuntimeVersion = "1.23.0"

const onnxReleaseBase = "https://github.com/microsoft/onnxruntime/releases/download"

// ErrUnsupportedPlatform is returned when no ONNX runtime release exists for
// the host.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// onnxPlatforms names the release archive for each supported GOOS/GOARCH.
var onnxPlatforms = map[string]string{
	"linux/amd64":  "linux-x64",
	"linux/arm64":  "linux-aarch64",
	"darwin/amd64": "osx-x86_64",
	"darwin/arm64": "osx-arm64",
}

// onnxLibraryName returns the shared library file name on goos.
func onnxLibraryName(goos string) string {
	if goos == "darwin" {
		return "libonnxruntime.dylib"
	}
	return "libonnxruntime.so"
}

// onnxRuntime finds or installs the ONNX runtime shared library that
// fastembed loads for local embeddings.
type onnxRuntime struct {
	version  string
	libName  string
	platform string
	dir      string
	baseURL  string
	attempts uint
	delay    time.Duration
	client   *http.Client
	logger   *zap.Logger
}

// newONNXRuntime targets the host platform. The library lives next to the
// embedding model cache, or under the user cache directory when no cache
// directory is configured.
func newONNXRuntime(cacheDir string, logger *zap.Logger) (*onnxRuntime, error) {
	platform, ok := onnxPlatforms[runtime.GOOS+"/"+runtime.GOARCH]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrUnsupportedPlatform, runtime.GOOS, runtime.GOARCH)
	}
	return &onnxRuntime{
		version:  onnxRuntimeVersion,
		libName:  onnxLibraryName(runtime.GOOS),
		platform: platform,
		dir:      onnxRuntimeDir(cacheDir),
		baseURL:  onnxReleaseBase,
		attempts: 3,
		delay:    time.Second,
		client:   &http.Client{Timeout: 5 * time.Minute},
		logger:   logger,
	}, nil
}

func onnxRuntimeDir(cacheDir string) string {
	if cacheDir != "" {
		return filepath.Join(cacheDir, "onnxruntime")
	}
	base, err := os.UserCacheDir()
	if err != nil {
		base = "."
	}
	return filepath.Join(base, "sectionrank", "onnxruntime")
}

// archiveURL is the release tarball, such as
// .../v1.23.0/onnxruntime-linux-x64-1.23.0.tgz.
func (o *onnxRuntime) archiveURL() string {
	return fmt.Sprintf("%s/v%s/onnxruntime-%s-%s.tgz", o.baseURL, o.version, o.platform, o.version)
}

// locate returns ONNX_PATH when set, else the installed library, else "".
func (o *onnxRuntime) locate() string {
	if p := os.Getenv("ONNX_PATH"); p != "" {
		return p
	}
	p := filepath.Join(o.dir, o.libName)
	if _, err := os.Stat(p); err == nil {
		return p
	}
	return ""
}

// install downloads the release archive and unpacks its lib directory into
// o.dir. Network failures and 5xx responses are retried.
func (o *onnxRuntime) install(ctx context.Context) error {
	if err := os.MkdirAll(o.dir, 0o700); err != nil {
		return fmt.Errorf("creating %s: %w", o.dir, err)
	}

	return retry.Do(
		func() error { return o.fetch(ctx) },
		retry.Context(ctx),
		retry.Attempts(o.attempts),
		retry.Delay(o.delay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			o.logger.Warn("retrying ONNX runtime download", zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
}

func (o *onnxRuntime) fetch(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.archiveURL(), nil)
	if err != nil {
		return retry.Unrecoverable(err)
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("downloading ONNX runtime: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("downloading ONNX runtime: status %d", resp.StatusCode)
		if resp.StatusCode < 500 {
			return retry.Unrecoverable(err)
		}
		return err
	}
	if err := o.extract(resp.Body); err != nil {
		return retry.Unrecoverable(fmt.Errorf("extracting ONNX runtime: %w", err))
	}
	return nil
}

// extract copies the files and symlinks under the archive's lib/ directory
// into o.dir, flattening paths. Symlinks may only point at siblings.
func (o *onnxRuntime) extract(r io.Reader) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return err
	}
	defer gz.Close()

	prefix := fmt.Sprintf("onnxruntime-%s-%s/lib/", o.platform, o.version)
	found := false
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		name := strings.TrimPrefix(hdr.Name, "./")
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		base := path.Base(name)
		dest := filepath.Join(o.dir, base)

		switch hdr.Typeflag {
		case tar.TypeSymlink:
			if strings.Contains(hdr.Linkname, "/") {
				continue
			}
			_ = os.Remove(dest)
			if err := os.Symlink(hdr.Linkname, dest); err != nil {
				continue
			}
		case tar.TypeReg:
			if err := writeAtomic(dest, tr); err != nil {
				return err
			}
		default:
			continue
		}
		if base == o.libName || strings.HasPrefix(base, o.libName+".") {
			found = true
		}
	}

	if !found {
		return fmt.Errorf("%s not in archive", o.libName)
	}
	return nil
}

// writeAtomic writes r to a temporary file beside dest and renames it into
// place, so a failed download never leaves a truncated library behind.
func writeAtomic(dest string, r io.Reader) error {
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".onnx-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dest)
}

// ensure returns the library path, installing the runtime first when it is
// missing, and exports ONNX_PATH for fastembed.
func (o *onnxRuntime) ensure(ctx context.Context) (string, error) {
	lib := o.locate()
	if lib == "" {
		o.logger.Info("installing ONNX runtime",
			zap.String("version", o.version),
			zap.String("platform", o.platform),
			zap.String("dir", o.dir))
		if err := o.install(ctx); err != nil {
			return "", fmt.Errorf("%w (set ONNX_PATH or use the tei or hash provider)", err)
		}
		if lib = o.locate(); lib == "" {
			return "", fmt.Errorf("ONNX runtime installed but %s is missing from %s", o.libName, o.dir)
		}
	}

	if os.Getenv("ONNX_PATH") == "" {
		if err := os.Setenv("ONNX_PATH", lib); err != nil {
			return "", fmt.Errorf("setting ONNX_PATH: %w", err)
		}
	}
	return lib, nil
}

// EnsureONNXRuntime makes the ONNX runtime available to the fastembed
// provider and returns the library path. cacheDir is the embedding model
// cache directory.
func EnsureONNXRuntime(ctx context.Context, cacheDir string, logger *zap.Logger) (string, error) {
	o, err := newONNXRuntime(cacheDir, logger)
	if err != nil {
		return "", err
	}
	return o.ensure(ctx)
}

// onnxRuntimeAvailable reports whether the runtime can be loaded without a
// download.
func onnxRuntimeAvailable(cacheDir string) bool {
	o, err := newONNXRuntime(cacheDir, zap.NewNop())
	return err == nil && o.locate() != ""
}
