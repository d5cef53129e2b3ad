package updater

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

var (
	ErrNoUpdate         = errors.New("already on the latest version")
	ErrChecksumMismatch = errors.New("download checksum mismatch")
	ErrBadManifest      = errors.New("bad update manifest")
)

// Release is the remote manifest describing the newest build.
type Release struct {
	Version string `json:"version"`
	URL     string `json:"url"`
	SHA256  string `json:"sha256"`
	Notes   string `json:"notes,omitempty"`
}

type Progress func(downloaded, total int64)

type Updater struct {
	client      *http.Client
	manifestURL string
	current     string
	logger      *slog.Logger

	// Restart replaces the running process once an update is installed.
	Restart func() error
}

type Option func(*Updater)

func WithHTTPClient(client *http.Client) Option {
	return func(u *Updater) {
		u.client = client
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(u *Updater) {
		u.logger = logger
	}
}

func New(manifestURL, currentVersion string, opts ...Option) *Updater {
	u := &Updater{
		client:      &http.Client{Timeout: 5 * time.Minute},
		manifestURL: manifestURL,
		current:     currentVersion,
		logger:      slog.New(slog.NewTextHandler(os.Stdout, nil)),
		Restart:     reexec,
	}

	for _, opt := range opts {
		opt(u)
	}

	return u
}

func (u *Updater) Check(ctx context.Context) (Release, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.manifestURL, nil)
	if err != nil {
		return Release{}, err
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return Release{}, fmt.Errorf("failed to fetch manifest: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Release{}, fmt.Errorf("%w: manifest status %d", ErrBadManifest, resp.StatusCode)
	}

	var rel Release
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&rel); err != nil {
		return Release{}, fmt.Errorf("%w: %v", ErrBadManifest, err)
	}

	if rel.Version == "" || rel.URL == "" {
		return Release{}, fmt.Errorf("%w: missing version or url", ErrBadManifest)
	}

	if strings.TrimPrefix(rel.Version, "v") == strings.TrimPrefix(u.current, "v") {
		return rel, fmt.Errorf("%w: %s", ErrNoUpdate, rel.Version)
	}

	u.logger.Info("update available", "current", u.current, "latest", rel.Version)

	return rel, nil
}

// Download streams the release to dst, calling progress after every chunk.
// dst is removed when the checksum does not match.
func (u *Updater) Download(ctx context.Context, rel Release, dst string, progress Progress) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rel.URL, nil)
	if err != nil {
		return err
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", rel.Version, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download %s: status %d", rel.Version, resp.StatusCode)
	}

	f, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o755)
	if err != nil {
		return err
	}

	hash := sha256.New()
	pw := &progressWriter{total: resp.ContentLength, progress: progress}

	_, err = io.Copy(io.MultiWriter(f, hash, pw), resp.Body)
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dst)
		return err
	}

	if rel.SHA256 != "" && !strings.EqualFold(hex.EncodeToString(hash.Sum(nil)), rel.SHA256) {
		_ = os.Remove(dst)
		return fmt.Errorf("%w: %s", ErrChecksumMismatch, rel.Version)
	}

	u.logger.Info("update downloaded", "version", rel.Version, "bytes", pw.written)

	return nil
}

// Install moves src over target in one rename, both must be on the same
// filesystem.
func (u *Updater) Install(src, target string) error {
	if err := os.Chmod(src, 0o755); err != nil {
		return err
	}

	return os.Rename(src, target)
}

// Run checks, downloads next to target, installs and restarts.
func (u *Updater) Run(ctx context.Context, target string, progress Progress) (Release, error) {
	rel, err := u.Check(ctx)
	if err != nil {
		return rel, err
	}

	staged := filepath.Join(filepath.Dir(target), "."+filepath.Base(target)+".new")
	if err := u.Download(ctx, rel, staged, progress); err != nil {
		return rel, err
	}

	if err := u.Install(staged, target); err != nil {
		_ = os.Remove(staged)
		return rel, err
	}

	u.logger.Info("update installed, restarting", "version", rel.Version)

	return rel, u.Restart()
}

type progressWriter struct {
	written  int64
	total    int64
	progress Progress
}

func (p *progressWriter) Write(b []byte) (int, error) {
	p.written += int64(len(b))
	if p.progress != nil {
		p.progress(p.written, p.total)
	}

	return len(b), nil
}

func reexec() error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}

	return syscall.Exec(exe, os.Args, os.Environ())
}
