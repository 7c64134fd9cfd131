// Package media downloads videos with yt-dlp and trims or re-encodes them
// with ffmpeg. Every intermediate file lives in a per-request directory
// owned by a Clip; closing the Clip removes it.
package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	neturl "net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// formatPreference picks H.264 streams first so Discord can play the
// result inline.
const formatPreference = "bv*[ext=mp4][vcodec=h264]+ba[ext=m4a]/b[ext=mp4][vcodec=h264]/bv[vcodec=h264]+ba/bv+ba/b"

// crawlerUserAgent gets embeddable media from sites that gate it behind
// link previews.
const crawlerUserAgent = "User-Agent:facebookexternalhit/1.1"

// ignoreUserAgentHosts reject the crawler User-Agent.
var ignoreUserAgentHosts = []string{"reddit.com"}

// DefaultFormat is the container produced when none is requested.
const DefaultFormat = "mp4"

const workDirPrefix = "maxine-save-"

var formatPattern = regexp.MustCompile(`^[a-z0-9]{2,5}$`)

// ErrInvalidFormat rejects output formats that are not a plain extension.
var ErrInvalidFormat = errors.New("media: unsupported output format")

// ErrInvalidURL rejects anything but an absolute http(s) URL.
var ErrInvalidURL = errors.New("media: not an http(s) URL")

// Stage names a step of the pipeline.
type Stage string

const (
	StageDownload Stage = "download"
	StageConvert  Stage = "convert"
)

// StageError wraps a failure in one pipeline stage.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("media: %s: %v", e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// TooLargeError is a finished file above the upload limit.
type TooLargeError struct {
	Size  int64
	Limit int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("the video is %s, which is over the %s upload limit",
		humanize.IBytes(uint64(e.Size)), humanize.IBytes(uint64(e.Limit)))
}

// Request describes one save.
type Request struct {
	URL       string
	ClipStart string
	ClipEnd   string
	Format    string
}

// IsClip reports whether both clip bounds are set.
func (r Request) IsClip() bool {
	return strings.TrimSpace(r.ClipStart) != "" && strings.TrimSpace(r.ClipEnd) != ""
}

// Clip is a downloaded (and possibly converted) video on disk.
type Clip struct {
	// Path is the final file.
	Path string

	dir string
}

// Name returns the file name to attach.
func (c *Clip) Name() string { return filepath.Base(c.Path) }

// Size returns the final file size.
func (c *Clip) Size() (int64, error) {
	fi, err := os.Stat(c.Path)
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}

// Close removes every file the pipeline produced. It is safe to call more
// than once.
func (c *Clip) Close() error {
	if c == nil || c.dir == "" {
		return nil
	}
	dir := c.dir
	c.dir = ""
	return os.RemoveAll(dir)
}

// Saver runs the download and convert pipeline.
type Saver struct {
	Runner     Runner
	Downloader string
	Transcoder string

	// TempDir is where work directories are created. Empty uses os.TempDir.
	TempDir string

	// MaxBytes rejects finished files larger than this. Zero disables it.
	MaxBytes int64

	Logger *slog.Logger
}

// NewSaver returns a Saver using the real tools.
func NewSaver(logger *slog.Logger) *Saver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Saver{
		Runner:     ExecRunner{},
		Downloader: "yt-dlp",
		Transcoder: "ffmpeg",
		Logger:     logger.With("component", "media"),
	}
}

// Save downloads req.URL and, when a clip or a different format is
// requested, converts it. On error nothing is left on disk. On success the
// caller must Close the Clip.
func (s *Saver) Save(ctx context.Context, req Request) (*Clip, error) {
	format := strings.ToLower(strings.TrimSpace(req.Format))
	if format == "" {
		format = DefaultFormat
	}
	if !formatPattern.MatchString(format) {
		return nil, ErrInvalidFormat
	}
	if !validURL(req.URL) {
		return nil, ErrInvalidURL
	}

	dir, err := os.MkdirTemp(s.TempDir, workDirPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("media: create work dir: %w", err)
	}
	clip := &Clip{dir: dir}

	downloaded := filepath.Join(dir, "video."+DefaultFormat)
	if err := s.download(ctx, req.URL, downloaded); err != nil {
		clip.Close()
		return nil, &StageError{Stage: StageDownload, Err: err}
	}
	clip.Path = downloaded

	if req.IsClip() || format != DefaultFormat {
		converted := filepath.Join(dir, "clip."+format)
		if err := s.convert(ctx, downloaded, converted, format, req); err != nil {
			clip.Close()
			return nil, &StageError{Stage: StageConvert, Err: err}
		}
		clip.Path = converted
	}

	if s.MaxBytes > 0 {
		size, err := clip.Size()
		if err != nil {
			clip.Close()
			return nil, fmt.Errorf("media: stat output: %w", err)
		}
		if size > s.MaxBytes {
			clip.Close()
			return nil, &TooLargeError{Size: size, Limit: s.MaxBytes}
		}
	}
	return clip, nil
}

func (s *Saver) download(ctx context.Context, url, out string) error {
	start := time.Now()
	res, err := s.Runner.Run(ctx, s.Downloader, DownloadArgs(url, out, false)...)
	if err != nil {
		return err
	}
	s.logger().Debug("download finished", "url", url, "duration", time.Since(start), "exit_code", res.ExitCode)
	if res.ExitCode != 0 || !exists(out) {
		return &ExecError{Tool: s.Downloader, ExitCode: res.ExitCode, Stderr: res.Stderr}
	}
	return nil
}

func (s *Saver) convert(ctx context.Context, in, out, format string, req Request) error {
	var start, end string
	if req.IsClip() {
		start, end = NormalizeTimestamp(req.ClipStart), NormalizeTimestamp(req.ClipEnd)
	}
	res, err := s.Runner.Run(ctx, s.Transcoder, ConvertArgs(in, out, format, start, end)...)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 || !exists(out) {
		return &ExecError{Tool: s.Transcoder, ExitCode: res.ExitCode, Stderr: res.Stderr}
	}
	return nil
}

func (s *Saver) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// validURL accepts absolute http and https URLs only, so user input can
// never be read as a downloader flag.
func validURL(raw string) bool {
	u, err := neturl.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// DownloadArgs builds the yt-dlp argument list. The URL follows "--".
func DownloadArgs(url, out string, showWarnings bool) []string {
	args := []string{
		"-o", out,
		"-f", formatPreference,
		"--compat-opt", "prefer-vp9-sort",
		"--no-check-certificate",
	}
	if !ignoresUserAgent(url) {
		args = append(args, "--add-header", crawlerUserAgent)
	}
	if !showWarnings {
		args = append(args, "--no-warnings")
	}
	return append(args, "--", url)
}

// ConvertArgs builds the ffmpeg argument list. start and end are only used
// when both are set.
func ConvertArgs(in, out, format, start, end string) []string {
	args := []string{"-i", in}
	if start != "" && end != "" {
		args = append(args, "-ss", start, "-to", end)
	}
	codec := "libx264"
	if format == "gif" {
		codec = "gif"
	}
	return append(args, "-c:v", codec, "-preset", "medium", "-y", out)
}

// NormalizeTimestamp left-pads every colon-separated segment to two
// digits: "1:5" becomes "01:05".
func NormalizeTimestamp(ts string) string {
	parts := strings.Split(strings.TrimSpace(ts), ":")
	for i, p := range parts {
		if len(p) < 2 {
			parts[i] = strings.Repeat("0", 2-len(p)) + p
		}
	}
	return strings.Join(parts, ":")
}

func ignoresUserAgent(url string) bool {
	for _, host := range ignoreUserAgentHosts {
		if strings.Contains(url, host) {
			return true
		}
	}
	return false
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Sweep removes work directories under dir older than maxAge, left behind
// by a crash. It returns how many were removed.
func Sweep(dir string, maxAge time.Duration) (int, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("media: sweep %s: %w", dir, err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), workDirPrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}
