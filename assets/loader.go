// Package assets loads textures in the background and hands them to the
// GPU on the render thread.
package assets

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"planet-viewer/scene"
)

// ErrUnsupportedFormat is returned for files that are not a decodable image.
var ErrUnsupportedFormat = errors.New("unsupported image format")

var decodable = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/bmp":  true,
}

// Uploader makes a decoded texture resident on the GPU.
type Uploader interface {
	UploadTexture(tex *scene.Texture) error
}

type result struct {
	handle *scene.Texture
	tex    *scene.Texture
	err    error
}

// Loader caches textures by path. Load never blocks: it hands back a handle
// at once and fills it in on a later Poll.
type Loader struct {
	root string
	up   Uploader
	log  *slog.Logger

	cache map[string]*scene.Texture

	mu       sync.Mutex
	finished []result
	inflight int
	wg       sync.WaitGroup
}

// NewLoader resolves relative paths against root.
func NewLoader(root string, up Uploader, log *slog.Logger) *Loader {
	if log == nil {
		log = slog.Default()
	}
	return &Loader{
		root:  root,
		up:    up,
		log:   log.With("component", "assets"),
		cache: make(map[string]*scene.Texture),
	}
}

// Load returns the handle for path, starting a background decode the first
// time the path is seen. The handle is not resident until Poll uploads it.
func (l *Loader) Load(path string) *scene.Texture {
	if tex, ok := l.cache[path]; ok {
		return tex
	}

	handle := &scene.Texture{Name: path}
	l.cache[path] = handle

	full := path
	if !filepath.IsAbs(full) {
		full = filepath.Join(l.root, path)
	}

	l.mu.Lock()
	l.inflight++
	l.mu.Unlock()

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		tex, err := decodeFile(full)
		l.mu.Lock()
		l.finished = append(l.finished, result{handle: handle, tex: tex, err: err})
		l.inflight--
		l.mu.Unlock()
	}()

	return handle
}

func decodeFile(path string) (*scene.Texture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	kind, err := filetype.Match(data)
	if err != nil {
		return nil, fmt.Errorf("sniff %q: %w", path, err)
	}
	if !decodable[kind.MIME.Value] {
		return nil, fmt.Errorf("%q (%s): %w", path, kind.MIME.Value, ErrUnsupportedFormat)
	}
	return scene.DecodeTexture(path, bytes.NewReader(data))
}

// Poll uploads every texture whose decode finished since the last call and
// returns how many handles were completed. Call it on the render thread.
func (l *Loader) Poll() int {
	l.mu.Lock()
	done := l.finished
	l.finished = nil
	l.mu.Unlock()

	for _, r := range done {
		if r.err != nil {
			l.log.Warn("Texture load failed, using placeholder", "path", r.handle.Name, "error", r.err)
			l.fillPlaceholder(r.handle)
			continue
		}

		r.handle.Width = r.tex.Width
		r.handle.Height = r.tex.Height
		r.handle.Pixels = r.tex.Pixels
		if err := l.upload(r.handle); err != nil {
			l.log.Warn("Texture upload failed, using placeholder", "path", r.handle.Name, "error", err)
			l.fillPlaceholder(r.handle)
			continue
		}
		l.log.Debug("Texture ready", "path", r.handle.Name, "width", r.handle.Width, "height", r.handle.Height)
	}
	return len(done)
}

func (l *Loader) fillPlaceholder(handle *scene.Texture) {
	p := scene.NewSolidTexture(handle.Name, 128, 128, 128, 255)
	handle.Width, handle.Height, handle.Pixels = p.Width, p.Height, p.Pixels
	handle.Placeholder = true
	if err := l.upload(handle); err != nil {
		l.log.Error("Placeholder upload failed", "path", handle.Name, "error", err)
	}
}

func (l *Loader) upload(tex *scene.Texture) error {
	if l.up == nil {
		return nil
	}
	return l.up.UploadTexture(tex)
}

// Pending is the number of decodes not yet handed to Poll.
func (l *Loader) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inflight + len(l.finished)
}

// Cached returns the handle for path without starting a load.
func (l *Loader) Cached(path string) (*scene.Texture, bool) {
	tex, ok := l.cache[path]
	return tex, ok
}

// Textures returns every handle handed out so far.
func (l *Loader) Textures() []*scene.Texture {
	out := make([]*scene.Texture, 0, len(l.cache))
	for _, tex := range l.cache {
		out = append(out, tex)
	}
	return out
}

// Close waits for in-flight decodes to finish.
func (l *Loader) Close() {
	l.wg.Wait()
}
