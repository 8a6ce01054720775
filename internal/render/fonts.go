package render

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gogpu/gg/text"
	"github.com/rs/zerolog"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/tariel-x/weddingcards/internal/apperr"
)

// FontSpec names a font file and the point size it is drawn at.
type FontSpec struct {
	File string
	Size float64
}

// DefaultFonts is the face set of the invitation card.
var DefaultFonts = map[FontRole]FontSpec{
	RoleTitle:    {File: "GreatVibes-Regular.ttf", Size: 40},
	RoleSubtitle: {File: "Poppins-Light.ttf", Size: 16},
	RoleBody:     {File: "Poppins-Regular.ttf", Size: 14},
	RoleAccent:   {File: "Poppins-Medium.ttf", Size: 12},
}

// FontLoader resolves font files against an ordered list of directories.
// Sources are parsed once and shared by every render.
type FontLoader struct {
	dirs []string
	log  zerolog.Logger

	mu       sync.Mutex
	sources  map[string]*text.FontSource
	missing  map[string]bool
	fallback *text.FontSource
}

func NewFontLoader(dirs []string, log zerolog.Logger) (*FontLoader, error) {
	fallback, err := text.NewFontSource(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse built-in font: %w", err)
	}
	return &FontLoader{
		dirs:     dirs,
		log:      log,
		sources:  make(map[string]*text.FontSource),
		missing:  make(map[string]bool),
		fallback: fallback,
	}, nil
}

// Face returns a face for spec. When the file cannot be found or parsed in
// any directory the built-in font is used and degraded is true.
func (l *FontLoader) Face(spec FontSpec) (face text.Face, degraded bool) {
	src, err := l.source(spec.File)
	if err != nil {
		return l.fallback.Face(spec.Size), true
	}
	return src.Face(spec.Size), false
}

// Faces resolves every role in specs. The names of substituted files are returned.
func (l *FontLoader) Faces(specs map[FontRole]FontSpec) (map[FontRole]text.Face, []string) {
	faces := make(map[FontRole]text.Face, len(specs))
	var substituted []string
	for _, role := range []FontRole{RoleTitle, RoleSubtitle, RoleBody, RoleAccent} {
		spec, ok := specs[role]
		if !ok {
			continue
		}
		face, degraded := l.Face(spec)
		if degraded {
			substituted = append(substituted, spec.File)
		}
		faces[role] = face
	}
	return faces, substituted
}

var errFontNotFound = errors.New("font not found")

func (l *FontLoader) source(name string) (*text.FontSource, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if src, ok := l.sources[name]; ok {
		return src, nil
	}
	if l.missing[name] {
		return nil, errFontNotFound
	}

	for _, dir := range l.dirs {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		src, err := text.NewFontSourceFromFile(path)
		if err != nil {
			l.log.Warn().Err(err).Str("path", path).Msg("font file unreadable, trying next location")
			continue
		}
		l.sources[name] = src
		return src, nil
	}

	l.missing[name] = true
	l.log.Warn().Err(apperr.ErrRenderingDegraded).Str("font", name).Strs("dirs", l.dirs).Msg("font not found, using built-in face")
	return nil, errFontNotFound
}
