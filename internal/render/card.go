// Package render draws the invitation card: a 600x900 portrait PNG with a
// cream gradient, gold borders, the event details, an optional schedule,
// payment and RSVP block, and the guest's check-in QR code.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"time"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"github.com/rs/zerolog"
	xdraw "golang.org/x/image/draw"
)

const ContentType = "image/png"

// Formats used for event and schedule dates on the card.
const (
	DateLayout = "Monday, January 02, 2006"
	TimeLayout = "03:04 PM"
)

var (
	gradientStart = color.RGBA{R: 252, G: 250, B: 248, A: 255}
	gradientEnd   = color.RGBA{R: 248, G: 242, B: 235, A: 255}

	palette = map[ColorRole]color.RGBA{
		ColorPrimary:   {R: 60, G: 50, B: 45, A: 255},
		ColorSecondary: {R: 100, G: 85, B: 75, A: 255},
		ColorAccent:    {R: 170, G: 120, B: 70, A: 255},
		ColorBorder:    {R: 190, G: 160, B: 120, A: 255},
	}
)

// EventInfo is the part of an event printed on the card.
type EventInfo struct {
	ID     string
	Title  string
	Couple string
	Venue  string
	Date   time.Time
}

// Segment is one pre-formatted schedule entry.
type Segment struct {
	Name        string
	Date        string
	Time        string
	Location    string
	Description string
}

func NewSegment(name string, at time.Time, location, description string) Segment {
	return Segment{
		Name:        name,
		Date:        at.Format(DateLayout),
		Time:        at.Format(TimeLayout),
		Location:    location,
		Description: description,
	}
}

// CardInput holds everything a card can show. Only Event is required.
type CardInput struct {
	Event         EventInfo
	Segments      []Segment
	InviteeName   string
	PaymentAmount *float64
	QR            image.Image
	RSVP          string
}

// Card is a rendered invitation.
type Card struct {
	Data        []byte
	ContentType string
	FileName    string
	Layout      Layout
	// Degraded is set when at least one font was replaced by the built-in face.
	Degraded         bool
	SubstitutedFonts []string
}

type Renderer struct {
	fonts *FontLoader
	specs map[FontRole]FontSpec
	log   zerolog.Logger

	// faces share glyph caches with their sources
	mu sync.Mutex
}

func NewRenderer(fonts *FontLoader, log zerolog.Logger) *Renderer {
	return &Renderer{
		fonts: fonts,
		specs: DefaultFonts,
		log:   log,
	}
}

// Render draws the card for in. Missing optional inputs only change the
// layout; the returned error is non-nil only when drawing or encoding fails.
func (r *Renderer) Render(in CardInput) (*Card, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	faces, substituted := r.fonts.Faces(r.specs)
	if len(substituted) > 0 {
		r.log.Warn().Strs("fonts", substituted).Str("event_id", in.Event.ID).Msg("card rendered with substitute fonts")
	}

	layout := computeLayout(in, func(role FontRole, s string) float64 {
		return faces[role].Advance(s)
	})

	dc := gg.NewContextForImage(gradientBackground())
	defer dc.Close()

	if err := drawCard(dc, layout, faces, in.QR); err != nil {
		return nil, fmt.Errorf("failed to draw card: %w", err)
	}
	if err := dc.FlushGPU(); err != nil {
		return nil, fmt.Errorf("failed to flush canvas: %w", err)
	}

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, dc.Image()); err != nil {
		return nil, fmt.Errorf("failed to encode card: %w", err)
	}

	return &Card{
		Data:             buf.Bytes(),
		ContentType:      ContentType,
		FileName:         FileName(in.Event.Title, in.Event.ID),
		Layout:           layout,
		Degraded:         len(substituted) > 0,
		SubstitutedFonts: substituted,
	}, nil
}

// GradientAt is the background color of row y.
func GradientAt(y int) color.RGBA {
	ratio := float64(y) / CardHeight
	mix := func(a, b uint8) uint8 {
		return uint8(float64(a)*(1-ratio) + float64(b)*ratio)
	}
	return color.RGBA{
		R: mix(gradientStart.R, gradientEnd.R),
		G: mix(gradientStart.G, gradientEnd.G),
		B: mix(gradientStart.B, gradientEnd.B),
		A: 255,
	}
}

func gradientBackground() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, CardWidth, CardHeight))
	for y := 0; y < CardHeight; y++ {
		c := GradientAt(y)
		for x := 0; x < CardWidth; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func drawCard(dc *gg.Context, layout Layout, faces map[FontRole]text.Face, qr image.Image) error {
	dc.SetColor(palette[ColorBorder])
	if err := drawBorder(dc, outerMargin, outerWidth); err != nil {
		return err
	}
	dc.SetColor(palette[ColorAccent])
	if err := drawBorder(dc, innerMargin, 1); err != nil {
		return err
	}

	dc.SetColor(palette[ColorAccent])
	for _, x := range []float64{CardWidth/2 - 100, CardWidth/2 + 100} {
		if err := drawFlourish(dc, x, 100, 20); err != nil {
			return err
		}
	}

	for _, sep := range layout.Separators {
		dc.SetColor(palette[sep.Color])
		dc.SetLineWidth(sep.Width)
		dc.DrawLine(sep.X1, sep.Y1, sep.X2, sep.Y2)
		if err := dc.Stroke(); err != nil {
			return err
		}
	}

	dc.SetColor(palette[ColorAccent])
	for _, e := range layout.Ellipses {
		if err := drawEllipse(dc, e); err != nil {
			return err
		}
	}
	for _, d := range layout.Diamonds {
		if err := drawDiamond(dc, d, 5); err != nil {
			return err
		}
	}

	if qr != nil && layout.QRCard != nil {
		c := layout.QRCard
		dc.SetColor(color.White)
		dc.DrawRectangle(c.X, c.Y, c.W, c.H)
		if err := dc.Fill(); err != nil {
			return err
		}
		dc.DrawImage(gg.ImageBufFromImage(scaleQR(qr, int(layout.QRImage.W))), layout.QRImage.X, layout.QRImage.Y)
	}

	for _, b := range layout.Blocks {
		face := faces[b.Font]
		dc.SetFont(face)
		dc.SetColor(palette[b.Color])
		dc.DrawString(b.Text, b.X, b.Y+face.Metrics().Ascent)
	}

	dc.SetColor(palette[ColorAccent])
	return drawCorners(dc)
}

// scaleQR resamples the QR bitmap to size x size with Catmull-Rom so module
// edges stay crisp enough to scan.
func scaleQR(src image.Image, size int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}
