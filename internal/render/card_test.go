package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/rs/zerolog"
	"golang.org/x/image/font/gofont/goregular"
)

func newTestRenderer(t *testing.T, dirs ...string) *Renderer {
	t.Helper()
	fonts, err := NewFontLoader(dirs, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewFontLoader: %v", err)
	}
	return NewRenderer(fonts, zerolog.Nop())
}

func decode(t *testing.T, card *Card) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(card.Data))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	return img
}

func near(t *testing.T, img image.Image, x, y int, want color.RGBA, tolerance int) {
	t.Helper()
	r, g, b, _ := img.At(x, y).RGBA()
	got := [3]int{int(r >> 8), int(g >> 8), int(b >> 8)}
	exp := [3]int{int(want.R), int(want.G), int(want.B)}
	for i := range got {
		d := got[i] - exp[i]
		if d < -tolerance || d > tolerance {
			t.Fatalf("pixel (%d,%d) = %v, want %v ±%d", x, y, got, exp, tolerance)
		}
	}
}

func TestGradientAt(t *testing.T) {
	if got := GradientAt(0); got != gradientStart {
		t.Fatalf("row 0 = %v, want %v", got, gradientStart)
	}
	mid := GradientAt(450)
	if mid.R != 250 || mid.G != 246 || mid.B != 241 {
		t.Fatalf("row 450 = %v", mid)
	}
	last := GradientAt(CardHeight - 1)
	if last.R < gradientEnd.R || last.R > gradientEnd.R+1 {
		t.Fatalf("last row red = %d", last.R)
	}
}

func TestRenderProducesCard(t *testing.T) {
	r := newTestRenderer(t)
	card, err := r.Render(CardInput{Event: testEvent()})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if card.ContentType != "image/png" {
		t.Fatalf("unexpected content type %q", card.ContentType)
	}
	if card.FileName != "wedding_invitation_Smith Wedding_evt-1.png" {
		t.Fatalf("unexpected file name %q", card.FileName)
	}
	if !card.Degraded || len(card.SubstitutedFonts) != 4 {
		t.Fatalf("expected all fonts substituted, got %v", card.SubstitutedFonts)
	}

	img := decode(t, card)
	if b := img.Bounds(); b.Dx() != CardWidth || b.Dy() != CardHeight {
		t.Fatalf("unexpected size %v", b)
	}
	near(t, img, 10, 450, GradientAt(450), 2)
	near(t, img, 590, 5, GradientAt(5), 2)
	near(t, img, 31, 450, palette[ColorBorder], 12)
}

func TestRenderLayoutStableAcrossCalls(t *testing.T) {
	r := newTestRenderer(t)
	amount := 75.5
	in := CardInput{
		Event:         testEvent(),
		InviteeName:   "Jo",
		PaymentAmount: &amount,
		RSVP:          "rsvp@example.com",
	}
	a, err := r.Render(in)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	b, err := r.Render(in)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !reflect.DeepEqual(a.Layout, b.Layout) {
		t.Fatalf("layout changed between identical renders")
	}
}

func TestRenderCompositesQR(t *testing.T) {
	qr := image.NewGray(image.Rect(0, 0, 41, 41))
	for y := 0; y < 41; y++ {
		for x := 0; x < 41; x++ {
			qr.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	r := newTestRenderer(t)
	card, err := r.Render(CardInput{Event: testEvent(), QR: qr})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if card.Layout.QRCard == nil {
		t.Fatalf("missing QR placement")
	}
	img := decode(t, card)
	c := card.Layout.QRCard
	near(t, img, int(c.X)+2, int(c.Y)+2, color.RGBA{R: 255, G: 255, B: 255, A: 255}, 3)
	near(t, img, int(c.X+c.W/2), int(c.Y+c.H/2), color.RGBA{R: 255, G: 255, B: 255, A: 255}, 3)
}

func TestFontLoaderFindsFontsInSearchDirs(t *testing.T) {
	empty := t.TempDir()
	dir := t.TempDir()
	for _, name := range []string{"Poppins-Regular.ttf", "Poppins-Medium.ttf"} {
		if err := os.WriteFile(filepath.Join(dir, name), goregular.TTF, 0o600); err != nil {
			t.Fatalf("write font: %v", err)
		}
	}

	r := newTestRenderer(t, empty, dir)
	card, err := r.Render(CardInput{Event: testEvent()})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := []string{"GreatVibes-Regular.ttf", "Poppins-Light.ttf"}
	if !reflect.DeepEqual(card.SubstitutedFonts, want) {
		t.Fatalf("substituted = %v, want %v", card.SubstitutedFonts, want)
	}
}

func TestFontLoaderSkipsUnparsableFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "Poppins-Regular.ttf"), []byte("not a font"), 0o600); err != nil {
		t.Fatalf("write font: %v", err)
	}
	fonts, err := NewFontLoader([]string{dir}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewFontLoader: %v", err)
	}
	face, degraded := fonts.Face(FontSpec{File: "Poppins-Regular.ttf", Size: 14})
	if !degraded || face == nil {
		t.Fatalf("expected built-in face for broken font file")
	}
}
