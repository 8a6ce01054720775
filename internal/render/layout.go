package render

import (
	"fmt"
	"math"
)

// Card geometry.
const (
	CardWidth  = 600
	CardHeight = 900

	outerMargin = 30
	outerWidth  = 3
	innerMargin = outerMargin + 15

	qrSize      = 110
	qrPadding   = 8
	qrLeft      = 60
	qrCaption   = "Scan to check in"
	qrMinTop    = CardHeight - innerMargin - 25 - (qrSize + 2*qrPadding)
	bottomLineY = 550

	// lineHeight bounds the tallest face below a block's Y.
	lineHeight      = 20
	textLimit       = CardHeight - innerMargin - 10
	segmentPitch    = 92
	minSegmentPitch = 64
)

// FontRole selects one of the four faces a card uses.
type FontRole int

const (
	RoleTitle FontRole = iota
	RoleSubtitle
	RoleBody
	RoleAccent
)

// ColorRole selects a palette entry.
type ColorRole int

const (
	ColorPrimary ColorRole = iota
	ColorSecondary
	ColorAccent
	ColorBorder
)

// Block kinds.
const (
	KindIntro        = "intro"
	KindSalutation   = "salutation"
	KindTitle        = "title"
	KindCouple       = "couple"
	KindDate         = "date"
	KindTime         = "time"
	KindVenueLabel   = "venue-label"
	KindVenue        = "venue"
	KindSegmentName  = "segment-name"
	KindSegmentDate  = "segment-date"
	KindSegmentTime  = "segment-time"
	KindSegmentPlace = "segment-location"
	KindPaymentLabel = "payment-label"
	KindPayment      = "payment"
	KindScripture    = "scripture"
	KindRSVPLabel    = "rsvp-label"
	KindRSVP         = "rsvp"
	KindQRCaption    = "qr-caption"
)

var scriptureLines = []string{
	"“Therefore what God has joined together,",
	"let no one separate.”",
	"Mark 10:9",
}

// TextBlock is a single line of text. Y is the top of the line box.
type TextBlock struct {
	Kind  string
	Text  string
	Font  FontRole
	Color ColorRole
	X, Y  float64
	Width float64
}

type Line struct {
	X1, Y1, X2, Y2 float64
	Width          float64
	Color          ColorRole
}

type Point struct {
	X, Y float64
}

type Rect struct {
	X, Y, W, H float64
}

// Layout is the computed geometry of a card. It depends only on the input
// and the measured text widths, never on pixel output.
type Layout struct {
	Blocks     []TextBlock
	Separators []Line
	Ellipses   []Rect
	Diamonds   []Point
	QRCard     *Rect
	QRImage    *Rect
}

// Find returns the blocks of the given kind in drawing order.
func (l Layout) Find(kind string) []TextBlock {
	var out []TextBlock
	for _, b := range l.Blocks {
		if b.Kind == kind {
			out = append(out, b)
		}
	}
	return out
}

// Bottom is the lowest text line top in the layout.
func (l Layout) Bottom() float64 {
	bottom := 0.0
	for _, b := range l.Blocks {
		if b.Kind == KindQRCaption {
			continue
		}
		bottom = math.Max(bottom, b.Y)
	}
	return bottom
}

// measureFunc returns the advance width of s in the face for role.
type measureFunc func(role FontRole, s string) float64

type layoutBuilder struct {
	measure measureFunc
	layout  Layout
}

func (b *layoutBuilder) centered(kind, text string, font FontRole, color ColorRole, y float64) {
	w := b.measure(font, text)
	b.layout.Blocks = append(b.layout.Blocks, TextBlock{
		Kind:  kind,
		Text:  text,
		Font:  font,
		Color: color,
		X:     math.Floor((CardWidth - w) / 2),
		Y:     y,
		Width: w,
	})
}

func (b *layoutBuilder) besideQR(card Rect) {
	left := card.X + card.W + 10
	width := float64(CardWidth-innerMargin-10) - left
	for i := range b.layout.Blocks {
		blk := &b.layout.Blocks[i]
		if blk.Y+lineHeight <= card.Y || blk.X >= left {
			continue
		}
		blk.X = math.Floor(left + math.Max(0, width-blk.Width)/2)
	}
}

func (b *layoutBuilder) separator(y, length, width float64, color ColorRole) {
	x := math.Floor((CardWidth - length) / 2)
	b.layout.Separators = append(b.layout.Separators, Line{X1: x, Y1: y, X2: x + length, Y2: y, Width: width, Color: color})
}

// computeLayout stacks the card blocks top to bottom. Every block starts
// below the cursor left by the previous one. Long itineraries are packed
// tighter until the text ends above the inner border.
func computeLayout(in CardInput, measure measureFunc) Layout {
	l := layoutWithPitch(in, measure, segmentPitch)
	if len(in.Segments) < 2 {
		return l
	}
	excess := textBottom(l) - textLimit
	if excess <= 0 {
		return l
	}
	pitch := math.Max(minSegmentPitch, segmentPitch-math.Ceil(excess/float64(len(in.Segments))))
	return layoutWithPitch(in, measure, pitch)
}

// textBottom is the lowest edge of any text line above the QR caption.
func textBottom(l Layout) float64 {
	return l.Bottom() + lineHeight
}

func layoutWithPitch(in CardInput, measure measureFunc, pitch float64) Layout {
	b := &layoutBuilder{measure: measure}
	cx := float64(CardWidth / 2)

	cursor := 130.0
	b.centered(KindIntro, "You're Cordially Invited", RoleSubtitle, ColorSecondary, cursor)
	cursor += 25

	if in.InviteeName != "" {
		b.centered(KindSalutation, fmt.Sprintf("Dear %s,", in.InviteeName), RoleBody, ColorPrimary, cursor)
		cursor += 25
	}

	cursor += 5
	b.separator(cursor, 150, 2, ColorAccent)
	cursor += 20

	titleY := cursor
	b.centered(KindTitle, "The "+in.Event.Title, RoleTitle, ColorPrimary, titleY)
	b.layout.Ellipses = append(b.layout.Ellipses,
		Rect{X: cx - 90, Y: titleY + 30, W: 5, H: 5},
		Rect{X: cx + 85, Y: titleY + 30, W: 5, H: 5},
	)
	cursor = titleY + 55

	if in.Event.Couple != "" {
		b.centered(KindCouple, in.Event.Couple, RoleSubtitle, ColorSecondary, cursor+5)
		cursor += 30
	}

	cursor += 45
	if len(in.Segments) > 1 {
		for _, seg := range in.Segments {
			at := func(offset float64) float64 {
				return cursor + math.Floor(offset*pitch/segmentPitch)
			}
			b.centered(KindSegmentName, seg.Name, RoleSubtitle, ColorPrimary, cursor)
			b.centered(KindSegmentDate, seg.Date, RoleBody, ColorPrimary, at(24))
			b.centered(KindSegmentTime, seg.Time, RoleAccent, ColorAccent, at(44))
			b.centered(KindSegmentPlace, seg.Location, RoleBody, ColorSecondary, at(62))
			cursor += pitch
		}
	} else {
		b.centered(KindDate, in.Event.Date.Format(DateLayout), RoleBody, ColorPrimary, cursor)
		b.centered(KindTime, in.Event.Date.Format(TimeLayout), RoleAccent, ColorAccent, cursor+30)
		b.centered(KindVenueLabel, "AT", RoleAccent, ColorSecondary, cursor+70)
		b.centered(KindVenue, in.Event.Venue, RoleBody, ColorPrimary, cursor+100)
		cursor += 125
	}

	if in.PaymentAmount != nil {
		b.centered(KindPaymentLabel, "CONTRIBUTION", RoleAccent, ColorSecondary, cursor+5)
		b.centered(KindPayment, fmt.Sprintf("%.2f", *in.PaymentAmount), RoleBody, ColorPrimary, cursor+23)
		cursor += 50
	}

	cursor += 5
	for _, line := range scriptureLines {
		b.centered(KindScripture, line, RoleAccent, ColorSecondary, cursor)
		cursor += 18
	}

	bottomY := math.Max(bottomLineY, cursor+15)
	b.separator(bottomY, 200, 1, ColorBorder)
	sepX := math.Floor((CardWidth - 200) / 2)
	for i := 0; i < 5; i++ {
		b.layout.Diamonds = append(b.layout.Diamonds, Point{X: sepX + float64(200/4*i), Y: bottomY})
	}

	if in.RSVP != "" {
		b.centered(KindRSVPLabel, "RSVP", RoleAccent, ColorSecondary, bottomY+40)
		b.centered(KindRSVP, in.RSVP, RoleBody, ColorSecondary, bottomY+65)
	}

	if in.QR != nil {
		// The QR card sits in the bottom-left corner inside the inner border.
		// Text rows it would cover move into the space right of it.
		card := Rect{X: qrLeft, Y: qrMinTop, W: qrSize + 2*qrPadding, H: qrSize + 2*qrPadding}
		b.besideQR(card)
		b.layout.QRCard = &card
		b.layout.QRImage = &Rect{X: card.X + qrPadding, Y: card.Y + qrPadding, W: qrSize, H: qrSize}

		w := measure(RoleAccent, qrCaption)
		b.layout.Blocks = append(b.layout.Blocks, TextBlock{
			Kind:  KindQRCaption,
			Text:  qrCaption,
			Font:  RoleAccent,
			Color: ColorSecondary,
			X:     math.Floor(card.X + (card.W-w)/2),
			Y:     card.Y + card.H + 4,
			Width: w,
		})
	}

	return b.layout
}
