package render

import (
	"image"
	"reflect"
	"testing"
	"time"
)

// fixedMeasure makes widths independent of any font: 7px per rune.
func fixedMeasure(_ FontRole, s string) float64 {
	return float64(len([]rune(s)) * 7)
}

func testEvent() EventInfo {
	return EventInfo{
		ID:    "evt-1",
		Title: "Smith Wedding",
		Venue: "Garden Hall",
		Date:  time.Date(2030, time.June, 14, 16, 30, 0, 0, time.UTC),
	}
}

func assertStrictlyIncreasing(t *testing.T, blocks []TextBlock) {
	t.Helper()
	for i := 1; i < len(blocks); i++ {
		if blocks[i].Y <= blocks[i-1].Y {
			t.Fatalf("block %d (%s, y=%v) does not start below block %d (%s, y=%v)",
				i, blocks[i].Kind, blocks[i].Y, i-1, blocks[i-1].Kind, blocks[i-1].Y)
		}
	}
}

func TestLayoutNoSegmentsUsesEventDetails(t *testing.T) {
	l := computeLayout(CardInput{Event: testEvent()}, fixedMeasure)

	dates := l.Find(KindDate)
	if len(dates) != 1 || dates[0].Text != "Friday, June 14, 2030" {
		t.Fatalf("unexpected date blocks: %+v", dates)
	}
	times := l.Find(KindTime)
	if len(times) != 1 || times[0].Text != "04:30 PM" {
		t.Fatalf("unexpected time blocks: %+v", times)
	}
	venues := l.Find(KindVenue)
	if len(venues) != 1 || venues[0].Text != "Garden Hall" {
		t.Fatalf("unexpected venue blocks: %+v", venues)
	}
	if len(l.Find(KindSegmentName)) != 0 {
		t.Fatalf("no segment blocks expected")
	}
	if dates[0].Y != 280 || times[0].Y != 310 || venues[0].Y != 380 {
		t.Fatalf("unexpected default positions: date=%v time=%v venue=%v", dates[0].Y, times[0].Y, venues[0].Y)
	}
	assertStrictlyIncreasing(t, l.Blocks)
}

func TestLayoutSingleSegmentFallsBackToEvent(t *testing.T) {
	in := CardInput{
		Event:    testEvent(),
		Segments: []Segment{NewSegment("Ceremony", time.Date(2030, 6, 14, 14, 0, 0, 0, time.UTC), "Chapel", "")},
	}
	l := computeLayout(in, fixedMeasure)
	if len(l.Find(KindSegmentName)) != 0 {
		t.Fatalf("single segment must not be rendered as itinerary")
	}
	if len(l.Find(KindVenue)) != 1 {
		t.Fatalf("expected event venue block")
	}
}

func TestLayoutMultipleSegmentsInOrder(t *testing.T) {
	base := time.Date(2030, 6, 14, 12, 0, 0, 0, time.UTC)
	in := CardInput{
		Event: testEvent(),
		Segments: []Segment{
			NewSegment("Ceremony", base, "Chapel", ""),
			NewSegment("Cocktails", base.Add(2*time.Hour), "Terrace", ""),
			NewSegment("Reception", base.Add(4*time.Hour), "Garden Hall", ""),
		},
	}
	l := computeLayout(in, fixedMeasure)

	names := l.Find(KindSegmentName)
	if len(names) != 3 {
		t.Fatalf("expected 3 segment blocks, got %d", len(names))
	}
	for i, want := range []string{"Ceremony", "Cocktails", "Reception"} {
		if names[i].Text != want {
			t.Fatalf("segment %d: got %q, want %q", i, names[i].Text, want)
		}
	}
	assertStrictlyIncreasing(t, names)
	if len(l.Find(KindDate)) != 0 || len(l.Find(KindVenue)) != 0 {
		t.Fatalf("event date/venue must not be drawn with an itinerary")
	}
	assertStrictlyIncreasing(t, l.Blocks)
}

func TestLayoutOptionalBlocks(t *testing.T) {
	amount := 150.0
	in := CardInput{
		Event:         testEvent(),
		InviteeName:   "Jo",
		PaymentAmount: &amount,
		RSVP:          "rsvp@example.com",
		QR:            image.NewGray(image.Rect(0, 0, 33, 33)),
	}
	in.Event.Couple = "Anna & Ben"
	l := computeLayout(in, fixedMeasure)

	checks := map[string]string{
		KindSalutation: "Dear Jo,",
		KindCouple:     "Anna & Ben",
		KindPayment:    "150.00",
		KindRSVP:       "rsvp@example.com",
		KindTitle:      "The Smith Wedding",
		KindQRCaption:  "Scan to check in",
	}
	for kind, want := range checks {
		got := l.Find(kind)
		if len(got) != 1 || got[0].Text != want {
			t.Fatalf("%s: got %+v, want %q", kind, got, want)
		}
	}
	assertStrictlyIncreasing(t, l.Blocks)

	if l.QRCard == nil || l.QRImage == nil {
		t.Fatalf("expected QR placement")
	}
	if l.QRImage.W != qrSize || l.QRImage.X != l.QRCard.X+qrPadding {
		t.Fatalf("unexpected QR geometry: card=%+v image=%+v", *l.QRCard, *l.QRImage)
	}
	rsvp := l.Find(KindRSVP)[0]
	if l.QRCard.Y <= rsvp.Y {
		t.Fatalf("QR card (y=%v) overlaps RSVP (y=%v)", l.QRCard.Y, rsvp.Y)
	}
}

func TestLayoutWithoutOptionalInputs(t *testing.T) {
	l := computeLayout(CardInput{Event: testEvent()}, fixedMeasure)
	for _, kind := range []string{KindSalutation, KindCouple, KindPaymentLabel, KindPayment, KindRSVPLabel, KindRSVP, KindQRCaption} {
		if n := len(l.Find(kind)); n != 0 {
			t.Fatalf("%s: expected no block, got %d", kind, n)
		}
	}
	if l.QRCard != nil {
		t.Fatalf("QR card without QR image")
	}
	if len(l.Diamonds) != 5 {
		t.Fatalf("expected 5 diamonds, got %d", len(l.Diamonds))
	}
	if l.Separators[1].Y1 != bottomLineY {
		t.Fatalf("bottom separator moved without overflow: %v", l.Separators[1].Y1)
	}
}

func TestLayoutLongItineraryPushesBottomDown(t *testing.T) {
	base := time.Date(2030, 6, 14, 10, 0, 0, 0, time.UTC)
	var segs []Segment
	for i := 0; i < 4; i++ {
		segs = append(segs, NewSegment("Part", base.Add(time.Duration(i)*time.Hour), "Hall", ""))
	}
	qr := image.NewGray(image.Rect(0, 0, 33, 33))
	l := computeLayout(CardInput{Event: testEvent(), Segments: segs, RSVP: "call us", QR: qr}, fixedMeasure)

	last := l.Find(KindScripture)
	bottom := l.Separators[len(l.Separators)-1].Y1
	if bottom <= last[len(last)-1].Y {
		t.Fatalf("bottom separator (y=%v) overlaps scripture (y=%v)", bottom, last[len(last)-1].Y)
	}
	if bottom <= bottomLineY {
		t.Fatalf("expected bottom separator below %d, got %v", bottomLineY, bottom)
	}
	assertStrictlyIncreasing(t, l.Blocks)
	assertInsideBorder(t, l)
}

func TestLayoutPacksItineraryToFit(t *testing.T) {
	base := time.Date(2030, 6, 14, 10, 0, 0, 0, time.UTC)
	var segs []Segment
	for i := 0; i < 4; i++ {
		segs = append(segs, NewSegment("Part", base.Add(time.Duration(i)*time.Hour), "Hall", ""))
	}
	amount := 80.0
	in := CardInput{
		Event:         testEvent(),
		Segments:      segs,
		InviteeName:   "Ada Lovelace",
		PaymentAmount: &amount,
		RSVP:          "rsvp@example.com",
		QR:            image.NewGray(image.Rect(0, 0, 33, 33)),
	}
	in.Event.Couple = "Anna & Ben"
	l := computeLayout(in, fixedMeasure)

	names := l.Find(KindSegmentName)
	if len(names) != 4 {
		t.Fatalf("expected 4 segments, got %d", len(names))
	}
	if gap := names[1].Y - names[0].Y; gap >= segmentPitch || gap < minSegmentPitch {
		t.Fatalf("segment pitch = %v, want packed between %d and %d", gap, minSegmentPitch, segmentPitch)
	}
	assertStrictlyIncreasing(t, l.Blocks)
	assertInsideBorder(t, l)
}

// assertInsideBorder checks that text and the QR card stay within the inner
// border and that no text row runs under the QR card.
func assertInsideBorder(t *testing.T, l Layout) {
	t.Helper()
	limit := float64(CardHeight - innerMargin)
	if l.Bottom()+lineHeight > textLimit {
		t.Fatalf("text ends at %v, below %d", l.Bottom()+lineHeight, textLimit)
	}
	if l.QRCard == nil {
		return
	}
	c := *l.QRCard
	if c.Y+c.H > limit || c.X < innerMargin {
		t.Fatalf("QR card %+v outside the inner border", c)
	}
	caption := l.Find(KindQRCaption)
	if len(caption) != 1 || caption[0].Y+lineHeight > limit {
		t.Fatalf("QR caption outside the inner border: %+v", caption)
	}
	for _, b := range l.Blocks {
		if b.Kind == KindQRCaption || b.Y+lineHeight <= c.Y {
			continue
		}
		if b.X < c.X+c.W {
			t.Fatalf("%s block at (%v, %v) overlaps QR card %+v", b.Kind, b.X, b.Y, c)
		}
	}
}

func TestLayoutDeterministic(t *testing.T) {
	in := CardInput{Event: testEvent(), InviteeName: "Ada Lovelace", RSVP: "by May 1"}
	a := computeLayout(in, fixedMeasure)
	b := computeLayout(in, fixedMeasure)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("layouts differ for identical input")
	}
}

func TestLayoutCentersText(t *testing.T) {
	l := computeLayout(CardInput{Event: testEvent()}, fixedMeasure)
	intro := l.Find(KindIntro)[0]
	want := float64((CardWidth - 24*7) / 2)
	if intro.X != want {
		t.Fatalf("intro x = %v, want %v", intro.X, want)
	}
}
