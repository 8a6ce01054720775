package qr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

const DefaultSize = 290

// Code is an encoded QR image with its PNG bytes.
type Code struct {
	URL      string
	Image    image.Image
	PNG      []byte
	FileName string
}

// VerifyURL is the address a guest's QR code points at.
func VerifyURL(siteURL, guestID string) string {
	return strings.TrimRight(siteURL, "/") + "/verify/" + guestID + "/"
}

// InvitationURL is the address of the event-wide invitation QR code.
func InvitationURL(siteURL, invitationID string) string {
	return strings.TrimRight(siteURL, "/") + "/invitations/" + invitationID + "/"
}

func GuestFileName(guestID string) string {
	return fmt.Sprintf("guest_qr_%s.png", guestID)
}

func InvitationFileName(invitationID string) string {
	return fmt.Sprintf("invitation_qr_%s.png", invitationID)
}

// Encode renders url as a size x size QR code at medium error recovery.
func Encode(url string, size int) (*Code, error) {
	q, err := qrcode.New(url, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}
	img := q.Image(size)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode qr png: %w", err)
	}
	return &Code{URL: url, Image: img, PNG: buf.Bytes()}, nil
}

// ForGuest encodes the verification URL of a guest.
func ForGuest(siteURL, guestID string) (*Code, error) {
	code, err := Encode(VerifyURL(siteURL, guestID), DefaultSize)
	if err != nil {
		return nil, err
	}
	code.FileName = GuestFileName(guestID)
	return code, nil
}
