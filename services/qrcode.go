package services

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/skip2/go-qrcode"
)

const qrSize = 256

type QRGenerator interface {
	TableURL(cafeSlug, qrToken string) string
	Generate(cafeSlug, qrToken string) ([]byte, error)
}

// DefaultQRGenerator encodes the customer menu link of a table.
type DefaultQRGenerator struct {
	BaseURL string
}

func (g DefaultQRGenerator) TableURL(cafeSlug, qrToken string) string {
	return fmt.Sprintf("%s/menu/%s?table=%s",
		strings.TrimRight(g.BaseURL, "/"), url.PathEscape(cafeSlug), url.QueryEscape(qrToken))
}

func (g DefaultQRGenerator) Generate(cafeSlug, qrToken string) ([]byte, error) {
	return qrcode.Encode(g.TableURL(cafeSlug, qrToken), qrcode.Medium, qrSize)
}
