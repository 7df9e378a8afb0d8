package qr

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"strings"

	"github.com/skip2/go-qrcode"
)

const (
	Alphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	CodeLength = 8

	DefaultPrefix = "KH-"
	maxAttempts   = 16
)

var ErrCodeSpaceExhausted = errors.New("qr: could not generate an unused code")

type Generator struct {
	prefix     string
	siteDomain string
	size       int
}

func NewGenerator(prefix, siteDomain string, size int) *Generator {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if size <= 0 {
		size = 256
	}
	return &Generator{
		prefix:     strings.ToUpper(prefix),
		siteDomain: strings.TrimSuffix(siteDomain, "/"),
		size:       size,
	}
}

func (g *Generator) Prefix() string {
	return g.prefix
}

// NewCode draws prefix + CodeLength uniform characters from Alphabet. exists
// reports codes already issued; a colliding draw is retried.
func (g *Generator) NewCode(exists func(code string) bool) (string, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		code, err := g.randomCode()
		if err != nil {
			return "", err
		}
		if exists == nil || !exists(code) {
			return code, nil
		}
	}
	return "", ErrCodeSpaceExhausted
}

func (g *Generator) randomCode() (string, error) {
	var b strings.Builder
	b.Grow(len(g.prefix) + CodeLength)
	b.WriteString(g.prefix)

	max := big.NewInt(int64(len(Alphabet)))
	for i := 0; i < CodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("qr: read random: %w", err)
		}
		b.WriteByte(Alphabet[n.Int64()])
	}
	return b.String(), nil
}

// PickupURL is the payload encoded into the scannable image.
func (g *Generator) PickupURL(code string) string {
	return fmt.Sprintf("https://%s/pickup/%s", g.siteDomain, code)
}

func (g *Generator) PNG(code string) ([]byte, error) {
	if code == "" {
		return nil, errors.New("qr: empty code")
	}
	return qrcode.Encode(g.PickupURL(code), qrcode.Medium, g.size)
}

// ValidCode reports whether code is prefix followed by CodeLength alphabet
// characters.
func (g *Generator) ValidCode(code string) bool {
	if !strings.HasPrefix(code, g.prefix) {
		return false
	}
	body := code[len(g.prefix):]
	if len(body) != CodeLength {
		return false
	}
	for i := 0; i < len(body); i++ {
		if !strings.ContainsRune(Alphabet, rune(body[i])) {
			return false
		}
	}
	return true
}

// ExtractCode accepts what a scanner or a person typed: the raw code or a
// pickup URL ending in /pickup/<code>. The result is upper-cased.
func ExtractCode(payload string) string {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return ""
	}

	if strings.Contains(payload, "://") {
		if u, err := url.Parse(payload); err == nil {
			payload = u.Path
		}
	}

	if idx := strings.LastIndex(payload, "/pickup/"); idx >= 0 {
		payload = payload[idx+len("/pickup/"):]
	}
	payload = strings.Trim(payload, "/")
	return strings.ToUpper(payload)
}
