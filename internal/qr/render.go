package qr

import (
	"encoding/base64"
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/MrSnakeDoc/qrlink/internal/domain"
)

// Renderer encodes payload strings into PNG QR images.
type Renderer struct{}

// NewRenderer returns a go-qrcode backed renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render encodes content as a square PNG of opts.Size pixels.
func (r *Renderer) Render(content string, opts Options) ([]byte, error) {
	if content == "" {
		return nil, domain.ErrEmptyPayload
	}

	c, err := opts.compile()
	if err != nil {
		return nil, err
	}

	code, err := qrcode.New(content, c.level)
	if err != nil {
		if strings.Contains(err.Error(), "too long") {
			return nil, fmt.Errorf("%w (%d bytes)", domain.ErrPayloadTooLong, len(content))
		}
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}
	code.ForegroundColor = c.dark
	code.BackgroundColor = c.light

	png, err := code.PNG(c.size)
	if err != nil {
		return nil, fmt.Errorf("failed to render png: %w", err)
	}
	return png, nil
}

// DataURL wraps a PNG as a data: URL suitable for an <img> src.
func DataURL(png []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}
