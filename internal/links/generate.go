package links

import (
	"context"
	"errors"

	"github.com/MrSnakeDoc/qrlink/internal/domain"
	"github.com/MrSnakeDoc/qrlink/internal/qr"
)

// Renderer turns a payload string into a PNG image.
type Renderer interface {
	Render(content string, opts qr.Options) ([]byte, error)
}

// GenerateRequest is one QR generation call.
type GenerateRequest struct {
	Payload domain.Payload
	Render  qr.Options
	// BaseURL prefixes short links, e.g. https://qr.example.com.
	BaseURL string
}

// GenerateResult carries the rendered image. ShortURL and Link are set only
// for URL payloads.
type GenerateResult struct {
	Content  string
	PNG      []byte
	DataURL  string
	ShortURL string
	Link     *domain.Link
}

// Generate validates the request, creates a short link for URL payloads and
// renders the QR image. Render options are checked before any insert.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	if s.renderer == nil {
		return nil, errors.New("no qr renderer configured")
	}
	if req.Payload == nil {
		return nil, domain.ErrInvalidRequest
	}
	if err := req.Render.Validate(); err != nil {
		return nil, err
	}
	if err := req.Payload.Validate(); err != nil {
		return nil, err
	}

	res := &GenerateResult{}

	switch p := req.Payload.(type) {
	case domain.URLPayload:
		link, err := s.Create(ctx, p.URL, p.ExpiresAt)
		if err != nil {
			return nil, err
		}
		res.Link = link
		res.ShortURL = domain.ShortLinkURL(req.BaseURL, link.ShortID)
		res.Content = res.ShortURL
	default:
		content, err := domain.Format(p)
		if err != nil {
			return nil, err
		}
		res.Content = content
	}

	png, err := s.renderer.Render(res.Content, req.Render)
	if err != nil {
		return nil, err
	}
	res.PNG = png
	res.DataURL = qr.DataURL(png)

	return res, nil
}
