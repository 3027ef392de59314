package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/qrlink/internal/domain"
	"github.com/MrSnakeDoc/qrlink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/qrlink/internal/links"
	"github.com/MrSnakeDoc/qrlink/internal/logger"
	"github.com/MrSnakeDoc/qrlink/internal/qr"
	"github.com/MrSnakeDoc/qrlink/internal/utils"
)

// generateRequest accepts both the current field names and the legacy
// qrDataType/colors pair.
type generateRequest struct {
	Type          string          `json:"type"`
	QRDataType    string          `json:"qrDataType"`
	Data          json.RawMessage `json:"data"`
	RenderOptions *qr.Options     `json:"renderOptions"`
	Colors        *qr.Options     `json:"colors"`
}

type generateResponse struct {
	QRCode   string `json:"qrCode"`
	ShortURL string `json:"shortUrl,omitempty"`
}

func Generate(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.MaxBodyBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, d.MaxBodyBytes)
		}

		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest.Error())
			return
		}

		payload, err := decodePayload(req)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		baseURL := d.PublicBaseURL
		if baseURL == "" {
			baseURL = utils.RequestBaseURL(r, d.TrustProxy)
		}

		res, err := d.Links.Generate(r.Context(), links.GenerateRequest{
			Payload: payload,
			Render:  mergeRender(d.DefaultRender, req.renderOptions()),
			BaseURL: baseURL,
		})
		if err != nil {
			if domain.IsClientError(err) {
				d.Logger.Debug("generate rejected",
					logger.String("type", string(payload.Kind())),
					logger.Error(err))
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			d.Logger.Error("generate failed",
				logger.String("type", string(payload.Kind())),
				logger.Error(err))
			writeError(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}

		if res.Link != nil {
			d.Logger.Info("short link created",
				logger.String("short_id", res.Link.ShortID),
				logger.Bool("expires", res.Link.ExpiresAt != nil))
		}

		writeJSON(w, http.StatusOK, generateResponse{
			QRCode:   res.DataURL,
			ShortURL: res.ShortURL,
		})
	}
}

func (req generateRequest) kind() string {
	if req.Type != "" {
		return req.Type
	}
	return req.QRDataType
}

func (req generateRequest) renderOptions() qr.Options {
	switch {
	case req.RenderOptions != nil:
		return *req.RenderOptions
	case req.Colors != nil:
		return *req.Colors
	default:
		return qr.Options{}
	}
}

// decodePayload maps the kind discriminator and its data object onto a
// domain payload.
func decodePayload(req generateRequest) (domain.Payload, error) {
	if strings.TrimSpace(req.kind()) == "" {
		return nil, domain.ErrInvalidRequest
	}
	kind, err := domain.ParseKind(req.kind())
	if err != nil {
		return nil, err
	}

	data := bytes.TrimSpace(req.Data)
	if len(data) == 0 || data[0] != '{' {
		return nil, fmt.Errorf("%w: data must be an object", domain.ErrInvalidRequest)
	}

	var p domain.Payload
	switch kind {
	case domain.KindURL:
		var v domain.URLPayload
		err = json.Unmarshal(data, &v)
		p = v
	case domain.KindText:
		var v domain.TextPayload
		err = json.Unmarshal(data, &v)
		p = v
	case domain.KindWiFi:
		var v domain.WiFiPayload
		err = json.Unmarshal(data, &v)
		p = v
	case domain.KindEmail:
		var v domain.EmailPayload
		err = json.Unmarshal(data, &v)
		p = v
	}
	if err != nil {
		return nil, fmt.Errorf("%w: malformed %s data", domain.ErrInvalidRequest, kind)
	}
	return p, nil
}

// mergeRender overlays the request's non-zero fields on the defaults.
func mergeRender(def, req qr.Options) qr.Options {
	out := def
	if req.Size != 0 {
		out.Size = req.Size
	}
	if strings.TrimSpace(req.Dark) != "" {
		out.Dark = req.Dark
	}
	if strings.TrimSpace(req.Light) != "" {
		out.Light = req.Light
	}
	if strings.TrimSpace(req.ErrorCorrection) != "" {
		out.ErrorCorrection = req.ErrorCorrection
	}
	return out
}
