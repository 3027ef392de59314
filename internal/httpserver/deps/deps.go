package deps

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/qrlink/internal/links"
	"github.com/MrSnakeDoc/qrlink/internal/logger"
	"github.com/MrSnakeDoc/qrlink/internal/qr"
)

// Pinger is any dependency that can report readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Logger         logger.Logger
	StartTime      time.Time
	Version        string
	Commit         string
	BuildDate      string
	GoVersion      string
	Links          *links.Service    // link creation, resolution and QR generation
	Checks         map[string]Pinger // readiness checks by component name (store, redis)
	PublicBaseURL  string            // optional, otherwise derived from the request
	DefaultRender  qr.Options        // render options applied to omitted fields
	MaxBodyBytes   int64             // limit for JSON request bodies
	RequestTimeout time.Duration     // per-request handler timeout
	AllowedHosts   []string          // Host headers allowed to access the API
	AllowedCIDRS   []string          // IPs allowed to access healthz/readyz endpoints
	TrustProxy     bool              // true if running behind a trusted reverse proxy (e.g., cloudflared)
}
