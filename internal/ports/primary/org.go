package primary

import (
	"context"

	"github.com/example/canvasai/internal/core/org"
)

// OrgService defines the primary port for school branding.
type OrgService interface {
	// Info resolves branding for the configured Canvas instance.
	Info(ctx context.Context) (*org.Info, error)

	// Probe resolves branding and returns the full attempt trace.
	Probe(ctx context.Context) (*ProbeResponse, error)

	// SetBranding stores user overrides and returns the config path.
	SetBranding(ctx context.Context, req SetBrandingRequest) (string, error)
}

// ProbeResponse pairs resolved info with its diagnostic report.
type ProbeResponse struct {
	Info   org.Info
	Report org.Report
}

// SetBrandingRequest contains override values. Nil leaves a value unchanged.
type SetBrandingRequest struct {
	SchoolName *string
	LogoURL    *string
}
