package pdf

import (
	"context"
	"io"
)

// Provider renders policy documents. Implementations must be safe for
// concurrent use.
type Provider interface {
	GenerateCertificate(ctx context.Context, data CertificateData) (io.Reader, error)
}

type NoOpProvider struct{}

func (p *NoOpProvider) GenerateCertificate(ctx context.Context, data CertificateData) (io.Reader, error) {
	return nil, nil
}
