package tlsroots

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/yndnr/chainstate-go/internal/infra/confloader"
)

// CertReloader serves a certificate/key pair that can be swapped while
// the server runs. A failed reload keeps the previous pair.
type CertReloader struct {
	certFile string
	keyFile  string
	logger   *slog.Logger

	cert atomic.Pointer[tls.Certificate]
}

// NewCertReloader loads the pair once and fails if it cannot.
func NewCertReloader(certFile, keyFile string, logger *slog.Logger) (*CertReloader, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &CertReloader{
		certFile: filepath.Clean(certFile),
		keyFile:  filepath.Clean(keyFile),
		logger:   logger.With("component", "tls"),
	}
	if err := r.Reload(); err != nil {
		return nil, fmt.Errorf("tlsroots: initial load: %w", err)
	}
	return r, nil
}

// Reload reads the pair from disk and installs it.
func (r *CertReloader) Reload() error {
	cert, err := tls.LoadX509KeyPair(r.certFile, r.keyFile)
	if err != nil {
		return fmt.Errorf("load key pair: %w", err)
	}
	r.cert.Store(&cert)
	r.logger.Info("certificate loaded", "cert_file", r.certFile)
	return nil
}

// Watch reloads the pair whenever w reports a change to the certificate
// or key file.
func (r *CertReloader) Watch(w *confloader.Watcher) error {
	w.OnChange(func(path string) {
		if path != r.certFile && path != r.keyFile {
			return
		}
		if err := r.Reload(); err != nil {
			r.logger.Error("certificate reload failed, keeping previous certificate",
				"error", err,
				"cert_file", r.certFile)
		}
	})

	if err := w.Watch(r.certFile); err != nil {
		return err
	}
	if filepath.Dir(r.keyFile) != filepath.Dir(r.certFile) {
		return w.Watch(r.keyFile)
	}
	return nil
}

// GetCertificate implements tls.Config.GetCertificate.
func (r *CertReloader) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	return r.cert.Load(), nil
}

// ServerConfig returns a server TLS config serving the current pair.
func (r *CertReloader) ServerConfig() *tls.Config {
	return &tls.Config{
		GetCertificate: r.GetCertificate,
		MinVersion:     tls.VersionTLS12,
	}
}
