package main

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/acme/autocert"

	"github.com/tariel-x/weddingcards/internal/config"
)

const renewBefore = 30 * 24 * time.Hour

func startSelfSignedHTTPS(ctx context.Context, handler http.Handler, cfg *config.Config, logger zerolog.Logger) {
	logger.Info().Msg("self-signed TLS enabled, generating certificate")

	hosts := []string{"localhost"}
	if cfg.Domain != "" {
		hosts = []string{cfg.Domain}
	}
	certPEM, keyPEM, err := generateSelfSignedCert(hosts, time.Now())
	if err != nil {
		logger.Error().Err(err).Msg("failed to generate self-signed certificate")
		return
	}
	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		logger.Error().Err(err).Msg("failed to load self-signed certificate")
		return
	}

	httpsServer := newServer(":"+cfg.HTTPSPort, handler, logger)
	httpsServer.TLSConfig = &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}

	redirect := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host := r.Host
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}
		target := "https://" + host + ":" + cfg.HTTPSPort + r.URL.Path
		if r.URL.RawQuery != "" {
			target += "?" + r.URL.RawQuery
		}
		http.Redirect(w, r, target, http.StatusMovedPermanently)
	})
	httpServer := newServer(":"+cfg.HTTPPort, redirect, logger)
	go shutdownOnDone(ctx, logger, httpServer, httpsServer)

	go func() {
		logger.Info().Str("port", cfg.HTTPPort).Msg("HTTP redirect server starting")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("HTTP redirect server error")
		}
	}()

	logger.Info().Str("port", cfg.HTTPSPort).Str("url", fmt.Sprintf("https://%s:%s", hosts[0], cfg.HTTPSPort)).Msg("HTTPS server (self-signed) starting")
	if err := httpsServer.ListenAndServeTLS("", ""); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("failed to start HTTPS server")
	}
}

// startCertificateRenewal checks the cached certificate monthly and asks
// autocert for a new one when it expires within renewBefore.
func startCertificateRenewal(ctx context.Context, m *autocert.Manager, domain string, logger zerolog.Logger) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(30 * time.Second):
	}

	ticker := time.NewTicker(30 * 24 * time.Hour)
	defer ticker.Stop()

	for {
		checkAndRenewCertificate(m, domain, logger)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func checkAndRenewCertificate(m *autocert.Manager, domain string, logger zerolog.Logger) {
	hello := &tls.ClientHelloInfo{ServerName: domain}
	cert, err := m.GetCertificate(hello)
	if err != nil {
		logger.Error().Err(err).Str("domain", domain).Msg("certificate unavailable, will be obtained on next request")
		return
	}
	if cert == nil || len(cert.Certificate) == 0 {
		logger.Error().Str("domain", domain).Msg("no certificate in cache")
		return
	}

	leaf := cert.Leaf
	if leaf == nil {
		leaf, err = x509.ParseCertificate(cert.Certificate[0])
		if err != nil {
			logger.Error().Err(err).Msg("failed to parse certificate")
			_, _ = m.GetCertificate(hello)
			return
		}
	}

	expiresIn := time.Until(leaf.NotAfter)
	logger.Info().Str("domain", domain).Time("not_after", leaf.NotAfter).Int("days_left", int(expiresIn.Hours()/24)).Msg("certificate checked")
	if expiresIn >= renewBefore {
		return
	}
	if _, err := m.GetCertificate(hello); err != nil {
		logger.Error().Err(err).Msg("certificate renewal failed")
		return
	}
	logger.Info().Str("domain", domain).Msg("certificate renewal triggered")
}

// generateSelfSignedCert creates a one-year ECDSA certificate for hosts.
func generateSelfSignedCert(hosts []string, now time.Time) (certPEM, keyPEM []byte, err error) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate private key: %w", err)
	}

	serialNumber, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate serial number: %w", err)
	}

	var dnsNames []string
	var ipAddrs []net.IP
	for _, h := range hosts {
		h = strings.TrimSpace(h)
		if host, _, err := net.SplitHostPort(h); err == nil {
			h = host
		}
		if h == "" {
			continue
		}
		if ip := net.ParseIP(h); ip != nil {
			ipAddrs = append(ipAddrs, ip)
			continue
		}
		dnsNames = append(dnsNames, h)
	}
	if len(dnsNames) == 0 && len(ipAddrs) == 0 {
		dnsNames = []string{"localhost"}
	}

	commonName := "localhost"
	if len(dnsNames) > 0 {
		commonName = dnsNames[0]
	} else {
		commonName = ipAddrs[0].String()
	}

	template := x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			Organization: []string{"Wedding Cards Development"},
			CommonName:   commonName,
		},
		NotBefore:             now,
		NotAfter:              now.Add(365 * 24 * time.Hour),
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		DNSNames:              dnsNames,
		IPAddresses:           ipAddrs,
	}

	derBytes, err := x509.CreateCertificate(rand.Reader, &template, &template, &priv.PublicKey, priv)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create certificate: %w", err)
	}

	var certBuf bytes.Buffer
	if err := pem.Encode(&certBuf, &pem.Block{Type: "CERTIFICATE", Bytes: derBytes}); err != nil {
		return nil, nil, fmt.Errorf("failed to encode certificate: %w", err)
	}
	privBytes, err := x509.MarshalECPrivateKey(priv)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal private key: %w", err)
	}
	var keyBuf bytes.Buffer
	if err := pem.Encode(&keyBuf, &pem.Block{Type: "EC PRIVATE KEY", Bytes: privBytes}); err != nil {
		return nil, nil, fmt.Errorf("failed to encode private key: %w", err)
	}
	return certBuf.Bytes(), keyBuf.Bytes(), nil
}
