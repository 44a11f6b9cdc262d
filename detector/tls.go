// Copyright IBM Corp. 2021, 2025
// SPDX-License-Identifier: MPL-2.0

package detector

import (
	"crypto/tls"
	"errors"
	"net/http"

	"github.com/hashicorp/go-rootcerts"
)

// TLSConfig contains the parameters needed to configure TLS on the HTTP client used to reach a detection service.
type TLSConfig struct {
	// CACert is the path to a PEM-encoded CA cert file to use to verify the
	// server SSL certificate. It takes precedence over CACertBytes
	// and CAPath.
	CACert string

	// CACertBytes is a PEM-encoded certificate or bundle. It takes precedence
	// over CAPath.
	CACertBytes []byte

	// CAPath is the path to a directory of PEM-encoded CA cert files to verify
	// the server SSL certificate.
	CAPath string

	// ClientCert is the path to the certificate for communication
	ClientCert string

	// ClientKey is the path to the private key for communication
	ClientKey string

	// TLSServerName, if set, is used to set the SNI host when connecting via
	// TLS.
	TLSServerName string

	// Insecure enables or disables SSL verification. Setting to `false` is highly
	// discouraged.
	Insecure bool
}

type httpTransportConfig struct {
	tlsConfig         TLSConfig
	tlsConfigFunction func(TLSConfig) (*tls.Config, error)
}

// newHTTPTransport clones the default transport and, when any TLS setting is present, attaches the TLS
// configuration built by cfg.tlsConfigFunction.
func newHTTPTransport(cfg httpTransportConfig) (*http.Transport, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.tlsConfig.isEmpty() {
		return transport, nil
	}

	fn := cfg.tlsConfigFunction
	if fn == nil {
		fn = createTLSClientConfig
	}
	tlsConfig, err := fn(cfg.tlsConfig)
	if err != nil {
		return nil, err
	}
	transport.TLSClientConfig = tlsConfig
	return transport, nil
}

func createTLSClientConfig(cfg TLSConfig) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		InsecureSkipVerify: cfg.Insecure,
		ServerName:         cfg.TLSServerName,
	}

	if cfg.CACert != "" || cfg.CAPath != "" || len(cfg.CACertBytes) > 0 {
		rootConfig := &rootcerts.Config{
			CAFile:        cfg.CACert,
			CAPath:        cfg.CAPath,
			CACertificate: cfg.CACertBytes,
		}
		if err := rootcerts.ConfigureTLS(tlsConfig, rootConfig); err != nil {
			return nil, err
		}
	}

	switch {
	case cfg.ClientCert != "" && cfg.ClientKey != "":
		cert, err := tls.LoadX509KeyPair(cfg.ClientCert, cfg.ClientKey)
		if err != nil {
			return nil, err
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	case cfg.ClientCert != "":
		return nil, errors.New("client cert provided without a client key")
	case cfg.ClientKey != "":
		return nil, errors.New("client key provided without a client cert")
	}

	return tlsConfig, nil
}

func (c TLSConfig) isEmpty() bool {
	return c.CACert == "" && len(c.CACertBytes) == 0 && c.CAPath == "" && c.ClientCert == "" && c.ClientKey == "" &&
		c.TLSServerName == "" && !c.Insecure
}
