package client

import (
	"net/http"

	"github.com/antonio-alexander/go-employee-admin/internal"
)

// getTransport trusts the ca and presents the client certificate when all
// three files are provided
func getTransport(sslCaFile, sslCrtFile, sslKeyFile string) (*http.Transport, error) {
	if sslCaFile == "" || sslCrtFile == "" || sslKeyFile == "" {
		return &http.Transport{}, nil
	}
	tlsConfig, err := internal.GetTlsConfig(sslCrtFile, sslKeyFile, sslCaFile)
	if err != nil {
		return nil, err
	}
	tlsConfig.RootCAs, tlsConfig.ClientCAs = tlsConfig.ClientCAs, nil
	return &http.Transport{TLSClientConfig: tlsConfig}, nil
}
