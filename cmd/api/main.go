// cmd/api/main.go
package main

import (
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"mediashelf/internal/config"
)

const catalogPrefix = "/api/v1/catalog"

func main() {
	cfg := config.Load()
	for _, w := range cfg.Warnings {
		log.Printf("config: %s", w)
	}

	catalogServiceURL, err := url.Parse(cfg.CatalogURL())
	if err != nil {
		log.Fatalf("invalid CATALOG_SERVICE_URL: %v", err)
	}

	server := &http.Server{
		Addr:              ":" + cfg.GatewayPort,
		Handler:           newGateway(catalogServiceURL),
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("API Gateway listening on port %s, catalog at %s", cfg.GatewayPort, catalogServiceURL)
	log.Fatal(server.ListenAndServe())
}

// newGateway routes the public API prefix to the catalog service.
func newGateway(catalog *url.URL) http.Handler {
	proxy := httputil.NewSingleHostReverseProxy(catalog)

	r := chi.NewRouter()
	r.Handle(catalogPrefix+"/*", http.StripPrefix(catalogPrefix, proxy))
	return r
}
