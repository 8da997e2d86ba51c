// Command kestreld runs a standalone kestrel server with a small set of
// demo routes, useful for manual testing and as a wiring example.
package main

import (
	"flag"
	"log"
	"time"

	"github.com/kestrelhttp/kestrel"
)

func main() {
	ip := flag.String("ip", "", "listen IP (empty means all interfaces)")
	port := flag.Uint("port", 8443, "listen port")
	certFile := flag.String("cert", "", "TLS certificate file (enables TLS + h2/http1.1 ALPN when set with -key)")
	keyFile := flag.String("key", "", "TLS key file")
	flag.Parse()

	router := kestrel.NewRouter()
	mustRegister(router, kestrel.Endpoint{
		Methods: kestrel.NewSet(kestrel.MethodGET),
		Pattern: "/healthz",
		Handler: func(req *kestrel.Request, binding map[string]string) *kestrel.Response {
			resp := kestrel.NewResponse(kestrel.StatusOK)
			resp.Body([]byte("ok\n"))
			return resp
		},
	})
	mustRegister(router, kestrel.Endpoint{
		Methods: kestrel.NewSet(kestrel.MethodGET),
		Pattern: "/hello/{name}",
		Handler: func(req *kestrel.Request, binding map[string]string) *kestrel.Response {
			resp := kestrel.NewResponse(kestrel.StatusOK)
			resp.Body([]byte("hello, " + binding["name"] + "\n"))
			return resp
		},
	})

	srv, err := kestrel.New(kestrel.Config{
		IP:       *ip,
		Port:     uint16(*port),
		CertFile: *certFile,
		KeyFile:  *keyFile,
		Router:   router,
		Runtime: kestrel.RuntimeConfig{
			WorkerThreads: 16,
		},
		KeepAlive: 30 * time.Second,
	})
	if err != nil {
		log.Fatalf("kestreld: %v", err)
	}

	log.Printf("kestreld: listening on %s:%d", *ip, *port)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("kestreld: %v", err)
	}
}

func mustRegister(r kestrel.Router, ep kestrel.Endpoint) {
	if err := r.Register(ep); err != nil {
		log.Fatalf("kestreld: registering %s: %v", ep.Pattern, err)
	}
}
