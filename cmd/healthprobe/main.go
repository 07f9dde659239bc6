// healthprobe checks a running mediadex instance over fasthttp. It is
// meant for container HEALTHCHECK directives and CI smoke tests, where a
// tiny static binary beats shelling out to curl.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/valyala/fasthttp"
)

func main() {
	target := flag.String("target", "http://127.0.0.1:8080", "base URL of the mediadex instance")
	path := flag.String("path", "/readyz", "probe path (/healthz for liveness, /readyz for readiness)")
	timeout := flag.Duration("timeout", 3*time.Second, "request timeout")
	flag.Parse()

	c := &fasthttp.Client{
		ReadTimeout:  *timeout,
		WriteTimeout: *timeout,
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(*target + *path)
	req.Header.SetMethod(fasthttp.MethodGet)

	if err := c.DoTimeout(req, resp, *timeout); err != nil {
		fmt.Fprintf(os.Stderr, "probe failed: %v\n", err)
		os.Exit(1)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		fmt.Fprintf(os.Stderr, "probe failed: status %d: %s\n", resp.StatusCode(), resp.Body())
		os.Exit(1)
	}
	fmt.Printf("%s\n", resp.Body())
}
