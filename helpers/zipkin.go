package helpers

import (
	"io"
	"net/http"

	"github.com/openzipkin/zipkin-go"
	zipkinhttp "github.com/openzipkin/zipkin-go/middleware/http"
	httpreporter "github.com/openzipkin/zipkin-go/reporter/http"
)

// InitTracer builds the zipkin server middleware. The returned closer
// flushes the reporter and must be called at shutdown.
func InitTracer(address, service, hostPort string) (func(http.Handler) http.Handler, io.Closer, error) {
	// set up a span reporter
	reporter := httpreporter.NewReporter("http://" + address + "/api/v2/spans")

	// create our local service endpoint
	endpoint, err := zipkin.NewEndpoint(service, hostPort)
	if err != nil {
		_ = reporter.Close()
		return nil, nil, err
	}

	// initialize our tracer
	tracer, err := zipkin.NewTracer(reporter, zipkin.WithLocalEndpoint(endpoint))
	if err != nil {
		_ = reporter.Close()
		return nil, nil, err
	}

	// create global zipkin http server middleware
	serverMiddleware := zipkinhttp.NewServerMiddleware(
		tracer, zipkinhttp.TagResponseSize(true),
	)

	return serverMiddleware, reporter, nil
}
