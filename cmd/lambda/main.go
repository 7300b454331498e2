// Package main provides the Lambda handler for cloudcost-guard.
// This is the entry point for AWS Lambda Function URL deployment.
package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/cloudcost-guard/internal/config"
	"github.com/cloudcost-guard/internal/controller"
	"github.com/cloudcost-guard/internal/logging"
	"github.com/cloudcost-guard/internal/web"
)

// functionURLHandler adapts Function URL events onto the web server's
// http.Handler so Lambda serves exactly the same routes as `web`.
type functionURLHandler struct {
	handler http.Handler
	log     *logging.LambdaWriter
}

func newFunctionURLHandler(h http.Handler) *functionURLHandler {
	return &functionURLHandler{
		handler: h,
		log:     logging.NewLambdaWriter("lambda", logging.INFO),
	}
}

// Handle processes one Lambda Function URL request
func (f *functionURLHandler) Handle(ctx context.Context, request events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error) {
	req, err := toHTTPRequest(ctx, request)
	if err != nil {
		fmt.Fprintf(f.log, "bad request %s: %v", request.RawPath, err)
		return events.LambdaFunctionURLResponse{
			StatusCode: http.StatusBadRequest,
			Headers:    map[string]string{"Content-Type": "application/json"},
			Body:       `{"error":"Invalid request"}`,
		}, nil
	}

	rw := newResponseWriter()
	f.handler.ServeHTTP(rw, req)
	resp := rw.toFunctionURLResponse()

	fmt.Fprintf(f.log, "%s %s %d", req.Method, request.RawPath, resp.StatusCode)
	return resp, nil
}

func toHTTPRequest(ctx context.Context, request events.LambdaFunctionURLRequest) (*http.Request, error) {
	body := []byte(request.Body)
	if request.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(request.Body)
		if err != nil {
			return nil, fmt.Errorf("decode body: %w", err)
		}
		body = decoded
	}

	target := request.RawPath
	if target == "" {
		target = "/"
	}
	if request.RawQueryString != "" {
		target += "?" + request.RawQueryString
	}

	method := request.RequestContext.HTTP.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	for k, v := range request.Headers {
		req.Header.Set(k, v)
	}
	if len(request.Cookies) > 0 {
		req.Header.Set("Cookie", strings.Join(request.Cookies, "; "))
	}
	if host := req.Header.Get("Host"); host != "" {
		req.Host = host
	}
	req.RemoteAddr = request.RequestContext.HTTP.SourceIP
	return req, nil
}

// responseWriter buffers a handler's response for conversion into a
// Function URL response.
type responseWriter struct {
	header http.Header
	body   bytes.Buffer
	status int
}

func newResponseWriter() *responseWriter {
	return &responseWriter{header: make(http.Header)}
}

func (w *responseWriter) Header() http.Header { return w.header }

func (w *responseWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.body.Write(p)
}

func (w *responseWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
}

func (w *responseWriter) toFunctionURLResponse() events.LambdaFunctionURLResponse {
	status := w.status
	if status == 0 {
		status = http.StatusOK
	}

	headers := make(map[string]string, len(w.header))
	for k, v := range w.header {
		if k == "Set-Cookie" {
			continue
		}
		headers[k] = strings.Join(v, ",")
	}

	resp := events.LambdaFunctionURLResponse{
		StatusCode: status,
		Headers:    headers,
		Cookies:    w.header.Values("Set-Cookie"),
	}
	if isTextContent(w.header.Get("Content-Type")) {
		resp.Body = w.body.String()
	} else {
		resp.Body = base64.StdEncoding.EncodeToString(w.body.Bytes())
		resp.IsBase64Encoded = true
	}
	return resp
}

func isTextContent(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	if strings.HasPrefix(mediaType, "text/") {
		return true
	}
	switch mediaType {
	case "application/json", "application/javascript", "image/svg+xml":
		return true
	}
	return false
}

func main() {
	cfg := config.Get()
	ctrl := controller.New(controller.WithConfig(cfg))
	srv := web.NewServerWithController(ctrl, cfg.Server.Port)

	lambda.Start(newFunctionURLHandler(srv.Handler()).Handle)
}
