package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

// Lambda adapts an http.Handler to API Gateway proxy events.
type Lambda struct {
	handler http.Handler
}

// NewLambda returns an adapter over h.
func NewLambda(h http.Handler) *Lambda {
	return &Lambda{handler: h}
}

// Handle serves one proxy event through the handler.
func (l *Lambda) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return events.APIGatewayProxyResponse{}, fmt.Errorf("decode body: %w", err)
		}
		body = decoded
	}
	u := url.URL{Path: req.Path}
	q := url.Values{}
	for k, vs := range req.MultiValueQueryStringParameters {
		q[k] = vs
	}
	for k, v := range req.QueryStringParameters {
		if _, ok := q[k]; !ok {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()

	r, err := http.NewRequestWithContext(ctx, req.HTTPMethod, u.String(), bytes.NewReader(body))
	if err != nil {
		return events.APIGatewayProxyResponse{}, fmt.Errorf("build request: %w", err)
	}
	for k, v := range req.Headers {
		r.Header.Set(k, v)
	}

	w := &bufferedWriter{header: http.Header{}, status: http.StatusOK}
	l.handler.ServeHTTP(w, r)

	headers := make(map[string]string, len(w.header))
	for k := range w.header {
		headers[k] = strings.Join(w.header.Values(k), ", ")
	}
	return events.APIGatewayProxyResponse{
		StatusCode: w.status,
		Headers:    headers,
		Body:       w.body.String(),
	}, nil
}

// bufferedWriter collects a response in memory.
type bufferedWriter struct {
	header      http.Header
	body        bytes.Buffer
	status      int
	wroteHeader bool
}

func (w *bufferedWriter) Header() http.Header { return w.header }

func (w *bufferedWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.status, w.wroteHeader = code, true
}

func (w *bufferedWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.body.Write(b)
}
