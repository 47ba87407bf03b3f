// SPDX-License-Identifier: GPL-3.0-or-later
//
// New file: no direct teacher equivalent. Plays the role the teacher's
// example main assigns to its HTTP transport, minus HTTP/2 and TLS, which
// are out of scope here; grpc-status trailer handling follows spec.md's
// gRPC classification requirement.

package fakeproxy

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/bassosimone/proxytelemetry"
)

// GRPCStatusTrailer is the trailer name carrying a gRPC status code on an
// HTTP response, per the gRPC-over-HTTP2 wire protocol.
const GRPCStatusTrailer = "Grpc-Status"

// RoundTrip performs a single HTTP request through client, reporting the
// request and response-end observations for flow to cfg.Bus. The request's
// Host header becomes [telemetry.RequestMeta.Authority].
func RoundTrip(ctx context.Context, cfg *Config, client *http.Client, req *http.Request) (*http.Response, error) {
	flow := ctx.Value(flowContextKey{})
	f, _ := flow.(telemetry.Flow)
	if f.SpanID == "" {
		f.SpanID = telemetry.NewSpanID()
	}

	meta := telemetry.RequestMeta{Authority: req.Host}
	cfg.Bus.OnRequest(f, meta)

	now := cfg.TimeNow
	if now == nil {
		now = time.Now
	}
	start := now()

	resp, err := client.Do(req.WithContext(ctx))
	latencyMs := float64(now().Sub(start)) / float64(time.Millisecond)

	if err != nil {
		cfg.Bus.OnResponseEnd(f, meta, telemetry.ResponseOutcome{TransportFailure: true}, latencyMs)
		return nil, err
	}

	// A declared-but-not-yet-seen trailer (the Trailer: pre-header
	// mechanism) is only populated once the body has been read to EOF, so
	// the body must be drained before Trailer is consulted. Buffer it back
	// into resp.Body so the caller can still read it normally.
	body, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(body))

	outcome := telemetry.ResponseOutcome{StatusCode: resp.StatusCode}
	if readErr == nil {
		if raw := resp.Trailer.Get(GRPCStatusTrailer); raw != "" {
			if code, convErr := strconv.Atoi(raw); convErr == nil {
				outcome.HasGRPCStatus = true
				outcome.GRPCStatus = code
			}
		}
	}
	cfg.Bus.OnResponseEnd(f, meta, outcome, latencyMs)
	return resp, nil
}

// flowContextKey is the context key used to attach a [telemetry.Flow] to an
// outgoing request's context before calling [RoundTrip].
type flowContextKey struct{}

// WithFlow returns a copy of ctx carrying f, for [RoundTrip] to read back.
func WithFlow(ctx context.Context, f telemetry.Flow) context.Context {
	return context.WithValue(ctx, flowContextKey{}, f)
}
