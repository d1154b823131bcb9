// SPDX-License-Identifier: MIT
package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys shared by spans.
const (
	ProviderKey       = "epg.provider"
	SourceHostKey     = "epg.source_host"
	StageKey          = "epg.stage"
	ChannelsKey       = "epg.channels"
	ProgrammesInKey   = "epg.programmes_in"
	ProgrammesOutKey  = "epg.programmes_out"
	CollisionsKey     = "epg.collisions"
	BytesKey          = "epg.bytes"
	FetchAttemptKey   = "fetch.attempt"
	HTTPStatusCodeKey = "http.status_code"
	JobIDKey          = "job.id"
	ErrorTypeKey      = "error.type"
)

// ProviderAttributes identifies the provider a span works for.
func ProviderAttributes(provider, sourceHost string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String(ProviderKey, provider)}
	if sourceHost != "" {
		attrs = append(attrs, attribute.String(SourceHostKey, sourceHost))
	}
	return attrs
}

// PipelineAttributes describes the outcome of a normalization run.
func PipelineAttributes(channels, programmesIn, programmesOut, collisions int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(ChannelsKey, channels),
		attribute.Int(ProgrammesInKey, programmesIn),
		attribute.Int(ProgrammesOutKey, programmesOut),
		attribute.Int(CollisionsKey, collisions),
	}
}

// RecordError marks span as failed.
func RecordError(span trace.Span, err error, errorType string) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetAttributes(attribute.String(ErrorTypeKey, errorType))
	span.SetStatus(codes.Error, err.Error())
}
