// Package otel bridges the engine's counter snapshot into OpenTelemetry
// observable instruments. Registration is pull-based: counters are read on
// each collection via a meter callback, so the hot auth path never touches
// the OTel SDK.
package otel
