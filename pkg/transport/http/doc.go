// Package http bridges endpoint builds onto a chi-routed net/http
// transport. It translates brace-style path templates into chi
// patterns, registers each build's translated pattern per method, and
// drives the lifecycle engine for every matched request, materializing
// single responses or coordinating server-sent event streams.
package http
