// Package server provides the HTTP/WebSocket transport: the /ws
// handshake (rate limit, capacity check, credential validation), health
// probes, and the Prometheus metrics endpoint.
package server
