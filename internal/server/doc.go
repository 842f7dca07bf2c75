// Package server hosts the Fiber HTTP application and the outbound HTTP
// clients shared by the image cache and the thumbnail dispatcher.
// NewApp wires recovery, request ids, access logging and static image serving;
// API routes live in the routes subpackage and receive their dependencies
// explicitly, so keep exports narrow.
package server
