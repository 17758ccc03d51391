// Package http implements the HTTP transport adapter. Each facade operation
// maps to one REST-style call against the server's JSON API
// (/kv/{key}, /batch/*, /scan, /prefix_scan, /snapshot, /admin/*, /health).
//
// A 404 on a read operation means "value absent" and is a normal return;
// every other non-2xx response raises a typed error carrying the HTTP
// failure detail. Subscriptions are not supported over this transport.
package http
