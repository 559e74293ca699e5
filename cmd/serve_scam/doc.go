// Package main serves the trained call scam classifier over HTTP. The model
// store is loaded once at startup and shared by every request.
package main
