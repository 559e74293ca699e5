// Package main loads the trained call scam classifier and classifies one
// example text, printing the predicted class and its confidence.
package main
