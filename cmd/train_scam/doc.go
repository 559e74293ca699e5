// Package main fine-tunes the call scam classifier on call_scam_transcripts.csv
// and writes the resulting model store to ./results/scamcall. There are no
// flags; defaults can be overridden through config.yaml or SCAMCALL_
// environment variables.
package main
