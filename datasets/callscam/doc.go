// Package callscam loads the call scam transcripts dataset: a CSV file with a
// conversation id, the transcript text and a free text label per row.
package callscam
