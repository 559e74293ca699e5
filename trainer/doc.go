// Package trainer fine-tunes the sequence classifier: shuffled mini batches,
// cross entropy gradients computed in parallel, AdamW steps on a linear
// schedule and an evaluation pass after every epoch.
package trainer
