// Package workflow implements the per-document classification workflow:
// a state graph of load → duplicate → classify → exempt. Each node records
// its outcome on the document and its audit events on a Recorder; document
// failures never escape a node.
package workflow

import "errors"

// ErrLoad marks a document whose content could not be read.
var ErrLoad = errors.New("document load failed")
