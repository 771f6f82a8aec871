package rnp

// Tags is a flat set of static key/value annotations attached to a run,
// e.g. {"env": "staging"}. TagSet keys a Tags set by an arbitrary string,
// for callers that need more than one named set at a time.
type Tags map[string]string
type TagSet map[string]Tags
