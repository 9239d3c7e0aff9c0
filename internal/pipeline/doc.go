// Package pipeline runs a batch: it reads the query descriptor, extracts
// heading candidates from every input document, ranks them against the
// query and writes the report.
//
// Failures are scoped. A document that cannot be read is recorded and the
// batch continues; a missing query, an unusable classifier or (in strict
// mode) an embedding failure abort the run.
package pipeline
