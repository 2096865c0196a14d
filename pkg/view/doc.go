// Package view derives filtered, sorted and paginated views and summary
// statistics from in-memory record lists.
//
// Everything here is a pure function of its inputs: the record slice passed
// in is never modified, and every statistic is recomputed from the list it is
// given. Records are described by a Schema of field accessors, so the same
// filter, sort and aggregate code serves every record type.
//
// The pipeline for a view is:
//
//	records -> Filter -> Sort -> Compute -> Paginate
//
// Run executes the whole pipeline for a core.Query.
package view
