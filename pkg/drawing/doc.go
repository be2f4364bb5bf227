// Package drawing implements drawing operations on top of the Onshape API
// client: parsing drawing URIs, exporting drawings as JSON or PDF, creating
// and editing annotations, and detecting drawings whose references changed.
package drawing
