package documents

// Projection exposes the repository projection so filter SQL is tested
// against the real column mapping.
var Projection = projection
