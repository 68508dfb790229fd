package tracing

// Span names.
const (
	SpanCatalogBuild  = "catalog.build"
	SpanWorkingPoints = "catalog.working_points"
	SpanPrefixFamily  = "catalog.family."
)

// Span attribute keys.
const (
	AttrCatalogSource = "catalog.source"
	AttrBuildID       = "catalog.build_id"
	AttrPoolID        = "selector.pool_id"
	AttrPoolSize      = "selector.pool_size"
	AttrFamilyName    = "family.name"
	AttrFamilyOp      = "family.op"
	AttrFamilySize    = "family.size"
	AttrListName      = "list.name"
	AttrFlag          = "flag.name"
	AttrFlagEnabled   = "flag.enabled"
	AttrRegistrySize  = "registry.size"
)

// Event names.
const (
	EventListsDefined   = "lists.defined"
	EventPoolSnapshot   = "pool.snapshot"
	EventFallbackUsed   = "family.fallback"
	EventExtensionAdded = "working_points.extended"
)
