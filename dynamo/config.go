package dynamo

// Config holds configuration for the Store.
type Config struct {
	// AttributeTable is the table holding document attribute rows.
	// Default: "facet_attributes"
	AttributeTable string

	// SchemaTable is the table holding site schemas.
	// Default: "facet_schemas"
	SchemaTable string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		AttributeTable: "facet_attributes",
		SchemaTable:    "facet_schemas",
	}
}

// validate ensures config values are usable.
func (c *Config) validate() {
	if c.AttributeTable == "" {
		c.AttributeTable = "facet_attributes"
	}
	if c.SchemaTable == "" {
		c.SchemaTable = "facet_schemas"
	}
}
