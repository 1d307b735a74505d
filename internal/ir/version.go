package ir

// Version constants for the interchange format and engine.
const (
	// IRVersion is the interchange schema version.
	IRVersion = "1"

	// EngineVersion is the eqsat engine version.
	EngineVersion = "0.1.0"
)
