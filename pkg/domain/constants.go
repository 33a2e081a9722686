package domain

// Field constants shared by adapters that serialize chain data.
const (
	// KeyChainID is the field name carrying a chain identifier in payloads and log records.
	KeyChainID = "chain_id"

	// NamespaceSeparator joins an audio namespace prefix and a clip name.
	NamespaceSeparator = " "
)
