package ir

// Version constants for stored data and the chain.
const (
	// SchemaVersion is the version of the stored transaction log format.
	SchemaVersion = "1"

	// ChainVersion is the in-process chain version.
	ChainVersion = "0.1.0"

	// ABIVersionPrefix is the version prefix every accepted ABI carries.
	ABIVersionPrefix = "eosio::abi/1."
)
