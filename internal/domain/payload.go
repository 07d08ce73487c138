package domain

// RawPayload is the handoff unit between a connector and the core: one
// source-specific transaction payload, still in the provider's own shape.
// Normalizers translate these into canonical Transactions; the core never
// looks inside Data itself.
type RawPayload struct {
	// Source identifies which normalizer understands Data
	Source Source `json:"source"`
	// Ref is the provider's reference for the payload (tx hash, exchange
	// transaction id), used when reporting per-payload failures
	Ref string `json:"ref"`
	// Data is the provider payload as JSON
	Data []byte `json:"data"`
}
