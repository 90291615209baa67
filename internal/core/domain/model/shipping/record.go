package shipping

// ProviderRecord is one order as reported by a delivery provider lookup.
type ProviderRecord struct {
	ExternalReference string
	TrackingNumber    string
	StatusCode        int
}
