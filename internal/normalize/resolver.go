package normalize

// CompanyResolver maps company names to warehouse dimension IDs. New
// companies are added via configuration, not code changes.
type CompanyResolver interface {
	// Resolve returns the dimension ID for a company name and ok=false when
	// the company is unknown.
	Resolve(companyName string) (int64, bool)
}

// StaticResolver resolves companies from a fixed in-memory mapping
type StaticResolver struct {
	mapping map[string]int64
}

// NewStaticResolver creates a resolver over the given mapping
func NewStaticResolver(mapping map[string]int64) *StaticResolver {
	m := make(map[string]int64, len(mapping))
	for name, id := range mapping {
		m[name] = id
	}
	return &StaticResolver{mapping: m}
}

// Resolve implements CompanyResolver
func (r *StaticResolver) Resolve(companyName string) (int64, bool) {
	id, ok := r.mapping[companyName]
	return id, ok
}
