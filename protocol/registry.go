package protocol

// Registry maps a detected protocol tag to the Dissector that handles it.
// Registering a new protocol is a matter of adding another capability-
// bearing value; no dissector needs to know about any other.
type Registry struct {
	dissectors map[string]Dissector
}

// NewRegistry builds a Registry pre-populated with the ATT, L2CAP-over-ATT,
// and advertisement dissectors.
func NewRegistry() *Registry {
	reg := &Registry{dissectors: map[string]Dissector{}}
	att := ATTDissector{}
	reg.Register(att)
	reg.Register(L2CAPDissector{ATT: att})
	reg.Register(AdvertisementDissector{})
	return reg
}

// Register adds or replaces the dissector for d.Name().
func (r *Registry) Register(d Dissector) {
	r.dissectors[d.Name()] = d
}

// Dissector returns the dissector registered for tag, if any.
func (r *Registry) Dissector(tag string) (Dissector, bool) {
	d, ok := r.dissectors[tag]
	return d, ok
}

// Parse looks up tag's dissector and parses data, returning nil if no
// dissector is registered for tag.
func (r *Registry) Parse(tag string, data []byte) *Result {
	d, ok := r.dissectors[tag]
	if !ok {
		return nil
	}
	return d.Parse(data)
}
