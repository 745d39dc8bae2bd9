package reconcile

// Validate splits requested into identifiers known to the catalog and the
// rest. An identifier is valid iff it appears as a value of catalog; the
// short-name keys are never consulted. Both results keep input order and
// drop repeats.
func Validate(requested []string, catalog map[string]string) (valid, invalid []string) {
	known := make(map[string]struct{}, len(catalog))
	for _, id := range catalog {
		known[id] = struct{}{}
	}

	valid = []string{}
	invalid = []string{}
	seen := make(map[string]struct{}, len(requested))
	for _, id := range requested {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		if _, ok := known[id]; ok {
			valid = append(valid, id)
		} else {
			invalid = append(invalid, id)
		}
	}
	return valid, invalid
}
