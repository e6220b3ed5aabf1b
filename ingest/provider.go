package ingest

// Descriptor is a provider descriptor peeled off the working tree
// during ingestion: a map that carried the literal key ".provider".
type Descriptor struct {
	// ProviderName is the value of the ".provider" key.
	ProviderName string
	// KeyPath is the dot path at which the descriptor map was found.
	KeyPath string
	// KeyName is KeyPath's last segment.
	KeyName string
	// Fields holds every other key in the descriptor map, unconverted.
	Fields map[string]interface{}
}

// extractProviders recurses into t's submaps (arrays and scalars are
// left in place), removing and recording every map that carries a
// ".provider" key. An empty map remaining after its children are
// extracted is pruned from its parent.
func extractProviders(t tree, path string, out map[string][]Descriptor) {
	for k, v := range t {
		child, ok := v.(tree)
		if !ok {
			continue
		}
		childPath := joinPath(path, k)

		if rawName, isDescriptor := child[".provider"]; isDescriptor {
			name, _ := rawName.(string)
			fields := make(map[string]interface{}, len(child))
			for fk, fv := range child {
				if fk == ".provider" {
					continue
				}
				fields[fk] = fv
			}
			out[name] = append(out[name], Descriptor{
				ProviderName: name,
				KeyPath:      childPath,
				KeyName:      k,
				Fields:       fields,
			})
			delete(t, k)
			continue
		}

		extractProviders(child, childPath, out)
		if len(child) == 0 {
			delete(t, k)
		}
	}
}
