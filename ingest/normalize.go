package ingest

import (
	"strconv"

	"github.com/normano/c5store/errors"
	"github.com/normano/c5store/value"
)

// normalizeArrays walks t post-order, collapsing any map node whose
// keys are exactly the decimal strings "0".."n-1" into a []interface{}
// in index order — unless its path was marked in forceMap by a
// mapForceSuffix segment, in which case it is left as a map. When an
// array collapse happens, the per-index source entries are folded
// into a single entry for the collapsed path (the highest index
// wins, matching "last writer" framing elsewhere in the pipeline).
func normalizeArrays(t tree, path string, forceMap map[string]bool, sources map[string]value.Source, strict bool) error {
	for k, v := range t {
		child, ok := v.(tree)
		if !ok {
			continue
		}
		childPath := joinPath(path, k)
		if err := normalizeArrays(child, childPath, forceMap, sources, strict); err != nil {
			return err
		}

		forced := forceMap[childPath]
		arrayLike, maxIndex := isArrayLike(child)
		if forced {
			if strict && !arrayLike {
				return errors.E(errors.Op("ingest.normalizeArrays"), errors.Path(childPath), errors.Invalid,
					errors.Str("#map forcing suffix applied to a key with no integer-like siblings"))
			}
			continue
		}
		if !arrayLike {
			continue
		}
		arr := make([]interface{}, maxIndex+1)
		for i := 0; i <= maxIndex; i++ {
			arr[i] = child[strconv.Itoa(i)]
		}
		t[k] = arr
		if src, ok := sources[joinPath(childPath, strconv.Itoa(maxIndex))]; ok {
			sources[childPath] = src
		}
	}
	return nil
}

// isArrayLike reports whether t's keys are exactly "0".."n-1" with no
// gaps, and if so returns n-1.
func isArrayLike(t tree) (bool, int) {
	if len(t) == 0 {
		return false, 0
	}
	for i := 0; i < len(t); i++ {
		if _, ok := t[strconv.Itoa(i)]; !ok {
			return false, 0
		}
	}
	return true, len(t) - 1
}
