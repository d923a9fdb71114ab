package metadata

import "strconv"

// NextPackageID allocates the next sub-package identifier for a partial
// pick. Non-numeric ids in the candidate set are ignored; the result is
// max(numeric)+1, or 1 when no numeric id exists yet. Callers must pass
// the ids already used for the picklist at hand, otherwise packages from
// unrelated picklists would collide.
func NextPackageID(existing []string) string {
	max := 0
	for _, id := range existing {
		n, err := strconv.Atoi(id)
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return strconv.Itoa(max + 1)
}
