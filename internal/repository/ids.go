package repository

import "github.com/google/uuid"

// isUUID reports whether id can be compared against a UUID column. Ids come
// from URL paths, so anything else matches no row.
func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// onlyUUIDs drops ids that cannot match a UUID column.
func onlyUUIDs(ids []string) []string {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if isUUID(id) {
			valid = append(valid, id)
		}
	}
	return valid
}
