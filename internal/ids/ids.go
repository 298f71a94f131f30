package ids

import "github.com/segmentio/ksuid"

// New returns a k-sortable unique identifier string. KSUIDs embed a
// timestamp, so primary keys sort roughly by creation time.
func New() string {
	return ksuid.New().String()
}
