package checkpoint

import (
	"strings"
)

// DefaultNamespace prefixes every checkpoint key.
const DefaultNamespace = "posts-sync"

// Key identifies a stored checkpoint.
type Key struct {
	// Namespace separates deployments sharing one Redis; DefaultNamespace if empty.
	Namespace string

	// JobID is the batch job id.
	JobID string
}

// String generates a deterministic key string.
// Format: namespace:checkpoint:job
//
// Example:
//
//	posts-sync:checkpoint:1b4e28ba-2fa1-11d2-883f-0016d3cca427
func (k Key) String() string {
	ns := strings.Trim(k.Namespace, ":")
	if ns == "" {
		ns = DefaultNamespace
	}
	return strings.Join([]string{ns, "checkpoint", strings.TrimSpace(k.JobID)}, ":")
}
