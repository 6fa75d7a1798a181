package provider

import "github.com/halfdot/taskstore/storage"

// notifications collects the change-notification URIs of one transaction,
// deduplicated, in first-seen order.
type notifications struct {
	uris []storage.ResourceURI
	seen map[storage.ResourceURI]struct{}
}

func newNotifications() *notifications {
	return &notifications{seen: make(map[storage.ResourceURI]struct{})}
}

func (n *notifications) add(uris ...storage.ResourceURI) {
	for _, u := range uris {
		if _, ok := n.seen[u]; ok {
			continue
		}
		n.seen[u] = struct{}{}
		n.uris = append(n.uris, u)
	}
}

func (n *notifications) list() []storage.ResourceURI {
	out := make([]storage.ResourceURI, len(n.uris))
	copy(out, n.uris)
	return out
}
