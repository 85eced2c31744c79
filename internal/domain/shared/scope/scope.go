// Package scope carries the caller's ownership boundary into data access.
package scope

// Owner restricts repository calls to the rows of a single owner. The zero value is unscoped
// and is used by administrative callers and internal jobs.
type Owner struct {
	id     int64
	scoped bool
}

// Any returns an unscoped Owner.
func Any() Owner {
	return Owner{}
}

// For scopes data access to the given owner id.
func For(ownerID int64) Owner {
	return Owner{id: ownerID, scoped: true}
}

// FromOptional returns For(*ownerID) when ownerID is set, Any otherwise.
func FromOptional(ownerID *int64) Owner {
	if ownerID == nil {
		return Any()
	}
	return For(*ownerID)
}

func (o Owner) Scoped() bool { return o.scoped }

func (o Owner) ID() int64 { return o.id }

// Owns reports whether a row owned by ownerID may be read or written.
func (o Owner) Owns(ownerID int64) bool {
	return !o.scoped || o.id == ownerID
}

// CanRead also admits shared rows (owner id 0), which every owner may read but only unscoped
// callers may modify.
func (o Owner) CanRead(ownerID int64) bool {
	return ownerID == 0 || o.Owns(ownerID)
}
