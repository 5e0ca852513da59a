package marketing

import (
	"github.com/crm/backend/internal/domain/partner"
	"github.com/google/uuid"
)

// AudienceDiff is the membership change between two audiences
type AudienceDiff struct {
	Added   []uuid.UUID
	Removed []uuid.UUID
}

// IsEmpty reports whether membership is unchanged
func (d AudienceDiff) IsEmpty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}

// DiffAudience computes next − previous (Added) and previous − next (Removed).
// Only membership matters; positions and duplicates are ignored.
func DiffAudience(previous, next []uuid.UUID) AudienceDiff {
	prevSet := toSet(previous)
	nextSet := toSet(next)

	var diff AudienceDiff
	for _, id := range NormalizeAudience(next) {
		if _, ok := prevSet[id]; !ok {
			diff.Added = append(diff.Added, id)
		}
	}
	for _, id := range NormalizeAudience(previous) {
		if _, ok := nextSet[id]; !ok {
			diff.Removed = append(diff.Removed, id)
		}
	}
	return diff
}

func toSet(ids []uuid.UUID) map[uuid.UUID]struct{} {
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// PatchKind says how an EngagementPatch changes a customer
type PatchKind string

const (
	PatchAppend PatchKind = "append"
	PatchRemove PatchKind = "remove"
)

// EngagementPatch is a pending change to one customer's engagement history
type EngagementPatch struct {
	CustomerID uuid.UUID
	Kind       PatchKind
	Entry      partner.CampaignEngagement
}

// Apply performs the patch on the customer. It returns false when there was
// nothing to change (removing an entry the customer does not have).
func (p EngagementPatch) Apply(c *partner.Customer) bool {
	switch p.Kind {
	case PatchAppend:
		c.AddEngagement(p.Entry)
		return true
	case PatchRemove:
		return c.RemoveEngagement(p.Entry.CampaignID, p.Entry.CampaignName)
	}
	return false
}

// PlanAudienceSync turns an audience change into per-customer patches: one
// removal for every customer that left and one append for every customer that
// joined. Customers present in both audiences get no patch.
func PlanAudienceSync(previous, next []uuid.UUID, snapshot partner.CampaignEngagement) []EngagementPatch {
	diff := DiffAudience(previous, next)
	patches := make([]EngagementPatch, 0, len(diff.Added)+len(diff.Removed))
	for _, id := range diff.Removed {
		patches = append(patches, EngagementPatch{CustomerID: id, Kind: PatchRemove, Entry: snapshot})
	}
	for _, id := range diff.Added {
		patches = append(patches, EngagementPatch{CustomerID: id, Kind: PatchAppend, Entry: snapshot})
	}
	return patches
}

// CustomerIDs returns the distinct customers touched by the patches
func CustomerIDs(patches []EngagementPatch) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(patches))
	for _, p := range patches {
		ids = append(ids, p.CustomerID)
	}
	return NormalizeAudience(ids)
}
