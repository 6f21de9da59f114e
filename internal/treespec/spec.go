// Package treespec builds the metadata documents stored alongside tree
// photos in content-addressed storage. The document shape follows the
// attestation contract's conventions: coordinates are scaled by 1e6 and
// stored as integers, photos are referenced both by gateway URL and by raw
// content hash, and updates append to the prior document's history instead
// of replacing it.
package treespec

import (
	"github.com/verdantlab/ranger/internal/models"
)

const coordinateScale = 1e6

// ScaledCoordinate is a geocoordinate in the on-chain integer convention.
type ScaledCoordinate struct {
	Latitude  int64 `json:"latitude"`
	Longitude int64 `json:"longitude"`
}

// Scale converts a device coordinate to the on-chain convention.
func Scale(c models.Geocoordinate) ScaledCoordinate {
	return ScaledCoordinate{
		Latitude:  int64(c.Latitude * coordinateScale),
		Longitude: int64(c.Longitude * coordinateScale),
	}
}

// Update is one entry in a tree's update history.
type Update struct {
	Image     string            `json:"image"`
	ImageHash string            `json:"image_hash"`
	CreatedAt int64             `json:"created_at"`
	Location  *ScaledCoordinate `json:"location,omitempty"`
}

// Spec is the metadata document for one tree.
type Spec struct {
	Name        string            `json:"name,omitempty"`
	Description string            `json:"description,omitempty"`
	Image       string            `json:"image"`
	ImageHash   string            `json:"image_hash"`
	Birthday    int64             `json:"birthday,omitempty"`
	Location    *ScaledCoordinate `json:"location,omitempty"`
	Nursery     bool              `json:"nursery,omitempty"`

	// TreeID is set for assigned plantings, referencing the pre-assigned
	// tree's existing on-chain identifier.
	TreeID string `json:"tree_id,omitempty"`

	Updates []Update `json:"updates,omitempty"`
}

// CanRelocate reports whether an update to a tree with this prior spec may
// carry a new coordinate. Nursery records may be relocated when seedlings
// are planted out; individual trees keep their registered coordinate.
func CanRelocate(prior *Spec) bool {
	return prior != nil && prior.Nursery
}

// NewTree builds the document for a freshly planted tree.
func NewTree(gatewayURL, photoHash string, location *models.Geocoordinate, birthday int64, nursery bool) *Spec {
	s := &Spec{
		Image:     gatewayURL + "/" + photoHash,
		ImageHash: photoHash,
		Birthday:  birthday,
		Nursery:   nursery,
	}
	if location != nil {
		loc := Scale(*location)
		s.Location = &loc
	}
	return s
}

// AssignedTree builds the document for planting a pre-assigned tree.
func AssignedTree(gatewayURL, treeID, photoHash string, location *models.Geocoordinate, birthday int64) *Spec {
	s := NewTree(gatewayURL, photoHash, location, birthday, false)
	s.TreeID = treeID
	return s
}

// UpdatedTree builds the document for an update submission: the prior spec
// with the new photo appended to its history. A new coordinate is recorded
// only when the prior spec permits relocation; otherwise it is dropped
// silently, matching the contract's rule that located trees do not move.
func UpdatedTree(gatewayURL string, prior *Spec, photoHash string, location *models.Geocoordinate, createdAt int64) *Spec {
	next := *prior

	u := Update{
		Image:     gatewayURL + "/" + photoHash,
		ImageHash: photoHash,
		CreatedAt: createdAt,
	}
	if location != nil && CanRelocate(prior) {
		loc := Scale(*location)
		u.Location = &loc
		next.Location = &loc
	}

	next.Updates = append(append([]Update(nil), prior.Updates...), u)
	return &next
}
