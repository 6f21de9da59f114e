// Package models defines the submission domain types shared by the queue,
// upload and chain layers.
package models

// Geocoordinate is a WGS84 point captured by the device.
type Geocoordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Journey is the in-progress state of a single tree submission. Fields are
// filled step by step by the UI flow and the whole value is discarded on
// finalization or cancel.
//
// At most one of TreeIDToPlant / TreeIDToUpdate is set; the tracker enforces
// this when merging patches.
type Journey struct {
	// Photo is a local image reference (file path). Empty until captured.
	Photo string `json:"photo,omitempty"`

	// PhotoLocation is where the photo was taken, if geotagging succeeded.
	PhotoLocation *Geocoordinate `json:"photo_location,omitempty"`

	// Location is the coordinate chosen for the tree record.
	Location *Geocoordinate `json:"location,omitempty"`

	// TreeIDToPlant is set when this journey fulfills a pre-assigned tree.
	TreeIDToPlant string `json:"tree_id_to_plant,omitempty"`

	// TreeIDToUpdate is set when this journey updates an existing tree.
	TreeIDToUpdate string `json:"tree_id_to_update,omitempty"`

	// IsSingle is tri-state: true for a single tree, false for a nursery
	// batch, nil while the user has not chosen yet.
	IsSingle *bool `json:"is_single,omitempty"`

	// NurseryCount is the batch size when IsSingle is false.
	NurseryCount int `json:"nursery_count,omitempty"`
}

// IsUpdate reports whether the journey targets an existing tree.
func (j Journey) IsUpdate() bool { return j.TreeIDToUpdate != "" }

// IsAssigned reports whether the journey fulfills a pre-assigned tree.
func (j Journey) IsAssigned() bool { return j.TreeIDToPlant != "" }
