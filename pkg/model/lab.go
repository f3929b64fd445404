package model

// Lab is a bookable shared resource. Inactive labs keep their existing
// reservations but reject new ones.
type Lab struct {
	ID             string `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name           string `json:"name" bson:"name" validate:"required,min=2,max=120"`
	Capacity       int    `json:"capacity" bson:"capacity" validate:"min=0,max=1000"`
	EquipmentCount int    `json:"equipment_count" bson:"equipment_count" validate:"min=0,max=1000"`
	Active         bool   `json:"active" bson:"active"`
}

// LabUpdate carries optional field changes for a lab. Activation state is
// toggled through a dedicated operation, not through update.
type LabUpdate struct {
	Name           string `json:"name,omitempty" validate:"omitempty,min=2,max=120"`
	Capacity       *int   `json:"capacity,omitempty" validate:"omitempty,min=0,max=1000"`
	EquipmentCount *int   `json:"equipment_count,omitempty" validate:"omitempty,min=0,max=1000"`
}
