package machines

import "time"

// Machine is a vending machine directory entry. The directory is owned
// by the fleet-management subsystem; this feature only reads it to give
// mismatches a human-readable machine number.
type Machine struct {
	ID            string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	MachineNumber string    `gorm:"type:varchar(64);uniqueIndex" json:"machine_number"`
	Name          string    `json:"name"`
	Location      string    `json:"location"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName overrides the GORM default.
func (Machine) TableName() string {
	return "machines"
}
