package enums

// Capability names one of a lab member's independent permission flags.
type Capability string

const (
	CapabilityEditLab   Capability = "edit_lab"
	CapabilityEditItems Capability = "edit_items"
	CapabilityEditUsers Capability = "edit_users"
)

func (c Capability) IsValid() bool {
	switch c {
	case CapabilityEditLab, CapabilityEditItems, CapabilityEditUsers:
		return true
	}
	return false
}
