package enums

import "fmt"

// ServiceItemType discriminates the service offerings that can sit in the cart drawer.
type ServiceItemType string

const (
	// ServiceItemTypePackage is a fixed-scope, one-time offering; repeat adds stack quantity.
	ServiceItemTypePackage ServiceItemType = "package"
	// ServiceItemTypePlan is a recurring subscription; at most one per cart.
	ServiceItemTypePlan ServiceItemType = "plan"
)

var validServiceItemTypes = []ServiceItemType{
	ServiceItemTypePackage,
	ServiceItemTypePlan,
}

// String implements fmt.Stringer.
func (s ServiceItemType) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ServiceItemType.
func (s ServiceItemType) IsValid() bool {
	for _, candidate := range validServiceItemTypes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseServiceItemType converts raw input into a ServiceItemType.
func ParseServiceItemType(value string) (ServiceItemType, error) {
	for _, candidate := range validServiceItemTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid service item type %q", value)
}
