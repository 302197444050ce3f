package enums

import "fmt"

// ProductStatus tracks where a piece of rental equipment is.
type ProductStatus string

const (
	ProductStatusAvailable   ProductStatus = "available"
	ProductStatusRented      ProductStatus = "rented"
	ProductStatusMaintenance ProductStatus = "maintenance"
	ProductStatusRetired     ProductStatus = "retired"
)

var validProductStatuses = []ProductStatus{
	ProductStatusAvailable,
	ProductStatusRented,
	ProductStatusMaintenance,
	ProductStatusRetired,
}

func (s ProductStatus) String() string {
	return string(s)
}

func (s ProductStatus) IsValid() bool {
	for _, candidate := range validProductStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

func ParseProductStatus(value string) (ProductStatus, error) {
	for _, candidate := range validProductStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product status %q", value)
}
