package enums

import "fmt"

// LogAction names a mutation recorded in the activity log.
type LogAction string

const (
	LogActionLogin          LogAction = "login"
	LogActionCreateProduct  LogAction = "create_product"
	LogActionUpdateProduct  LogAction = "update_product"
	LogActionDeleteProduct  LogAction = "delete_product"
	LogActionCreateTicket   LogAction = "create_ticket"
	LogActionUpdateTicket   LogAction = "update_ticket"
	LogActionDeleteTicket   LogAction = "delete_ticket"
	LogActionCreateUser     LogAction = "create_user"
	LogActionUpdateUsername LogAction = "update_username"
	LogActionUpdatePassword LogAction = "update_password"
	LogActionDeleteUser     LogAction = "delete_user"
)

var validLogActions = []LogAction{
	LogActionLogin,
	LogActionCreateProduct,
	LogActionUpdateProduct,
	LogActionDeleteProduct,
	LogActionCreateTicket,
	LogActionUpdateTicket,
	LogActionDeleteTicket,
	LogActionCreateUser,
	LogActionUpdateUsername,
	LogActionUpdatePassword,
	LogActionDeleteUser,
}

// String implements fmt.Stringer.
func (a LogAction) String() string {
	return string(a)
}

// IsValid reports whether the value is a known LogAction.
func (a LogAction) IsValid() bool {
	for _, candidate := range validLogActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseLogAction converts raw input into a LogAction.
func ParseLogAction(value string) (LogAction, error) {
	for _, candidate := range validLogActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid log action %q", value)
}

// EntityType identifies what kind of record an activity log entry refers to.
type EntityType string

const (
	EntityTypeUser    EntityType = "user"
	EntityTypeProduct EntityType = "product"
	EntityTypeTicket  EntityType = "ticket"
	EntityTypeSystem  EntityType = "system"
)

var validEntityTypes = []EntityType{
	EntityTypeUser,
	EntityTypeProduct,
	EntityTypeTicket,
	EntityTypeSystem,
}

// String implements fmt.Stringer.
func (e EntityType) String() string {
	return string(e)
}

// IsValid reports whether the value is a known EntityType.
func (e EntityType) IsValid() bool {
	for _, candidate := range validEntityTypes {
		if candidate == e {
			return true
		}
	}
	return false
}
