package agent

import (
	"fmt"
	"strings"

	"backoffice/internal/pkg/errs"
)

// Role is the operator function of an agent.
type Role int

const (
	UnknownRole Role = iota
	FollowUp
	CallCenter
	Coordinator
)

func getRoleStrings() map[Role]string {
	return map[Role]string{
		UnknownRole: "unknown",
		FollowUp:    "follow_up",
		CallCenter:  "call_center",
		Coordinator: "coordinator",
	}
}

// ParseRole converts the persisted / wire form of a role.
func ParseRole(s string) (Role, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for role, str := range getRoleStrings() {
		if role != UnknownRole && str == needle {
			return role, nil
		}
	}
	return UnknownRole, errs.NewValueIsInvalidErrorWithCause("role", fmt.Errorf("%q is not a known role", s))
}

func (r Role) String() string {
	if str, ok := getRoleStrings()[r]; ok {
		return str
	}
	return getRoleStrings()[UnknownRole]
}

func (r Role) Validate() error {
	if r == UnknownRole {
		return errs.NewValueIsInvalidErrorWithCause("role", fmt.Errorf("%d is not a valid role", r))
	}
	if _, ok := getRoleStrings()[r]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("role", fmt.Errorf("%d is not a valid role", r))
	}
	return nil
}
