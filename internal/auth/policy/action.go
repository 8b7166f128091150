package policy

import (
	"fmt"
	"strings"
)

// Action names a privileged operation as verb_entity.
type Action string

const (
	GetAllClients   Action = "get_all_clients"
	CreateClient    Action = "create_client"
	UpdateClient    Action = "update_client"
	DeleteClient    Action = "delete_client"
	GetAllContracts Action = "get_all_contracts"
	CreateContract  Action = "create_contract"
	UpdateContract  Action = "update_contract"
	DeleteContract  Action = "delete_contract"
	GetAllUsers     Action = "get_all_users"
	CreateUser      Action = "create_user"
	UpdateUser      Action = "update_user"
	DeleteUser      Action = "delete_user"
	GetAllEvents    Action = "get_all_events"
	CreateEvent     Action = "create_event"
	UpdateEvent     Action = "update_event"
	DeleteEvent     Action = "delete_event"
)

var allActions = []Action{
	GetAllClients, CreateClient, UpdateClient, DeleteClient,
	GetAllContracts, CreateContract, UpdateContract, DeleteContract,
	GetAllUsers, CreateUser, UpdateUser, DeleteUser,
	GetAllEvents, CreateEvent, UpdateEvent, DeleteEvent,
}

// AllActions returns the closed action set in display order.
func AllActions() []Action {
	out := make([]Action, len(allActions))
	copy(out, allActions)
	return out
}

// ParseAction accepts a known action name, case-insensitively.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	if !a.Known() {
		return "", fmt.Errorf("policy: unknown action %q", s)
	}
	return a, nil
}

// Known reports whether a belongs to the closed action set.
func (a Action) Known() bool {
	for _, known := range allActions {
		if a == known {
			return true
		}
	}
	return false
}

func (a Action) String() string { return string(a) }
