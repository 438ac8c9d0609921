package auth

import (
	"context"
	"fmt"
	"slices"
)

// Action is an operation subject to authorization.
type Action string

// Guarded actions.
const (
	ActionSubmitRun     Action = "submit_run"
	ActionDeleteRun     Action = "delete_run"
	ActionManageRoster  Action = "manage_roster"
	ActionManageRounds  Action = "manage_rounds"
	ActionRecordMoney   Action = "record_money"
	ActionOpenSession   Action = "open_session"
	ActionCloseSession  Action = "close_session"
	ActionDeleteSession Action = "delete_session"
	ActionCastVote      Action = "cast_vote"
	ActionViewTally     Action = "view_tally"
	ActionRevealVotes   Action = "reveal_votes"
	ActionResolveSeries Action = "resolve_series"
	ActionAudit         Action = "audit"
)

// Actions lists every guarded action.
func Actions() []Action {
	return []Action{
		ActionSubmitRun, ActionDeleteRun, ActionManageRoster, ActionManageRounds,
		ActionRecordMoney, ActionOpenSession, ActionCloseSession, ActionDeleteSession,
		ActionCastVote, ActionViewTally, ActionRevealVotes, ActionResolveSeries, ActionAudit,
	}
}

// Policy authorizes principals for actions.
type Policy interface {
	// Authorize returns nil when p may perform a, ErrUnauthenticated when p
	// is anonymous and ErrForbidden otherwise.
	Authorize(ctx context.Context, p Principal, a Action) error
}

// AllowAll permits everything. It is meant for local development without a
// token secret.
type AllowAll struct{}

// Authorize implements Policy.
func (AllowAll) Authorize(context.Context, Principal, Action) error { return nil }

// RolePolicy grants actions to roles.
type RolePolicy struct {
	grants map[Action][]Role
}

// DefaultGrants returns the stock action-to-role table.
func DefaultGrants() map[Action][]Role {
	staff := []Role{RoleAdmin, RoleOfficer}
	admin := []Role{RoleAdmin}
	return map[Action][]Role{
		ActionSubmitRun:     staff,
		ActionDeleteRun:     admin,
		ActionManageRoster:  admin,
		ActionManageRounds:  admin,
		ActionRecordMoney:   staff,
		ActionOpenSession:   admin,
		ActionCloseSession:  admin,
		ActionDeleteSession: admin,
		ActionCastVote:      {RoleAdmin, RoleOfficer, RolePlayer},
		ActionViewTally:     staff,
		ActionRevealVotes:   admin,
		ActionResolveSeries: staff,
		ActionAudit:         admin,
	}
}

// NewRolePolicy builds a policy from grants. Actions missing from grants
// keep their default roles.
func NewRolePolicy(grants map[Action][]Role) *RolePolicy {
	merged := DefaultGrants()
	for a, roles := range grants {
		merged[a] = slices.Clone(roles)
	}
	return &RolePolicy{grants: merged}
}

// ParseGrants converts configuration strings into grants.
func ParseGrants(raw map[string][]string) (map[Action][]Role, error) {
	known := Actions()
	out := make(map[Action][]Role, len(raw))
	for name, roleNames := range raw {
		a := Action(name)
		if !slices.Contains(known, a) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownAction, name)
		}
		roles := make([]Role, 0, len(roleNames))
		for _, rn := range roleNames {
			r, err := ParseRole(rn)
			if err != nil {
				return nil, fmt.Errorf("action %s: %w: %s", name, err, rn)
			}
			roles = append(roles, r)
		}
		out[a] = roles
	}
	return out, nil
}

// Authorize implements Policy.
func (p *RolePolicy) Authorize(_ context.Context, pr Principal, a Action) error {
	if pr.Anonymous() {
		return ErrUnauthenticated
	}
	if slices.Contains(p.grants[a], pr.Role) {
		return nil
	}
	return ErrForbidden
}
