package access

import (
	"fmt"
	"strings"
)

// Filter is a composable visibility predicate for listing queries. When All
// is set the base query runs unrestricted; otherwise Clause is a
// parenthesized SQL fragment over the joined employees alias, safe to append
// with AND and further conditions. Placeholders are numbered from
// argOffset+1 so the fragment composes without touching the base query's
// own arguments.
type Filter struct {
	All    bool
	Clause string
	Args   []any
}

// VisibilityFilter reproduces Decide's view semantics as a relational
// predicate: own records, plus the one- or two-hop supervision disjuncts
// the actor's manager role grants.
func VisibilityFilter(actor Actor, alias string, argOffset int) Filter {
	if actor.Unrestricted() {
		return Filter{All: true}
	}

	var disjuncts []string
	var args []any

	next := func() int { return argOffset + len(args) + 1 }

	disjuncts = append(disjuncts, fmt.Sprintf("%s.user_id = $%d", alias, next()))
	args = append(args, actor.UserID)

	if actor.EmployeeID != "" {
		switch {
		case actor.HasRole(RoleManagerN1):
			pos := next()
			disjuncts = append(disjuncts,
				fmt.Sprintf("%s.supervisor_id = $%d", alias, pos),
				fmt.Sprintf("%s.supervisor_id IN (SELECT id FROM employees WHERE supervisor_id = $%d AND id <> $%d AND deleted_at IS NULL)", alias, pos+1, pos+2))
			args = append(args, actor.EmployeeID, actor.EmployeeID, actor.EmployeeID)
		case actor.HasRole(RoleManagerN2):
			disjuncts = append(disjuncts, fmt.Sprintf("%s.supervisor_id = $%d", alias, next()))
			args = append(args, actor.EmployeeID)
		}
	}

	return Filter{
		Clause: "(" + strings.Join(disjuncts, " OR ") + ")",
		Args:   args,
	}
}

// Apply appends the filter to a base query that already has a WHERE clause,
// returning the extended query and argument list. The base inputs are not
// mutated.
func (f Filter) Apply(baseQuery string, baseArgs []any) (string, []any) {
	if f.All {
		return baseQuery, baseArgs
	}
	query := baseQuery + " AND " + f.Clause
	args := make([]any, 0, len(baseArgs)+len(f.Args))
	args = append(args, baseArgs...)
	args = append(args, f.Args...)
	return query, args
}
