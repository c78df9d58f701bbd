package access

// Action is a named permission dimension evaluated independently per document.
type Action string

const (
	ActionRead         Action = "read"
	ActionEdit         Action = "edit"
	ActionReadComments Action = "read_comments"
	ActionPostComments Action = "post_comments"
	ActionViewHistory  Action = "view_history"
	ActionManage       Action = "manage"
)

// Actions lists every action in a stable order. Iteration over settings
// always goes through this slice so results are deterministic.
var Actions = []Action{
	ActionRead,
	ActionEdit,
	ActionReadComments,
	ActionPostComments,
	ActionViewHistory,
	ActionManage,
}

// ParseAction returns the Action for a raw string and whether it is known.
func ParseAction(s string) (Action, bool) {
	a := Action(s)
	return a, a.Valid()
}

// Valid reports whether the action is one of the known dimensions.
func (a Action) Valid() bool {
	switch a {
	case ActionRead, ActionEdit, ActionReadComments, ActionPostComments, ActionViewHistory, ActionManage:
		return true
	}
	return false
}
