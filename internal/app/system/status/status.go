// internal/app/system/status/status.go

// Package status centralizes every lifecycle value and role in the data
// model, with one allowed-transition table per entity. Queries and handlers
// must use these constants and predicates instead of comparing literals, so
// "is this row logically gone" is a single function rather than a scattered
// != "eliminada" filter.
package status

// Group lifecycle.
const (
	GroupActive   = "activo"
	GroupArchived = "archivado"
	GroupDeleted  = "eliminado"
)

// Area lifecycle.
const (
	AreaActive   = "activa"
	AreaArchived = "archivada"
	AreaDeleted  = "eliminada"
)

// Task lifecycle. TaskOverdue is derived from TaskPending plus a past due
// timestamp; it is also written back by the overdue sweep worker.
const (
	TaskPending   = "pendiente"
	TaskCompleted = "completada"
	TaskOverdue   = "vencida"
	TaskDeleted   = "eliminada"
)

// Invitation lifecycle.
const (
	InvitationPending  = "pendiente"
	InvitationAccepted = "aceptada"
	InvitationRejected = "rechazada"
	InvitationArchived = "archivada"
)

// Membership roles.
const (
	RoleLeader = "lider"
	RoleAdmin  = "administrador"
	RoleMember = "miembro"
)

// ValidRole reports whether rol is one of the membership roles.
func ValidRole(rol string) bool {
	switch rol {
	case RoleLeader, RoleAdmin, RoleMember:
		return true
	}
	return false
}

// groupTransitions allows archive/unarchive plus soft delete from any
// live state. Deleted is terminal.
var groupTransitions = map[string][]string{
	GroupActive:   {GroupArchived, GroupDeleted},
	GroupArchived: {GroupActive, GroupDeleted},
}

// areaTransitions mirrors the group table.
var areaTransitions = map[string][]string{
	AreaActive:   {AreaArchived, AreaDeleted},
	AreaArchived: {AreaActive, AreaDeleted},
}

// taskTransitions: pending tasks may complete, go overdue, or be deleted;
// completed and overdue tasks may be reopened or deleted.
var taskTransitions = map[string][]string{
	TaskPending:   {TaskCompleted, TaskOverdue, TaskDeleted},
	TaskCompleted: {TaskPending, TaskDeleted},
	TaskOverdue:   {TaskPending, TaskCompleted, TaskDeleted},
}

// invitationTransitions: accept and reject succeed from pendiente or
// archivada; archive toggles only with pendiente. Accepted and rejected are
// terminal (a fresh invite purges the row instead of transitioning it).
var invitationTransitions = map[string][]string{
	InvitationPending:  {InvitationAccepted, InvitationRejected, InvitationArchived},
	InvitationArchived: {InvitationAccepted, InvitationRejected, InvitationPending},
}

func allowed(table map[string][]string, from, to string) bool {
	for _, s := range table[from] {
		if s == to {
			return true
		}
	}
	return false
}

// GroupCanTransition reports whether a group may move from one estado to
// another.
func GroupCanTransition(from, to string) bool { return allowed(groupTransitions, from, to) }

// AreaCanTransition reports whether an area may move from one estado to
// another.
func AreaCanTransition(from, to string) bool { return allowed(areaTransitions, from, to) }

// TaskCanTransition reports whether a task may move from one estado to
// another.
func TaskCanTransition(from, to string) bool { return allowed(taskTransitions, from, to) }

// InvitationCanTransition reports whether an invitation may move from one
// estado to another.
func InvitationCanTransition(from, to string) bool {
	return allowed(invitationTransitions, from, to)
}

// GroupGone reports whether a group row is logically gone.
func GroupGone(estado string) bool { return estado == GroupDeleted }

// AreaGone reports whether an area row is logically gone.
func AreaGone(estado string) bool { return estado == AreaDeleted }

// TaskGone reports whether a task row is logically gone.
func TaskGone(estado string) bool { return estado == TaskDeleted }
