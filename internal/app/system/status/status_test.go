package status

import "testing"

func TestValidRole(t *testing.T) {
	tests := []struct {
		rol  string
		want bool
	}{
		{RoleLeader, true},
		{RoleAdmin, true},
		{RoleMember, true},
		{"", false},
		{"leader", false},
		{"LIDER", false},
	}

	for _, tt := range tests {
		t.Run(tt.rol, func(t *testing.T) {
			if got := ValidRole(tt.rol); got != tt.want {
				t.Errorf("ValidRole(%q) = %v, want %v", tt.rol, got, tt.want)
			}
		})
	}
}

func TestInvitationCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
		want bool
	}{
		{"pending accepts", InvitationPending, InvitationAccepted, true},
		{"pending rejects", InvitationPending, InvitationRejected, true},
		{"pending archives", InvitationPending, InvitationArchived, true},
		{"archived accepts", InvitationArchived, InvitationAccepted, true},
		{"archived rejects", InvitationArchived, InvitationRejected, true},
		{"archived unarchives", InvitationArchived, InvitationPending, true},
		{"accepted is terminal", InvitationAccepted, InvitationRejected, false},
		{"rejected is terminal", InvitationRejected, InvitationAccepted, false},
		{"accepted cannot archive", InvitationAccepted, InvitationArchived, false},
		{"rejected cannot reopen", InvitationRejected, InvitationPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InvitationCanTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("InvitationCanTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestGroupCanTransition(t *testing.T) {
	tests := []struct {
		from string
		to   string
		want bool
	}{
		{GroupActive, GroupArchived, true},
		{GroupArchived, GroupActive, true},
		{GroupActive, GroupDeleted, true},
		{GroupArchived, GroupDeleted, true},
		{GroupDeleted, GroupActive, false},
		{GroupDeleted, GroupArchived, false},
	}

	for _, tt := range tests {
		if got := GroupCanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("GroupCanTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestTaskCanTransition(t *testing.T) {
	tests := []struct {
		from string
		to   string
		want bool
	}{
		{TaskPending, TaskCompleted, true},
		{TaskPending, TaskOverdue, true},
		{TaskCompleted, TaskPending, true},
		{TaskOverdue, TaskCompleted, true},
		{TaskDeleted, TaskPending, false},
		{TaskCompleted, TaskOverdue, false},
	}

	for _, tt := range tests {
		if got := TaskCanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("TaskCanTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestGone(t *testing.T) {
	if !GroupGone(GroupDeleted) || GroupGone(GroupArchived) || GroupGone(GroupActive) {
		t.Error("GroupGone should be true only for eliminado")
	}
	if !TaskGone(TaskDeleted) || TaskGone(TaskOverdue) {
		t.Error("TaskGone should be true only for eliminada")
	}
	if !AreaGone(AreaDeleted) || AreaGone(AreaActive) {
		t.Error("AreaGone should be true only for eliminada")
	}
}
