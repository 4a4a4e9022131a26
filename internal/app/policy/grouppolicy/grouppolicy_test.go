package grouppolicy_test

import (
	"testing"

	"github.com/astren-app/astren/internal/app/policy/grouppolicy"
	membershipstore "github.com/astren-app/astren/internal/app/store/memberships"
	"github.com/astren-app/astren/internal/app/system/status"
	"github.com/astren-app/astren/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestPolicyRoles(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ms := membershipstore.New(db)
	ctx := testutil.TestContext(t)

	grupoID := primitive.NewObjectID()
	leader := primitive.NewObjectID()
	admin := primitive.NewObjectID()
	member := primitive.NewObjectID()
	stranger := primitive.NewObjectID()

	for _, row := range []struct {
		user primitive.ObjectID
		rol  string
	}{
		{leader, status.RoleLeader},
		{admin, status.RoleAdmin},
		{member, status.RoleMember},
	} {
		if err := ms.Add(ctx, grupoID, row.user, row.rol); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	cases := []struct {
		name       string
		user       primitive.ObjectID
		member     bool
		manage     bool
		createTask bool
	}{
		{"leader", leader, true, true, true},
		{"admin", admin, true, false, true},
		{"member", member, true, false, false},
		{"stranger", stranger, false, false, false},
	}
	for _, tc := range cases {
		got, err := grouppolicy.IsMember(ctx, ms, grupoID, tc.user)
		if err != nil {
			t.Fatalf("%s: IsMember failed: %v", tc.name, err)
		}
		if got != tc.member {
			t.Errorf("%s: IsMember got %v, want %v", tc.name, got, tc.member)
		}

		got, err = grouppolicy.CanManageGroup(ctx, ms, grupoID, tc.user)
		if err != nil {
			t.Fatalf("%s: CanManageGroup failed: %v", tc.name, err)
		}
		if got != tc.manage {
			t.Errorf("%s: CanManageGroup got %v, want %v", tc.name, got, tc.manage)
		}

		got, err = grouppolicy.CanCreateTasks(ctx, ms, grupoID, tc.user)
		if err != nil {
			t.Fatalf("%s: CanCreateTasks failed: %v", tc.name, err)
		}
		if got != tc.createTask {
			t.Errorf("%s: CanCreateTasks got %v, want %v", tc.name, got, tc.createTask)
		}
	}
}
