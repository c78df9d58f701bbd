package access

import "testing"

func levelKinds(opts []Option) []Kind {
	kinds := make([]Kind, len(opts))
	for i, o := range opts {
		kinds[i] = o.Level.Kind
	}
	return kinds
}

func defaultOf(t *testing.T, opts []Option) Level {
	t.Helper()
	var def *Level
	for i := range opts {
		if opts[i].Default {
			if def != nil {
				t.Fatalf("multiple default options: %v and %v", def.Kind, opts[i].Level.Kind)
			}
			def = &opts[i].Level
		}
	}
	if def == nil {
		t.Fatal("no default option")
	}
	return *def
}

func hasKind(opts []Option, k Kind) bool {
	for _, o := range opts {
		if o.Level.Kind == k {
			return true
		}
	}
	return false
}

func TestLevelsForBaseActions(t *testing.T) {
	r := NewRegistry(false)
	nobody := Anonymous()

	t.Run("read offers and defaults to anyone", func(t *testing.T) {
		opts := r.LevelsFor(ActionRead, nil, nobody)
		if !hasKind(opts, KindAnyone) {
			t.Fatalf("read options missing anyone: %v", levelKinds(opts))
		}
		if def := defaultOf(t, opts); def.Kind != KindAnyone {
			t.Errorf("read default = %v, want anyone", def.Kind)
		}
	})

	t.Run("edit never offers anyone, defaults to loggedin", func(t *testing.T) {
		opts := r.LevelsFor(ActionEdit, nil, nobody)
		if hasKind(opts, KindAnyone) {
			t.Errorf("edit options include anyone: %v", levelKinds(opts))
		}
		if def := defaultOf(t, opts); def.Kind != KindLoggedIn {
			t.Errorf("edit default = %v, want loggedin", def.Kind)
		}
	})

	t.Run("manage never offers anyone, defaults to creator", func(t *testing.T) {
		opts := r.LevelsFor(ActionManage, nil, nobody)
		if hasKind(opts, KindAnyone) {
			t.Errorf("manage options include anyone: %v", levelKinds(opts))
		}
		if def := defaultOf(t, opts); def.Kind != KindCreator {
			t.Errorf("manage default = %v, want creator", def.Kind)
		}
	})

	t.Run("custom only offered when enabled", func(t *testing.T) {
		if hasKind(r.LevelsFor(ActionRead, nil, nobody), KindCustom) {
			t.Error("custom offered while disabled")
		}
		withCustom := NewRegistry(true)
		if !hasKind(withCustom.LevelsFor(ActionRead, nil, nobody), KindCustom) {
			t.Error("custom not offered while enabled")
		}
	})
}

func TestLevelsForGroupOptions(t *testing.T) {
	r := NewRegistry(false)
	group := &Group{ID: "g1", Public: true}
	member := Viewer{ID: "u1", Authenticated: true, Groups: GroupRelations{"g1": GroupRoleMember}}
	mod := Viewer{ID: "u2", Authenticated: true, Groups: GroupRelations{"g1": GroupRoleModerator}}
	outsider := Viewer{ID: "u3", Authenticated: true, Groups: GroupRelations{}}

	t.Run("member sees group-members option", func(t *testing.T) {
		opts := r.LevelsFor(ActionRead, group, member)
		if !hasKind(opts, KindGroupMembers) {
			t.Fatalf("member missing group-members option: %v", levelKinds(opts))
		}
		if hasKind(opts, KindAdminsMods) {
			t.Error("plain member offered admins-mods")
		}
	})

	t.Run("moderator additionally sees admins-mods", func(t *testing.T) {
		opts := r.LevelsFor(ActionRead, group, mod)
		if !hasKind(opts, KindAdminsMods) {
			t.Fatalf("moderator missing admins-mods option: %v", levelKinds(opts))
		}
	})

	t.Run("outsider sees no group options", func(t *testing.T) {
		opts := r.LevelsFor(ActionRead, group, outsider)
		if hasKind(opts, KindGroupMembers) || hasKind(opts, KindAdminsMods) {
			t.Errorf("outsider offered group options: %v", levelKinds(opts))
		}
	})

	t.Run("edit defaults to group-members even for public group", func(t *testing.T) {
		def := defaultOf(t, r.LevelsFor(ActionEdit, group, member))
		if def.Kind != KindGroupMembers || def.GroupID != "g1" {
			t.Errorf("edit default = %+v, want group-members(g1)", def)
		}
	})

	t.Run("read keeps anyone default for public group", func(t *testing.T) {
		def := defaultOf(t, r.LevelsFor(ActionRead, group, member))
		if def.Kind != KindAnyone {
			t.Errorf("read default = %v, want anyone", def.Kind)
		}
	})

	t.Run("read defaults to group-members for non-public group", func(t *testing.T) {
		private := &Group{ID: "g1", Public: false}
		def := defaultOf(t, r.LevelsFor(ActionRead, private, member))
		if def.Kind != KindGroupMembers {
			t.Errorf("read default = %v, want group-members", def.Kind)
		}
	})

	t.Run("unknown action gets base list without group options", func(t *testing.T) {
		opts := r.LevelsFor(Action("frobnicate"), group, member)
		if hasKind(opts, KindGroupMembers) || hasKind(opts, KindAdminsMods) {
			t.Errorf("unknown action offered group options: %v", levelKinds(opts))
		}
	})
}
