package repokit

import (
	"testing"

	"marketwatch/internal/platform/store"
	"marketwatch/internal/platform/testkit"
)

type fakeQ struct{ store.RowQuerier }

type repo struct{ q Queryer }

func TestMustBind(t *testing.T) {
	t.Parallel()
	b := BindFunc[*repo](func(q Queryer) *repo { return &repo{q: q} })
	r := MustBind[*repo](b, fakeQ{})
	if r == nil || r.q == nil {
		t.Fatal("repo not bound to the queryer")
	}
	testkit.MustPanic(t, func() { MustBind[*repo](b, nil) })
}
