package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlpp-io/sqlpp/schema"
)

func table(t *testing.T, name string, cols ...string) *schema.Table {
	t.Helper()
	tbl := schema.NewTable("shop", name)
	for _, c := range cols {
		require.NoError(t, tbl.AddField(&schema.Field{Col: c, Type: schema.TypeNumber, NativeType: "int"}))
	}
	return tbl
}

func TestCompareAddRemoveTables(t *testing.T) {
	prev := schema.NewSchema("mysql")
	next := schema.NewSchema("mysql")

	old := table(t, "legacy", "id")
	prev.Tables[old.Key()] = old
	fresh := table(t, "users", "id")
	next.Tables[fresh.Key()] = fresh

	d, err := NewDiffer().Compare(prev, next)
	require.NoError(t, err)
	require.Len(t, d.Tables.Add, 1)
	require.Len(t, d.Tables.Remove, 1)
	assert.Equal(t, "shop.users", d.Tables.Add[0].Key())
	assert.Equal(t, "shop.legacy", d.Tables.Remove[0].Key())
	assert.False(t, d.Empty())
}

func TestCompareIdenticalIsEmpty(t *testing.T) {
	prev := schema.NewSchema("mysql")
	next := schema.NewSchema("mysql")
	a := table(t, "users", "id", "name")
	b := table(t, "users", "id", "name")
	prev.Tables[a.Key()] = a
	next.Tables[b.Key()] = b

	d, err := NewDiffer().Compare(prev, next)
	require.NoError(t, err)
	assert.True(t, d.Empty())
}

func TestCompareFields(t *testing.T) {
	prev := schema.NewSchema("mysql")
	next := schema.NewSchema("mysql")

	a := table(t, "users", "id", "old_col", "kept")
	b := table(t, "users", "id", "kept", "new_col")
	b.Field("kept").NotNull = true
	prev.Tables[a.Key()] = a
	next.Tables[b.Key()] = b

	d, err := NewDiffer().Compare(prev, next)
	require.NoError(t, err)
	require.Len(t, d.Tables.Update, 1)
	td := d.Tables.Update[0]
	require.Len(t, td.Fields.Add, 1)
	assert.Equal(t, "new_col", td.Fields.Add[0].Col)
	require.Len(t, td.Fields.Remove, 1)
	assert.Equal(t, "old_col", td.Fields.Remove[0].Col)
	require.Len(t, td.Fields.Update, 1)
	assert.Equal(t, "kept", td.Fields.Update[0].Next.Col)
}

func TestComparePKAndConstraints(t *testing.T) {
	prev := schema.NewSchema("mysql")
	next := schema.NewSchema("mysql")

	a := table(t, "users", "id", "email")
	a.PK = []string{"id"}
	a.UKs["uk_email"] = &schema.UniqueKey{Name: "uk_email", Cols: []string{"email"}}

	b := table(t, "users", "id", "email")
	b.PK = []string{"email"}
	b.UKs["uk_email"] = &schema.UniqueKey{Name: "uk_email", Cols: []string{"email", "id"}}

	prev.Tables[a.Key()] = a
	next.Tables[b.Key()] = b

	d, err := NewDiffer().Compare(prev, next)
	require.NoError(t, err)
	require.Len(t, d.Tables.Update, 1)
	td := d.Tables.Update[0]
	assert.True(t, td.PKDrop)
	assert.True(t, td.PKAdd)
	// A changed unique key is dropped and recreated.
	require.Len(t, td.UKRemove, 1)
	require.Len(t, td.UKAdd, 1)
	assert.Equal(t, []string{"email", "id"}, td.UKAdd[0].Cols)
}

func TestCompareProcs(t *testing.T) {
	prev := schema.NewSchema("mysql")
	next := schema.NewSchema("mysql")

	prev.Procs["gone"] = &schema.Procedure{Name: "gone", Body: "begin end"}
	prev.Procs["changed"] = &schema.Procedure{Name: "changed", Body: "begin end"}
	next.Procs["changed"] = &schema.Procedure{Name: "changed", Body: "begin select 1; end"}
	next.Procs["fresh"] = &schema.Procedure{Name: "fresh", Body: "begin end"}

	d, err := NewDiffer().Compare(prev, next)
	require.NoError(t, err)
	names := func(ps []*schema.Procedure) []string {
		var out []string
		for _, p := range ps {
			out = append(out, p.Name)
		}
		return out
	}
	assert.ElementsMatch(t, []string{"changed", "fresh"}, names(d.Procs.Add))
	assert.ElementsMatch(t, []string{"changed", "gone"}, names(d.Procs.Remove))
}
