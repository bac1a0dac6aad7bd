package sqlgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlpp-io/sqlpp/quote"
	"github.com/sqlpp-io/sqlpp/schema"
)

func gen(t *testing.T) *MySQLGenerator {
	t.Helper()
	g, err := New("mysql", quote.New("mysql"))
	require.NoError(t, err)
	return g.(*MySQLGenerator)
}

func TestColumnDef(t *testing.T) {
	g := gen(t)

	f := &schema.Field{Col: "id", Type: schema.TypeNumber, NativeType: "int",
		NotNull: true, AutoIncrement: true}
	assert.Equal(t, "id int not null auto_increment", g.ColumnDef(f, 0))

	f = &schema.Field{Col: "qty", Type: schema.TypeNumber, NativeType: "int",
		Unsigned: true, Default: "0"}
	assert.Equal(t, "qty int unsigned default '0'", g.ColumnDef(f, 0))

	f = &schema.Field{Col: "code", Type: schema.TypeString, NativeType: "char",
		Size: 2, Padded: true, NotNull: true, Comment: "ISO country"}
	assert.Equal(t, "code char(2) not null comment 'ISO country'", g.ColumnDef(f, 0))

	// Alignment pads the name.
	f = &schema.Field{Col: "id", Type: schema.TypeNumber, NativeType: "int"}
	assert.Equal(t, "id     int", g.ColumnDef(f, 6))
}

func TestColumnDefEnumAndDecimal(t *testing.T) {
	g := gen(t)

	f := &schema.Field{Col: "state", Type: schema.TypeEnum, NativeType: "enum",
		EnumValues: []string{"new", "paid"}}
	assert.Equal(t, "state enum('new','paid')", g.ColumnDef(f, 0))

	f = &schema.Field{Col: "total", Type: schema.TypeNumber, NativeType: "decimal",
		Digits: 12, Decimals: 2}
	assert.Equal(t, "total decimal(12,2)", g.ColumnDef(f, 0))
}

func TestForeignKeyDef(t *testing.T) {
	g := gen(t)

	fk := &schema.ForeignKey{Name: "fk_orders_user_id", RefTable: "users",
		Cols: []string{"user_id"}, RefCols: []string{"id"}}
	def, err := g.ForeignKeyDef(fk)
	require.NoError(t, err)
	assert.Equal(t,
		"constraint fk_orders_user_id foreign key (user_id) references users (id)",
		def)

	// Non-default rules are rendered, defaults omitted.
	fk.OnDelete = "cascade"
	def, err = g.ForeignKeyDef(fk)
	require.NoError(t, err)
	assert.Equal(t,
		"constraint fk_orders_user_id foreign key (user_id) references users (id) on delete cascade",
		def)

	// Unresolved referenced columns are an error.
	_, err = g.ForeignKeyDef(&schema.ForeignKey{Name: "bad", RefTable: "users",
		Cols: []string{"user_id"}})
	require.Error(t, err)
}

func TestTableSQL(t *testing.T) {
	g := gen(t)

	tbl := schema.NewTable("shop", "orders")
	require.NoError(t, tbl.AddField(&schema.Field{Col: "id", Type: schema.TypeNumber,
		NativeType: "bigint", NotNull: true, AutoIncrement: true}))
	require.NoError(t, tbl.AddField(&schema.Field{Col: "user_id", Type: schema.TypeNumber,
		NativeType: "bigint", NotNull: true}))
	tbl.PK = []string{"id"}
	tbl.IXs["ix_user"] = &schema.Index{Name: "ix_user",
		Cols: []schema.IndexCol{{Col: "user_id"}}}
	tbl.FKs["fk_orders_user_id"] = &schema.ForeignKey{Name: "fk_orders_user_id",
		RefTable: "users", Cols: []string{"user_id"}, RefCols: []string{"id"}}

	sql, err := g.TableSQL(tbl, true)
	require.NoError(t, err)
	assert.Equal(t, "create table shop.orders (\n"+
		"  id      bigint not null auto_increment primary key,\n"+
		"  user_id bigint not null,\n"+
		"  index ix_user (user_id),\n"+
		"  constraint fk_orders_user_id foreign key (user_id) references users (id)\n"+
		")", sql)

	// Body-only form omits outgoing foreign keys.
	sql, err = g.TableSQL(tbl, false)
	require.NoError(t, err)
	assert.NotContains(t, sql, "foreign key")
}

func TestTableSQLCompositePK(t *testing.T) {
	g := gen(t)

	tbl := schema.NewTable("shop", "order_items")
	require.NoError(t, tbl.AddField(&schema.Field{Col: "order_id", Type: schema.TypeNumber, NativeType: "bigint", NotNull: true}))
	require.NoError(t, tbl.AddField(&schema.Field{Col: "line", Type: schema.TypeNumber, NativeType: "int", NotNull: true}))
	tbl.PK = []string{"order_id", "line"}

	sql, err := g.TableSQL(tbl, true)
	require.NoError(t, err)
	assert.Contains(t, sql, "primary key (order_id, line)")
	assert.NotContains(t, sql, "not null primary key")
}

func TestAlterStatements(t *testing.T) {
	g := gen(t)

	f := &schema.Field{Col: "note", Type: schema.TypeString, NativeType: "varchar", Size: 255}
	assert.Equal(t, "alter table t add column note varchar(255)", g.AddColumnSQL("t", f))
	assert.Equal(t, "alter table t modify column note varchar(255)", g.ChangeColumnSQL("t", f))
	assert.Equal(t, "alter table t drop column note", g.DropColumnSQL("t", "note"))
	assert.Equal(t, "alter table t drop primary key", g.DropPrimaryKeySQL("t"))
	assert.Equal(t, "alter table t add primary key (id)", g.AddPrimaryKeySQL("t", []string{"id"}))
	assert.Equal(t, "alter table t drop foreign key fk_x", g.DropForeignKeySQL("t", "fk_x"))
	assert.Equal(t, "alter table t drop index uk_x", g.DropUniqueKeySQL("t", "uk_x"))
	assert.Equal(t, "alter table t drop check ck_x", g.DropCheckSQL("t", "ck_x"))
}

func TestIndexDefDesc(t *testing.T) {
	g := gen(t)
	ix := &schema.Index{Name: "ix_created",
		Cols: []schema.IndexCol{{Col: "created_at", Desc: true}, {Col: "id"}}}
	assert.Equal(t, "index ix_created (created_at desc, id)", g.IndexDef(ix))
}

func TestReservedNamesAreQuoted(t *testing.T) {
	g := gen(t)
	assert.Equal(t, "alter table `Order` drop column `group`",
		g.DropColumnSQL("Order", "group"))
}

func TestTriggerAndProcSQL(t *testing.T) {
	g := gen(t)

	trg := &schema.Trigger{Name: "orders_bi", When: "before", Op: "insert",
		Body: "set new.created_at = now()"}
	assert.Equal(t,
		"create trigger orders_bi before insert on shop.orders for each row\nset new.created_at = now()",
		g.TriggerSQL("shop.orders", trg))

	proc := &schema.Procedure{Name: "order_total",
		Params:  []schema.ProcParam{{Name: "oid", Type: "bigint", Mode: "in"}},
		Returns: "decimal(12,2)",
		Body:    "return (select sum(total) from orders where id = oid);"}
	assert.Equal(t,
		"create function order_total(oid bigint) returns decimal(12,2)\n"+
			"return (select sum(total) from orders where id = oid);",
		g.ProcSQL(proc))
	assert.Equal(t, "drop function if exists order_total", g.DropProcSQL(proc))

	proc2 := &schema.Procedure{Name: "prune", Body: "begin end"}
	assert.Equal(t, "drop procedure if exists prune", g.DropProcSQL(proc2))
}

func TestDatabaseSQL(t *testing.T) {
	g := gen(t)
	assert.Equal(t, "create database if not exists shop", g.DatabaseSQL("shop"))
}
