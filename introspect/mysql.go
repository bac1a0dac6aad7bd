package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	goversion "github.com/hashicorp/go-version"

	"github.com/sqlpp-io/sqlpp/schema"
)

// MySQLIntrospector reads MySQL/MariaDB information_schema catalogs.
type MySQLIntrospector struct {
	db         *sql.DB
	engine     string
	registries *schema.Registries

	version *goversion.Version
}

// check_constraints appeared in information_schema with MySQL 8.0.16.
var checkConstraintsMin = goversion.Must(goversion.NewVersion("8.0.16"))

// keywords table (for the live reserved-word list) appeared with 8.0.
var keywordsCatalogMin = goversion.Must(goversion.NewVersion("8.0.0"))

// Introspect reads the named databases into a schema snapshot.
func (i *MySQLIntrospector) Introspect(ctx context.Context, databases ...string) (*schema.Schema, error) {
	if len(databases) == 0 {
		var current sql.NullString
		if err := i.db.QueryRowContext(ctx, "SELECT DATABASE()").Scan(&current); err != nil {
			return nil, fmt.Errorf("failed to get current database: %w", err)
		}
		if !current.Valid || current.String == "" {
			return nil, fmt.Errorf("no database selected and none given")
		}
		databases = []string{current.String}
	}

	out := schema.NewSchema(i.engine)
	for _, dbName := range databases {
		if err := i.introspectDatabase(ctx, out, dbName); err != nil {
			return nil, err
		}
	}

	if i.registries != nil {
		for _, t := range out.Tables {
			if err := i.registries.Apply(t); err != nil {
				return nil, fmt.Errorf("failed to apply attribute overlays: %w", err)
			}
		}
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("introspected schema invalid: %w", err)
	}
	return out, nil
}

func (i *MySQLIntrospector) introspectDatabase(ctx context.Context, out *schema.Schema, dbName string) error {
	names, err := i.tableNames(ctx, dbName)
	if err != nil {
		return err
	}

	withChecks, err := i.supportsCheckConstraints(ctx)
	if err != nil {
		return err
	}

	for _, name := range names {
		t := schema.NewTable(dbName, name)
		if err := i.introspectColumns(ctx, t); err != nil {
			return fmt.Errorf("failed to introspect columns for %s: %w", t.Key(), err)
		}
		if err := i.introspectKeys(ctx, t); err != nil {
			return fmt.Errorf("failed to introspect keys for %s: %w", t.Key(), err)
		}
		if err := i.introspectIndexes(ctx, t); err != nil {
			return fmt.Errorf("failed to introspect indexes for %s: %w", t.Key(), err)
		}
		if err := i.introspectTriggers(ctx, t); err != nil {
			return fmt.Errorf("failed to introspect triggers for %s: %w", t.Key(), err)
		}
		out.Tables[t.Key()] = t
	}

	if withChecks {
		if err := i.introspectChecks(ctx, out, dbName); err != nil {
			return fmt.Errorf("failed to introspect check constraints for %s: %w", dbName, err)
		}
	}
	if err := i.introspectProcedures(ctx, out, dbName); err != nil {
		return fmt.Errorf("failed to introspect procedures for %s: %w", dbName, err)
	}
	return nil
}

func (i *MySQLIntrospector) tableNames(ctx context.Context, dbName string) ([]string, error) {
	rows, err := i.db.QueryContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = ?
		  AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`, dbName)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (i *MySQLIntrospector) introspectColumns(ctx context.Context, t *schema.Table) error {
	rows, err := i.db.QueryContext(ctx, `
		SELECT
			column_name,
			column_type,
			is_nullable,
			column_default,
			extra,
			character_set_name,
			collation_name,
			column_comment
		FROM information_schema.columns
		WHERE table_schema = ?
		  AND table_name = ?
		ORDER BY ordinal_position
	`, t.Schema, t.Name)
	if err != nil {
		return fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			f          schema.Field
			columnType string
			isNullable string
			defValue   sql.NullString
			extra      string
			charset    sql.NullString
			collation  sql.NullString
		)
		if err := rows.Scan(&f.Col, &columnType, &isNullable, &defValue, &extra,
			&charset, &collation, &f.Comment); err != nil {
			return fmt.Errorf("failed to scan column: %w", err)
		}

		mapColumnType(&f, columnType)
		f.NotNull = isNullable == "NO"
		f.AutoIncrement = strings.Contains(strings.ToLower(extra), "auto_increment")
		if defValue.Valid {
			f.Default = defValue.String
		}
		f.Charset = charset.String
		f.Collation = collation.String

		if err := t.AddField(&f); err != nil {
			return err
		}
	}
	return rows.Err()
}

// introspectKeys reads the primary key, unique keys and foreign keys.
func (i *MySQLIntrospector) introspectKeys(ctx context.Context, t *schema.Table) error {
	rows, err := i.db.QueryContext(ctx, `
		SELECT
			column_name
		FROM information_schema.key_column_usage
		WHERE table_schema = ?
		  AND table_name = ?
		  AND constraint_name = 'PRIMARY'
		ORDER BY ordinal_position
	`, t.Schema, t.Name)
	if err != nil {
		return fmt.Errorf("failed to query primary key: %w", err)
	}
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan primary key column: %w", err)
		}
		t.PK = append(t.PK, col)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = i.db.QueryContext(ctx, `
		SELECT
			tc.constraint_name,
			GROUP_CONCAT(kcu.column_name ORDER BY kcu.ordinal_position) AS cols
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON kcu.constraint_schema = tc.constraint_schema
			AND kcu.constraint_name = tc.constraint_name
			AND kcu.table_name = tc.table_name
		WHERE tc.table_schema = ?
		  AND tc.table_name = ?
		  AND tc.constraint_type = 'UNIQUE'
		GROUP BY tc.constraint_name
		ORDER BY tc.constraint_name
	`, t.Schema, t.Name)
	if err != nil {
		return fmt.Errorf("failed to query unique keys: %w", err)
	}
	for rows.Next() {
		var name, cols string
		if err := rows.Scan(&name, &cols); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan unique key: %w", err)
		}
		t.UKs[name] = &schema.UniqueKey{Name: name, Cols: strings.Split(cols, ",")}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = i.db.QueryContext(ctx, `
		SELECT
			kcu.constraint_name,
			GROUP_CONCAT(kcu.column_name ORDER BY kcu.ordinal_position) AS cols,
			kcu.referenced_table_name,
			GROUP_CONCAT(kcu.referenced_column_name ORDER BY kcu.ordinal_position) AS ref_cols,
			rc.update_rule,
			rc.delete_rule
		FROM information_schema.key_column_usage kcu
		JOIN information_schema.referential_constraints rc
			ON kcu.constraint_name = rc.constraint_name
			AND kcu.constraint_schema = rc.constraint_schema
		WHERE kcu.table_schema = ?
		  AND kcu.table_name = ?
		  AND kcu.referenced_table_name IS NOT NULL
		GROUP BY kcu.constraint_name, kcu.referenced_table_name, rc.update_rule, rc.delete_rule
		ORDER BY kcu.constraint_name
	`, t.Schema, t.Name)
	if err != nil {
		return fmt.Errorf("failed to query foreign keys: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			fk               schema.ForeignKey
			cols, refCols    string
			updRule, delRule string
		)
		if err := rows.Scan(&fk.Name, &cols, &fk.RefTable, &refCols, &updRule, &delRule); err != nil {
			return fmt.Errorf("failed to scan foreign key: %w", err)
		}
		fk.Cols = strings.Split(cols, ",")
		fk.RefCols = strings.Split(refCols, ",")
		fk.OnUpdate = normalizeRule(updRule)
		fk.OnDelete = normalizeRule(delRule)
		t.FKs[fk.Name] = &fk
	}
	return rows.Err()
}

// normalizeRule lowercases a referential rule and drops the default.
func normalizeRule(rule string) string {
	r := strings.ToLower(strings.TrimSpace(rule))
	if r == "no action" || r == "restrict" || r == "" {
		return ""
	}
	return r
}

// introspectIndexes reads the non-unique secondary indexes; the primary key
// and unique keys are left out. An index that backs a foreign key is not
// left out and is read like any other index. The per-column collation flag
// distinguishes asc from desc.
func (i *MySQLIntrospector) introspectIndexes(ctx context.Context, t *schema.Table) error {
	rows, err := i.db.QueryContext(ctx, `
		SELECT
			index_name,
			GROUP_CONCAT(column_name ORDER BY seq_in_index) AS cols,
			GROUP_CONCAT(IFNULL(collation, 'A') ORDER BY seq_in_index) AS collations
		FROM information_schema.statistics
		WHERE table_schema = ?
		  AND table_name = ?
		  AND index_name != 'PRIMARY'
		  AND non_unique = 1
		  AND index_name NOT IN (
			SELECT constraint_name
			FROM information_schema.referential_constraints
			WHERE constraint_schema = ? AND table_name = ?
		  )
		GROUP BY index_name
		ORDER BY index_name
	`, t.Schema, t.Name, t.Schema, t.Name)
	if err != nil {
		return fmt.Errorf("failed to query indexes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, cols, collations string
		if err := rows.Scan(&name, &cols, &collations); err != nil {
			return fmt.Errorf("failed to scan index: %w", err)
		}
		colNames := strings.Split(cols, ",")
		dirs := strings.Split(collations, ",")
		ix := &schema.Index{Name: name}
		for k, col := range colNames {
			ic := schema.IndexCol{Col: col}
			if k < len(dirs) && dirs[k] == "D" {
				ic.Desc = true
			}
			ix.Cols = append(ix.Cols, ic)
		}
		t.IXs[name] = ix
	}
	return rows.Err()
}

// introspectTriggers reads the table's triggers owned by the current user.
func (i *MySQLIntrospector) introspectTriggers(ctx context.Context, t *schema.Table) error {
	rows, err := i.db.QueryContext(ctx, `
		SELECT
			trigger_name,
			action_timing,
			event_manipulation,
			action_order,
			action_statement
		FROM information_schema.triggers
		WHERE event_object_schema = ?
		  AND event_object_table = ?
		  AND definer = CURRENT_USER()
		ORDER BY event_manipulation, action_timing, action_order
	`, t.Schema, t.Name)
	if err != nil {
		return fmt.Errorf("failed to query triggers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var trg schema.Trigger
		var timing, event string
		if err := rows.Scan(&trg.Name, &timing, &event, &trg.Pos, &trg.Body); err != nil {
			return fmt.Errorf("failed to scan trigger: %w", err)
		}
		trg.When = strings.ToLower(timing)
		trg.Op = strings.ToLower(event)
		t.Triggers[trg.Name] = &trg
	}
	return rows.Err()
}

func (i *MySQLIntrospector) introspectChecks(ctx context.Context, out *schema.Schema, dbName string) error {
	rows, err := i.db.QueryContext(ctx, `
		SELECT
			tc.table_name,
			cc.constraint_name,
			cc.check_clause
		FROM information_schema.table_constraints tc
		JOIN information_schema.check_constraints cc
			ON cc.constraint_schema = tc.constraint_schema
			AND cc.constraint_name = tc.constraint_name
		WHERE tc.table_schema = ?
		  AND tc.constraint_type = 'CHECK'
		ORDER BY tc.table_name, cc.constraint_name
	`, dbName)
	if err != nil {
		return fmt.Errorf("failed to query check constraints: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tableName, name, clause string
		if err := rows.Scan(&tableName, &name, &clause); err != nil {
			return fmt.Errorf("failed to scan check constraint: %w", err)
		}
		if t, ok := out.Tables[dbName+"."+tableName]; ok {
			t.Checks[name] = &schema.Check{Name: name, Expr: clause}
		}
	}
	return rows.Err()
}

func (i *MySQLIntrospector) introspectProcedures(ctx context.Context, out *schema.Schema, dbName string) error {
	rows, err := i.db.QueryContext(ctx, `
		SELECT
			routine_name,
			routine_type,
			IFNULL(dtd_identifier, ''),
			IFNULL(routine_definition, '')
		FROM information_schema.routines
		WHERE routine_schema = ?
		ORDER BY routine_name
	`, dbName)
	if err != nil {
		return fmt.Errorf("failed to query routines: %w", err)
	}

	type rawProc struct {
		name, typ, returns, body string
	}
	var procs []rawProc
	for rows.Next() {
		var p rawProc
		if err := rows.Scan(&p.name, &p.typ, &p.returns, &p.body); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan routine: %w", err)
		}
		procs = append(procs, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, p := range procs {
		proc := &schema.Procedure{Name: p.name, Body: p.body}
		if p.typ == "FUNCTION" {
			proc.Returns = p.returns
		}
		params, err := i.procParams(ctx, dbName, p.name)
		if err != nil {
			return fmt.Errorf("failed to introspect parameters for %s: %w", p.name, err)
		}
		proc.Params = params
		out.Procs[p.name] = proc
	}
	return nil
}

func (i *MySQLIntrospector) procParams(ctx context.Context, dbName, procName string) ([]schema.ProcParam, error) {
	rows, err := i.db.QueryContext(ctx, `
		SELECT
			IFNULL(parameter_name, ''),
			IFNULL(dtd_identifier, ''),
			IFNULL(parameter_mode, '')
		FROM information_schema.parameters
		WHERE specific_schema = ?
		  AND specific_name = ?
		  AND ordinal_position > 0
		ORDER BY ordinal_position
	`, dbName, procName)
	if err != nil {
		return nil, fmt.Errorf("failed to query parameters: %w", err)
	}
	defer rows.Close()

	var params []schema.ProcParam
	for rows.Next() {
		var p schema.ProcParam
		var mode string
		if err := rows.Scan(&p.Name, &p.Type, &mode); err != nil {
			return nil, fmt.Errorf("failed to scan parameter: %w", err)
		}
		p.Mode = strings.ToLower(mode)
		params = append(params, p)
	}
	return params, rows.Err()
}

// ReservedWords loads the live reserved-word list where the server has a
// keywords catalog; callers keep their built-in fallback otherwise.
func (i *MySQLIntrospector) ReservedWords(ctx context.Context) ([]string, error) {
	v, err := i.serverVersion(ctx)
	if err != nil {
		return nil, err
	}
	if i.engine != "mysql" || v.LessThan(keywordsCatalogMin) {
		return nil, nil
	}

	rows, err := i.db.QueryContext(ctx, `
		SELECT word FROM information_schema.keywords WHERE reserved = 1
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query keywords: %w", err)
	}
	defer rows.Close()

	var words []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, fmt.Errorf("failed to scan keyword: %w", err)
		}
		words = append(words, w)
	}
	return words, rows.Err()
}

func (i *MySQLIntrospector) supportsCheckConstraints(ctx context.Context) (bool, error) {
	v, err := i.serverVersion(ctx)
	if err != nil {
		return false, err
	}
	return v.GreaterThanOrEqual(checkConstraintsMin), nil
}

// serverVersion parses SELECT VERSION(), dropping build suffixes like
// "-0ubuntu0.22.04.1" or "-MariaDB".
func (i *MySQLIntrospector) serverVersion(ctx context.Context) (*goversion.Version, error) {
	if i.version != nil {
		return i.version, nil
	}
	var raw string
	if err := i.db.QueryRowContext(ctx, "SELECT VERSION()").Scan(&raw); err != nil {
		return nil, fmt.Errorf("failed to get server version: %w", err)
	}
	base := strings.SplitN(raw, "-", 2)[0]
	v, err := goversion.NewVersion(base)
	if err != nil {
		return nil, fmt.Errorf("failed to parse server version %q: %w", raw, err)
	}
	i.version = v
	return v, nil
}
