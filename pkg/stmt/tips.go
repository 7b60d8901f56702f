package stmt

// Advisory tips shown next to a script. They never change the SQL.
const (
	tipPostgresDropColumn = "PostgreSQL also drops indexes and constraints on the column, and refuses while a view depends on it."
	tipSQLiteDropColumn   = "SQLite refuses to drop a column that is indexed or part of a key."
	tipDuckDBAlterColumn  = "DuckDB cannot alter a column that an index depends on. Drop the index first and recreate it afterwards."
	tipReplaceIndex       = "The index is dropped and recreated, so queries in between run without it."
	tipReplaceConstraint  = "The constraint is dropped and added again, so writes in between are not checked."
	tipManualCommit       = "Changes are only visible to other sessions after COMMIT."
)

// ManualCommitTip is shown when a script ends with an explicit commit.
func ManualCommitTip() string {
	return tipManualCommit
}

func (b *SQLBuilder) dropColumnTip() string {
	switch b.d.Name {
	case "postgres":
		return tipPostgresDropColumn
	case "sqlite":
		return tipSQLiteDropColumn
	}
	return ""
}

func (b *SQLBuilder) alterColumnTip() string {
	if b.d.Name == "duckdb" {
		return tipDuckDBAlterColumn
	}
	return ""
}
