package hospital

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

const (
	ColumnName        = "Hospital_Name"
	ColumnAddress     = "Address"
	ColumnContact     = "Contact"
	ColumnSpecialties = "Specialties"

	DefaultTable = "hospitals"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Directory is a read-only hospital table. Empty cells are treated as missing.
type Directory struct {
	columns  []string
	colIndex map[string]int
	rows     [][]string
	loaded   bool
}

// NewDirectory builds a loaded directory from a header and its rows.
func NewDirectory(columns []string, rows [][]string) *Directory {
	d := &Directory{
		columns:  make([]string, len(columns)),
		colIndex: make(map[string]int, len(columns)),
		rows:     make([][]string, 0, len(rows)),
		loaded:   true,
	}
	for i, c := range columns {
		c = strings.TrimSpace(strings.TrimPrefix(c, "\ufeff"))
		d.columns[i] = c
		if _, dup := d.colIndex[c]; !dup {
			d.colIndex[c] = i
		}
	}
	for _, row := range rows {
		d.rows = append(d.rows, append([]string(nil), row...))
	}
	return d
}

// Loaded reports whether the directory was read successfully.
func (d *Directory) Loaded() bool {
	return d != nil && d.loaded
}

func (d *Directory) Len() int {
	if d == nil {
		return 0
	}
	return len(d.rows)
}

// HasColumn reports whether the header contains name.
func (d *Directory) HasColumn(name string) bool {
	_, ok := d.colIndex[name]
	return ok
}

// value returns the trimmed cell and false when it is missing.
func (d *Directory) value(row []string, column string) (string, bool) {
	i, ok := d.colIndex[column]
	if !ok || i >= len(row) {
		return "", false
	}
	v := strings.TrimSpace(row[i])
	return v, v != ""
}

// Querier is the subset of pgxpool.Pool used to read the directory from Postgres.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Source selects where the directory is read from. A non-nil Pool wins;
// otherwise Path is a CSV file or, for .db/.sqlite/.sqlite3, a SQLite database.
type Source struct {
	Path  string
	Table string
	Pool  Querier
}

// Open loads the directory from src. Failures are logged and produce an
// unloaded directory; recommendations then degrade to a placeholder.
func Open(ctx context.Context, src Source, logger zerolog.Logger) *Directory {
	dir, err := open(ctx, src)
	switch {
	case err == nil:
		logger.Info().Str("source", src.describe()).Int("rows", dir.Len()).Msg("hospital data loaded")
		return dir
	case errors.Is(err, os.ErrNotExist):
		logger.Warn().Str("source", src.describe()).Msg("hospital data not found; hospital recommendations will not be available")
	default:
		logger.Error().Err(err).Str("source", src.describe()).Msg("error loading hospital data")
	}
	return &Directory{}
}

func open(ctx context.Context, src Source) (*Directory, error) {
	table := src.Table
	if table == "" {
		table = DefaultTable
	}
	if src.Pool != nil {
		return LoadPostgres(ctx, src.Pool, table)
	}
	switch strings.ToLower(filepath.Ext(src.Path)) {
	case ".db", ".sqlite", ".sqlite3":
		return LoadSQLite(ctx, src.Path, table)
	default:
		return LoadCSV(src.Path)
	}
}

func (s Source) describe() string {
	if s.Pool != nil {
		return "postgres"
	}
	return s.Path
}

// LoadCSV reads a directory from a CSV file with a header row.
func LoadCSV(path string) (*Directory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open hospital data: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read hospital data: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("hospital data is empty")
	}
	return NewDirectory(records[0], records[1:]), nil
}

// LoadSQLite reads every row of table from a SQLite database file.
func LoadSQLite(ctx context.Context, path, table string) (*Directory, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open hospital database: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `SELECT * FROM "`+table+`"`)
	if err != nil {
		return nil, fmt.Errorf("query hospitals: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	var out [][]string
	for rows.Next() {
		cells := make([]sql.NullString, len(columns))
		dest := make([]any, len(columns))
		for i := range cells {
			dest[i] = &cells[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan hospital: %w", err)
		}
		row := make([]string, len(columns))
		for i, c := range cells {
			if c.Valid {
				row[i] = c.String
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate hospitals: %w", err)
	}
	return NewDirectory(columns, out), nil
}

// LoadPostgres reads every row of table through a pgx pool.
func LoadPostgres(ctx context.Context, q Querier, table string) (*Directory, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	rows, err := q.Query(ctx, "SELECT * FROM "+pgx.Identifier{table}.Sanitize())
	if err != nil {
		return nil, fmt.Errorf("query hospitals: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, fd := range fields {
		columns[i] = fd.Name
	}

	var out [][]string
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("scan hospital: %w", err)
		}
		row := make([]string, len(values))
		for i, v := range values {
			if v != nil {
				row[i] = fmt.Sprint(v)
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate hospitals: %w", err)
	}
	return NewDirectory(columns, out), nil
}
