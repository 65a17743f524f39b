package repository

import (
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

const (
	pgUniqueViolation    = "23505"
	mysqlDuplicateEntry  = 1062
	likeEscape           = "!"
	likeEscapeClauseText = "ESCAPE '" + likeEscape + "'"
)

type dialect struct {
	name string
	// textType is the CAST target used to match ids as decimal text.
	textType    string
	isDuplicate func(error) bool
}

var (
	postgresDialect = dialect{name: "postgres", textType: "VARCHAR(20)", isDuplicate: isPostgresDuplicate}
	mysqlDialect    = dialect{name: "mysql", textType: "CHAR(20)", isDuplicate: isMySQLDuplicate}
	genericDialect  = dialect{name: "generic", textType: "VARCHAR(20)", isDuplicate: mentionsDuplicate}
)

func dialectFor(driverName string) dialect {
	switch driverName {
	case "postgres", "pgx", "pq":
		return postgresDialect
	case "mysql":
		return mysqlDialect
	}
	return genericDialect
}

func isPostgresDuplicate(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgUniqueViolation
	}
	return mentionsDuplicate(err)
}

func isMySQLDuplicate(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}
	return mentionsDuplicate(err)
}

// mentionsDuplicate recognizes uniqueness violations by message, for drivers
// without typed errors.
func mentionsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "duplicate entry")
}

// containsPattern turns a search term into a LIKE pattern matching it
// anywhere, with wildcards in the term taken literally.
func containsPattern(term string) string {
	r := strings.NewReplacer(
		likeEscape, likeEscape+likeEscape,
		"%", likeEscape+"%",
		"_", likeEscape+"_",
	)
	return "%" + r.Replace(term) + "%"
}
