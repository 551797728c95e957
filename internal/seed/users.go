package seed

import (
	"encoding/csv"
	"errors"
	"io"
	"log"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"

	"medstock/m/domain"
	"medstock/m/internal/auth"
)

// Credential is an account to create when it does not exist yet.
type Credential struct {
	Username string
	Password string
	Role     domain.Role
}

// LoadUsers inserts the given accounts, ignoring usernames already present.
func LoadUsers(db *sqlx.DB, users []Credential) error {
	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	stmt, err := tx.Preparex(`INSERT OR IGNORE INTO users (username, password, role) VALUES ($1, $2, $3)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	rows := 0
	for _, u := range users {
		if u.Username == "" || !u.Role.Valid() {
			log.Printf("skipping user %q with role %q", u.Username, u.Role)
			continue
		}
		hashed, err := auth.HashPassword(u.Password)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		res, err := stmt.Exec(u.Username, hashed, string(u.Role))
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			rows++
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	if rows > 0 {
		log.Printf("seeded %d users", rows)
	}
	return nil
}

// ReadUsersCSV reads accounts from a Username,Password,Role file. A missing
// file yields no accounts.
func ReadUsersCSV(path string) ([]Credential, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	// Skip header
	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, err
	}

	var users []Credential
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(record) < 3 {
			continue
		}
		users = append(users, Credential{
			Username: strings.TrimSpace(record[0]),
			Password: record[1],
			Role:     domain.Role(strings.ToLower(strings.TrimSpace(record[2]))),
		})
	}
	return users, nil
}
