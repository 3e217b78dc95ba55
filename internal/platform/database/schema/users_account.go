// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package schema holds table and column names for hand-written SQL.
//
// Repositories build queries from these descriptors so that a renamed column
// is changed in one place.
package schema

import "strings"

// UserAccountTable represents the 'users.account' table
type UserAccountTable struct {
	Table            string
	ID               string
	Email            string
	Password         string
	SessionTokenHash string
	SessionExpiresAt string
	CreatedAt        string
	UpdatedAt        string
}

// UserAccount is the schema definition for users.account
var UserAccount = UserAccountTable{
	Table:            "users.account",
	ID:               "id",
	Email:            "email",
	Password:         "passwordhash",
	SessionTokenHash: "sessiontokenhash",
	SessionExpiresAt: "sessionexpiresat",
	CreatedAt:        "createdat",
	UpdatedAt:        "updatedat",
}

// Columns returns all standard column names
func (t UserAccountTable) Columns() []string {
	return []string{
		t.ID, t.Email, t.Password, t.SessionTokenHash, t.SessionExpiresAt,
		t.CreatedAt, t.UpdatedAt,
	}
}

// ColumnList returns Columns as a comma-separated SELECT list.
func (t UserAccountTable) ColumnList() string {
	return strings.Join(t.Columns(), ", ")
}
