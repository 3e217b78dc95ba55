// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

import "strings"

// VaultItemTable represents the 'vault.item' table
type VaultItemTable struct {
	Table             string
	ID                string
	Kind              string
	TextBody          string
	StorageRef        string
	OriginalName      string
	ByteSize          string
	MIMEType          string
	CreatedAt         string
	ExpiresAt         string
	ViewCount         string
	MaxViews          string
	OneTimeView       string
	PasswordHash      string
	DeleteToken       string
	OwnerID           string
	AllowedIdentities string
}

// VaultItem is the schema definition for vault.item
var VaultItem = VaultItemTable{
	Table:             "vault.item",
	ID:                "id",
	Kind:              "kind",
	TextBody:          "textbody",
	StorageRef:        "storageref",
	OriginalName:      "originalname",
	ByteSize:          "bytesize",
	MIMEType:          "mimetype",
	CreatedAt:         "createdat",
	ExpiresAt:         "expiresat",
	ViewCount:         "viewcount",
	MaxViews:          "maxviews",
	OneTimeView:       "onetimeview",
	PasswordHash:      "passwordhash",
	DeleteToken:       "deletetoken",
	OwnerID:           "ownerid",
	AllowedIdentities: "allowedidentities",
}

// Columns returns all column names in scan order
func (t VaultItemTable) Columns() []string {
	return []string{
		t.ID, t.Kind, t.TextBody, t.StorageRef, t.OriginalName, t.ByteSize, t.MIMEType,
		t.CreatedAt, t.ExpiresAt, t.ViewCount, t.MaxViews, t.OneTimeView, t.PasswordHash,
		t.DeleteToken, t.OwnerID, t.AllowedIdentities,
	}
}

// ColumnList returns Columns as a comma-separated SELECT list.
func (t VaultItemTable) ColumnList() string {
	return strings.Join(t.Columns(), ", ")
}
