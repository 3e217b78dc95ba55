// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package vault

import (
	"net/url"
	"strings"
)

// Links builds the public URLs handed out for a vault.
//
// Share and delete links point at the web client; download links point at the API.
type Links struct {
	baseURL string
}

// NewLinks creates a Links rooted at baseURL (e.g. "https://vault.example.com").
func NewLinks(baseURL string) *Links {
	return &Links{baseURL: strings.TrimRight(baseURL, "/")}
}

// ShareURL is the link a creator distributes to readers.
func (links *Links) ShareURL(id string) string {
	return links.baseURL + "/view/" + url.PathEscape(id)
}

// DeleteURL embeds the delete capability. Whoever holds it may preview and delete.
func (links *Links) DeleteURL(id, token string) string {
	return links.baseURL + "/delete/" + url.PathEscape(id) + "/" + url.PathEscape(token)
}

// DownloadURL is where a File vault's bytes are served.
func (links *Links) DownloadURL(id string) string {
	return links.baseURL + "/api/v1/vaults/" + url.PathEscape(id) + "/download"
}
