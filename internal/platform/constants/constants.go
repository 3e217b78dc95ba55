// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, and cross-cutting keys that are shared
between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Security: Header names carrying vault passwords and delete capabilities.
  - Vaults: Identifier alphabet, retry budgets and reclaimer coordination keys.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "vaultlink-api"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 100.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 150

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Authentication

const (
	// SessionTTL is how long an issued session token stays valid.
	SessionTTL = 7 * 24 * time.Hour

	// BearerPrefix is the scheme prefix on the Authorization header.
	BearerPrefix = "Bearer "
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
	HeaderAuthorization = "Authorization"

	// HeaderVaultPassword carries the password for a protected vault.
	HeaderVaultPassword = "X-Vault-Password"

	// HeaderDeleteToken carries the delete capability for DELETE requests.
	HeaderDeleteToken = "X-Delete-Token"

	// QueryPassword and QueryDeleteToken are the query-string fallbacks for link clicks.
	QueryPassword    = "password"
	QueryDeleteToken = "token"
)

// # Vault Identifiers

const (
	// VaultIDLength is the length of a public vault identifier.
	VaultIDLength = 10

	// VaultIDAlphabet is the URL-safe alphabet identifiers are drawn from.
	VaultIDAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz_-"

	// VaultIDAttempts bounds identifier regeneration on a primary key collision.
	VaultIDAttempts = 3
)

// # Reclamation

const (
	// ReclaimTimeout caps a single reclamation pass.
	ReclaimTimeout = 5 * time.Minute

	// ReclaimBatchSize bounds how many expired records one pass loads.
	ReclaimBatchSize = 500
)

// # JSON Field Identifiers

const (
	FieldData    = "data"
	FieldMeta    = "meta"
	FieldError   = "error"
	FieldCode    = "code"
	FieldDetails = "details"
	FieldItems   = "items"
	FieldTotal   = "total"
	FieldMessage = "message"
	FieldStatus  = "status"
	FieldApp     = "app"
	FieldVersion = "version"
	FieldChecks  = "checks"
)

// # Database Schemas

const (
	SchemaVault = "vault"
	SchemaUsers = "users"
)

// # Redis Prefixes (Cache Taxonomy)

const (
	// RedisKeyReclaimLease guards the reclaimer so one replica sweeps at a time.
	RedisKeyReclaimLease = "vault:reclaim:lease"
)
