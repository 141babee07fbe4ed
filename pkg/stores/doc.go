// Package stores provides the persistence layer for fieldgate audit logs.
package stores
