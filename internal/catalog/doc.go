// Package catalog ties the upstream client, the store and the cache together.
//
// Reads are served from the store when it holds matching data and fall back
// to the upstream API otherwise. Sync refreshes platforms and the next 180
// days of releases under a shared lock, and Scheduler runs it on a cron
// schedule.
package catalog
