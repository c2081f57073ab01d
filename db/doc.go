/*
Package db contains tools for working with the PostgreSQL database.

There are tools for:
- opening a lazily connected pool from a connection string
- mapping driver errors onto a few package errors
- reading rows whose shape is not known ahead of time
- observability (both for queries and connection pool info)
- health checks
*/
package db
