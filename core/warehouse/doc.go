// Package warehouse lists the live object graph of the remote warehouse.
//
// Two dialects are supported: Snowflake (gosnowflake, SHOW commands) and Postgres-compatible
// warehouses (pgx, system catalogs). Both return records keyed by the same canonical fields,
// so callers never see which one they talk to.
//
// A failed listing is returned as *RemoteQueryError. Callers decide whether it is fatal.
package warehouse
